package bleport

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/rigado/bleport/sliceops"
)

// Peer address types carried in the first byte of the stored form.
const (
	AddrTypePublic uint8 = 0x00
	AddrTypeRandom uint8 = 0x01
)

// PeerAddrLen is the stored width of a peer address: one type byte
// followed by the six value bytes.
const PeerAddrLen = 7

// PeerAddr is a peer device address. Val holds the six address bytes in
// transmission order (least significant first), matching the layout the
// bond blobs are persisted in.
type PeerAddr struct {
	Type uint8
	Val  [6]byte
}

// NewPeerAddr creates a PeerAddr from a colon separated string such as
// "e7:12:34:56:78:9a". The string form is most significant byte first.
func NewPeerAddr(s string, typ uint8) (PeerAddr, error) {
	hexStr := strings.Replace(strings.ToLower(s), ":", "", -1)

	out, err := hex.DecodeString(hexStr)
	if err != nil {
		return PeerAddr{}, errors.Wrap(err, "decode address")
	}
	if len(out) != 6 {
		return PeerAddr{}, fmt.Errorf("address %q: want 6 bytes, got %d", s, len(out))
	}

	a := PeerAddr{Type: typ}
	sliceops.SwapInto(a.Val[:], out)
	return a, nil
}

// PeerAddrFromBytes decodes the 7 byte stored form.
func PeerAddrFromBytes(b []byte) (PeerAddr, error) {
	if len(b) < PeerAddrLen {
		return PeerAddr{}, fmt.Errorf("address: want %d bytes, got %d", PeerAddrLen, len(b))
	}
	a := PeerAddr{Type: b[0]}
	copy(a.Val[:], b[1:7])
	return a, nil
}

// Bytes returns the 7 byte stored form: type byte then value bytes.
func (a PeerAddr) Bytes() []byte {
	out := make([]byte, PeerAddrLen)
	out[0] = a.Type
	copy(out[1:], a.Val[:])
	return out
}

func (a PeerAddr) String() string {
	kind := "public"
	if a.Type == AddrTypeRandom {
		kind = "random"
	}
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x (%s)",
		a.Val[5], a.Val[4], a.Val[3], a.Val[2], a.Val[1], a.Val[0], kind)
}
