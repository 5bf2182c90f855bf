package bond

import (
	"github.com/pkg/errors"

	"github.com/rigado/bleport"
	"github.com/rigado/bleport/sliceops"
)

// Stored blob layout: addr(7) || id(1) || material(N). Self-contained so
// the host's generic secret store needs no schema knowledge of its own.
const blobHeaderLen = bleport.PeerAddrLen + 1

// MaxKeyMaterial bounds the key material carried in one blob, sized to
// the stack's per-peer key storage.
const MaxKeyMaterial = 128

// ErrCorrupt marks a stored entry too short to carry the blob header.
var ErrCorrupt = errors.New("bond: corrupt entry")

func appendKeyBlob(dst []byte, id uint8, addr bleport.PeerAddr, material []byte) []byte {
	dst = append(dst, addr.Bytes()...)
	dst = append(dst, id)
	dst = append(dst, material...)
	return dst
}

func parseKeyBlob(blob []byte) (uint8, bleport.PeerAddr, []byte, error) {
	if len(blob) < blobHeaderLen {
		return 0, bleport.PeerAddr{}, nil, errors.Wrapf(ErrCorrupt, "%d bytes", len(blob))
	}

	addr, err := bleport.PeerAddrFromBytes(blob[:bleport.PeerAddrLen])
	if err != nil {
		return 0, bleport.PeerAddr{}, nil, err
	}
	id := blob[bleport.PeerAddrLen]

	// Copy the material out: the blob belongs to the store and may be
	// reused after we return.
	material := sliceops.Clone(blob[blobHeaderLen:])
	return id, addr, material, nil
}
