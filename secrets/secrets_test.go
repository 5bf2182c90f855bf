package secrets

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rigado/bleport"
)

const otherKind = bleport.SecretKind(9)

// Both stores must satisfy the same contract; the bond bridge does not
// care which one the host hands it.
func stores(t *testing.T) map[string]bleport.SecretStore {
	t.Helper()
	return map[string]bleport.SecretStore{
		"mem":  NewMemStore(),
		"file": NewFileStore(filepath.Join(t.TempDir(), "secrets.json")),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			key := []byte{0x01, 0x02}
			val := []byte{0xaa, 0xbb, 0xcc}

			if _, ok := s.GetSecret(bleport.KindBondKeys, key, 0); ok {
				t.Fatal("lookup before store must miss")
			}
			if !s.SetSecret(bleport.KindBondKeys, key, val) {
				t.Fatal("store must accept the write")
			}
			got, ok := s.GetSecret(bleport.KindBondKeys, key, 0)
			if !ok || !bytes.Equal(got, val) {
				t.Fatalf("want %x, got %x (ok=%v)", val, got, ok)
			}

			// Overwrite, then delete via nil value.
			if !s.SetSecret(bleport.KindBondKeys, key, []byte{0xdd}) {
				t.Fatal("overwrite must succeed")
			}
			got, _ = s.GetSecret(bleport.KindBondKeys, key, 0)
			if !bytes.Equal(got, []byte{0xdd}) {
				t.Fatalf("overwrite lost: got %x", got)
			}
			if !s.SetSecret(bleport.KindBondKeys, key, nil) {
				t.Fatal("delete of present entry must succeed")
			}
			if s.SetSecret(bleport.KindBondKeys, key, nil) {
				t.Fatal("delete of absent entry must report false")
			}
		})
	}
}

func TestEnumerationOrder(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			keys := [][]byte{{1}, {2}, {3}}
			for i, k := range keys {
				if !s.SetSecret(bleport.KindBondKeys, k, []byte{byte(10 + i)}) {
					t.Fatal("set")
				}
			}
			// Entries of another kind must not disturb the walk.
			if !s.SetSecret(otherKind, []byte{0xff}, []byte{0xff}) {
				t.Fatal("set other kind")
			}

			for i := range keys {
				v, ok := s.GetSecret(bleport.KindBondKeys, nil, i)
				if !ok {
					t.Fatalf("index %d must enumerate", i)
				}
				if v[0] != byte(10+i) {
					t.Fatalf("index %d: want %d, got %d", i, 10+i, v[0])
				}
			}
			if _, ok := s.GetSecret(bleport.KindBondKeys, nil, len(keys)); ok {
				t.Fatal("enumeration past the end must miss")
			}

			// Deleting the middle entry shifts the walk, order intact.
			if !s.SetSecret(bleport.KindBondKeys, keys[1], nil) {
				t.Fatal("delete")
			}
			v, ok := s.GetSecret(bleport.KindBondKeys, nil, 1)
			if !ok || v[0] != 12 {
				t.Fatalf("after delete index 1 must be the old third entry, got %v ok=%v", v, ok)
			}
		})
	}
}

func TestOverwriteKeepsPosition(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s.SetSecret(bleport.KindBondKeys, []byte{1}, []byte{0x0a})
			s.SetSecret(bleport.KindBondKeys, []byte{2}, []byte{0x0b})
			s.SetSecret(bleport.KindBondKeys, []byte{1}, []byte{0x0c})

			v, ok := s.GetSecret(bleport.KindBondKeys, nil, 0)
			if !ok || v[0] != 0x0c {
				t.Fatalf("overwritten entry must keep index 0, got %v", v)
			}
		})
	}
}

func TestFileStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")

	s := NewFileStore(path)
	if !s.SetSecret(bleport.KindBondKeys, []byte{7}, []byte{1, 2, 3}) {
		t.Fatal("set")
	}

	// A separate handle over the same file sees the entry.
	s2 := NewFileStore(path)
	v, ok := s2.GetSecret(bleport.KindBondKeys, []byte{7}, 0)
	if !ok || !bytes.Equal(v, []byte{1, 2, 3}) {
		t.Fatalf("want persisted entry, got %v ok=%v", v, ok)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Fatalf("key material must be owner-only, got %v", perm)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	s := NewFileStore(path)
	if _, ok := s.GetSecret(bleport.KindBondKeys, nil, 0); ok {
		t.Fatal("corrupt file must read as empty")
	}
	// Writes recover the file.
	if !s.SetSecret(bleport.KindBondKeys, []byte{1}, []byte{2}) {
		t.Fatal("store must accept writes after corruption")
	}
	if _, ok := s.GetSecret(bleport.KindBondKeys, []byte{1}, 0); !ok {
		t.Fatal("entry written over corruption must read back")
	}
}
