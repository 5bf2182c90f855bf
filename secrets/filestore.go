package secrets

import (
	"encoding/hex"
	"os"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/rigado/bleport"
)

// record is one stored secret. Keys and values travel hex encoded so the
// file stays printable; the array keeps insertion order across the
// round-trip.
type record struct {
	Kind  int    `json:"kind"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// FileStore persists secrets to a JSON file, load-modify-store on every
// call. A corrupt or unreadable file degrades to empty with a warning:
// the bonds are forgotten, nothing fails.
type FileStore struct {
	filename string
	lock     sync.RWMutex
}

func NewFileStore(filename string) *FileStore {
	return &FileStore{filename: filename}
}

func (fs *FileStore) GetSecret(kind bleport.SecretKind, key []byte, index int) ([]byte, bool) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	records := fs.loadExisting()
	if key != nil {
		want := hex.EncodeToString(key)
		for _, r := range records {
			if r.Kind == int(kind) && r.Key == want {
				return decodeValue(r.Value)
			}
		}
		return nil, false
	}

	if index < 0 {
		return nil, false
	}
	n := 0
	for _, r := range records {
		if r.Kind != int(kind) {
			continue
		}
		if n == index {
			return decodeValue(r.Value)
		}
		n++
	}
	return nil, false
}

func (fs *FileStore) SetSecret(kind bleport.SecretKind, key, value []byte) bool {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	records := fs.loadExisting()
	want := hex.EncodeToString(key)
	at := -1
	for i, r := range records {
		if r.Kind == int(kind) && r.Key == want {
			at = i
			break
		}
	}

	switch {
	case value == nil:
		if at < 0 {
			return false
		}
		records = append(records[:at], records[at+1:]...)
	case at >= 0:
		records[at].Value = hex.EncodeToString(value)
	default:
		records = append(records, record{
			Kind:  int(kind),
			Key:   want,
			Value: hex.EncodeToString(value),
		})
	}

	if err := fs.storeRecords(records); err != nil {
		bleport.GetLogger().Errorf("secret store %s: %v", fs.filename, err)
		return false
	}
	return true
}

// Clear removes the backing file.
func (fs *FileStore) Clear() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	return os.Remove(fs.filename)
}

func (fs *FileStore) loadExisting() []record {
	_, err := os.Stat(fs.filename)
	if os.IsNotExist(err) {
		return nil
	}

	in, err := os.ReadFile(fs.filename)
	if err != nil {
		bleport.GetLogger().Warnf("secret store %s unreadable, treating as empty: %v", fs.filename, err)
		return nil
	}

	var records []record
	if err := jsoniter.Unmarshal(in, &records); err != nil {
		bleport.GetLogger().Warnf("secret store %s corrupt, treating as empty: %v", fs.filename, err)
		return nil
	}
	return records
}

func (fs *FileStore) storeRecords(records []record) error {
	out, err := jsoniter.Marshal(records)
	if err != nil {
		return err
	}
	// Key material: owner-only.
	return os.WriteFile(fs.filename, out, 0600)
}

func decodeValue(s string) ([]byte, bool) {
	v, err := hex.DecodeString(s)
	if err != nil {
		return nil, false
	}
	return v, true
}
