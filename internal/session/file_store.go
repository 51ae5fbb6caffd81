package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileTokenStore keeps the resumption token in a JSON file under the
// client's state directory.
type FileTokenStore struct {
	Dir string
}

type tokenFile struct {
	Token string `json:"token"`
}

func NewFileTokenStore(dir string) *FileTokenStore {
	return &FileTokenStore{Dir: dir}
}

func (f *FileTokenStore) path() string {
	return filepath.Join(f.Dir, "token.json")
}

// Load reads the stored token. A missing file is not an error; it means no
// identity has been issued yet.
func (f *FileTokenStore) Load() (string, error) {
	data, err := os.ReadFile(f.path())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read token file: %w", err)
	}

	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return "", fmt.Errorf("parse token file: %w", err)
	}
	return tf.Token, nil
}

// Save writes the token, overwriting any prior value.
func (f *FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(f.Dir, 0700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, _ := json.MarshalIndent(tokenFile{Token: token}, "", "  ")
	if err := os.WriteFile(f.path(), data, 0600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}
