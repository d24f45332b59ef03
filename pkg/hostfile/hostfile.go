// Package hostfile persists the backend's host collection as a single JSON
// document on disk.
package hostfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/kylerisse/pingboard/pkg/host"
)

// document is the on-disk shape, identical to the wire envelope.
type document struct {
	Hosts []host.Host `json:"hosts"`
}

// File reads and writes one host file.
type File struct {
	path string
	mu   sync.Mutex
}

// New returns a File backed by path. The file does not need to exist yet.
func New(path string) *File {
	return &File{path: path}
}

// Path returns the file's location.
func (f *File) Path() string {
	return f.path
}

// Load reads the host collection. A missing or empty file yields an empty
// collection.
func (f *File) Load() ([]host.Host, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []host.Host{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read file %s: %w", f.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []host.Host{}, nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("could not parse JSON in %s: %w", f.path, err)
	}
	if doc.Hosts == nil {
		doc.Hosts = []host.Host{}
	}
	return doc.Hosts, nil
}

// Save replaces the file with hosts. The write goes to a temporary file in
// the same directory which is then renamed over the target, so readers never
// observe a partial document.
func (f *File) Save(hosts []host.Host) error {
	if hosts == nil {
		hosts = []host.Host{}
	}
	data, err := json.MarshalIndent(document{Hosts: hosts}, "", "    ")
	if err != nil {
		return fmt.Errorf("could not encode hosts: %w", err)
	}
	data = append(data, '\n')

	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*")
	if err != nil {
		return fmt.Errorf("could not create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("could not write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("could not sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("could not chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("could not replace %s: %w", f.path, err)
	}
	return nil
}
