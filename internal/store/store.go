// Package store persists the bot's records as whole-file JSON namespaces,
// one file per record set. Every access reloads the file from disk and every
// mutation rewrites it in full; a mutex per namespace keeps the
// read-modify-write cycles serialized.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

type namespace struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

func newNamespace(dir, file string, logger *zap.Logger) (*namespace, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &namespace{path: filepath.Join(dir, file), logger: logger}, nil
}

// load reads the backing file into out. A missing or corrupt file leaves out
// untouched: the store behaves as empty rather than failing the caller.
func (n *namespace) load(out any) {
	data, err := os.ReadFile(n.path)
	if err != nil {
		return
	}
	if err := json.Unmarshal(data, out); err != nil {
		n.logger.Warn("store file unreadable, treating as empty", zap.String("path", n.path), zap.Error(err))
	}
}

// save rewrites the backing file. Unlike load, write failures propagate: a
// lost write would desynchronize the records from the channels they track.
func (n *namespace) save(in any) error {
	data, err := json.MarshalIndent(in, "", "\t")
	if err != nil {
		return fmt.Errorf("encode %s: %w", n.path, err)
	}
	if err := os.WriteFile(n.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", n.path, err)
	}
	return nil
}
