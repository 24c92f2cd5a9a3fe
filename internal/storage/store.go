package storage

import (
	"errors"
	"fmt"
)

const (
	RegistryDir = "registry"
)

var (
	// DefaultDir is the root of all file based storage.
	DefaultDir = "file-storage"
)

// Shard creates a new storage implementation for the given shard.
type Shard func(shard string) (Persistence, error)

// EventRegistry creates a new registry for the given path.
type EventRegistry func(path string) (Registry, error)

var (
	NotFoundErr     = errors.New("not found")
	CouldNotLoadErr = errors.New("could not load")
)

// Key is the storage key for a general implementation
type Key struct {
	Hash  int64  `json:"hash"`
	Pair  string `json:"pair"`
	Label string `json:"label"`
}

// K is a simplified key for storage
type K struct {
	Pair  string `json:"pair"`
	Label string `json:"label"`
}

func (k Key) Path() string {
	return fmt.Sprintf("%s_%v_%s", k.Pair, k.Hash, k.Label)
}

// Registry is an append only event log.
type Registry interface {
	Add(key K, value interface{}) error
	GetAll(key K, values interface{}) error
}

// Persistence stores and loads single values.
type Persistence interface {
	Store(k Key, value interface{}) error
	Load(k Key, value interface{}) error
}
