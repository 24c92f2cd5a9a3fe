package json

import (
	"path/filepath"

	"github.com/drakos74/free-ml/internal/storage"
	"github.com/rs/zerolog/log"
)

// BlobStorage stores every key as a separate json file.
type BlobStorage struct {
	path  string
	table string
	shard string
	debug bool
}

// BlobShard creates blob storages for the given table under the root directory.
func BlobShard(root, table string) storage.Shard {
	return func(shard string) (storage.Persistence, error) {
		return NewJsonBlob(table, shard, false).WithPath(root), nil
	}
}

// NewJsonBlob creates a new blob storage.
// table has the same schema
// shard is a logical split
func NewJsonBlob(table, shard string, debug bool) *BlobStorage {
	return &BlobStorage{
		table: table,
		shard: shard,
		path:  storage.DefaultDir,
		debug: debug,
	}
}

// WithPath overrides the root directory of the storage.
func (s *BlobStorage) WithPath(path string) *BlobStorage {
	s.path = path
	return s
}

func (s BlobStorage) Store(k storage.Key, value interface{}) error {
	p := filepath.Join(s.path, s.table, s.shard)
	err := Save(p, k.Path(), value)
	if err == nil && s.debug {
		log.Info().Str("path", p).Str("file", k.Path()).Msg("stored json file")
	}
	return err
}

func (s BlobStorage) Load(k storage.Key, value interface{}) error {
	return Load(filepath.Join(s.path, s.table, s.shard), k.Path(), value)
}
