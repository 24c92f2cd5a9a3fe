package json

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"reflect"
	"sort"
	"time"

	"github.com/drakos74/free-ml/internal/storage"
)

const (
	filename = "%d.events.log"
)

// Logger appends json lines to a log file per key.
type Logger struct {
	root string
	path string
}

func NewLogger(folder string) *Logger {
	return &Logger{
		root: storage.DefaultDir,
		path: folder,
	}
}

func (l *Logger) filePath(k storage.K) string {
	return path.Join(l.root, storage.RegistryDir, l.path, k.Pair, k.Label)
}

func (l *Logger) Store(k storage.Key, value interface{}) error {

	filePath := l.filePath(storage.K{
		Pair:  k.Pair,
		Label: k.Label,
	})

	// check if filepath exists
	info, err := os.Stat(filePath)
	if err != nil {
		err := os.MkdirAll(filePath, os.ModePerm)
		if err != nil {
			return fmt.Errorf("could not make dir: %s: %w", filePath, err)
		}
	} else if !info.IsDir() {
		return fmt.Errorf("path given is not a directory: %s", filePath)
	}

	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("could not encode value '%+v': %w", value, err)
	}
	f, err := os.OpenFile(path.Join(filePath, fmt.Sprintf(filename, k.Hash)), os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return fmt.Errorf("could not open log file: %w", err)
	}
	defer f.Close()

	if _, err = f.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("could not write log file for '%+v': %w", k, err)
	}
	return nil
}

// Registry is a file based event registry.
// All events added through the same registry end up in the same file, identified by the hash.
type Registry struct {
	hash   int64
	logger *Logger
}

func NewEventRegistry(path string) *Registry {
	return &Registry{
		hash:   time.Now().Unix(),
		logger: NewLogger(path),
	}
}

// EventRegistry creates a new registry generator under the given root directory.
func EventRegistry(root, parent string) storage.EventRegistry {
	return func(p string) (storage.Registry, error) {
		if p == "" {
			return NewEventRegistry(parent).WithRoot(root), nil
		}
		return NewEventRegistry(path.Join(parent, p)).WithRoot(root), nil
	}
}

func (e *Registry) WithHash(h int64) *Registry {
	e.hash = h
	return e
}

// WithRoot overrides the storage root directory.
func (e *Registry) WithRoot(root string) *Registry {
	e.logger.root = root
	return e
}

func (e *Registry) Add(key storage.K, value interface{}) error {
	k := storage.Key{
		Hash:  e.hash,
		Pair:  key.Pair,
		Label: key.Label,
	}
	return e.logger.Store(k, value)
}

// GetAll appends all the events for the key to the given slice pointer.
// Files are read in name order, events within a file in the order they were added.
func (e *Registry) GetAll(key storage.K, values interface{}) error {

	vv := reflect.ValueOf(values)
	if vv.Kind() != reflect.Ptr || vv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("only accepting slices as placeholder for the results")
	}
	slice := vv.Elem()
	t := slice.Type().Elem()

	files, err := filepath.Glob(path.Join(e.logger.filePath(key), "*.events.log"))
	if err != nil {
		return fmt.Errorf("could not get events: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("could not open '%s': %w", file, err)
		}
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			instance := reflect.New(t)
			if err := json.Unmarshal(line, instance.Interface()); err != nil {
				f.Close()
				return fmt.Errorf("could not decode event value '%s': %w", string(line), err)
			}
			slice = reflect.Append(slice, instance.Elem())
		}
		f.Close()
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("could not read '%s': %w", file, err)
		}
	}

	vv.Elem().Set(slice)
	return nil
}
