package storage

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
)

func MockShard() Shard {
	return func(shard string) (Persistence, error) {
		return NewMockStorage(), nil
	}
}

// MockStorage keeps the encoded values in memory.
type MockStorage struct {
	mutex    *sync.RWMutex
	Elements map[Key][]byte
}

func NewMockStorage() *MockStorage {
	return &MockStorage{
		mutex:    new(sync.RWMutex),
		Elements: make(map[Key][]byte),
	}
}

func (m *MockStorage) Store(k Key, value interface{}) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("could not marshal value: %w", err)
	}
	m.Elements[k] = b
	return nil
}

func (m *MockStorage) Load(k Key, value interface{}) error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	b, ok := m.Elements[k]
	if !ok {
		return fmt.Errorf("not found '%v': %w", k, NotFoundErr)
	}
	if err := json.Unmarshal(b, value); err != nil {
		return fmt.Errorf("could not unmarshal '%v': %w", k, CouldNotLoadErr)
	}
	return nil
}

func MockEventRegistry() EventRegistry {
	return func(path string) (Registry, error) {
		return NewMockRegistry(), nil
	}
}

// MockRegistry keeps the events in memory.
type MockRegistry struct {
	mutex  *sync.Mutex
	Events map[K][]interface{}
}

func NewMockRegistry() *MockRegistry {
	return &MockRegistry{
		mutex:  new(sync.Mutex),
		Events: make(map[K][]interface{}),
	}
}

func (m *MockRegistry) Add(key K, value interface{}) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.Events[key] = append(m.Events[key], value)
	return nil
}

// GetAll appends the events of the given key to the given slice pointer.
func (m *MockRegistry) GetAll(key K, values interface{}) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	vv := reflect.Indirect(reflect.ValueOf(values))
	if vv.Kind() != reflect.Slice {
		return fmt.Errorf("only accepting slices as placeholder for the results")
	}
	for _, ev := range m.Events[key] {
		vv.Set(reflect.Append(vv, reflect.ValueOf(ev)))
	}
	return nil
}
