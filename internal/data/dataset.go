package data

import (
	"context"
	"fmt"
)

// partition computes the records of the p-th partition, yielding them one by one.
type partition[T any] func(ctx context.Context, p int, yield func(T) error) error

// Dataset is a lazy partitioned collection of records.
type Dataset[T any] struct {
	engine     *Engine
	name       string
	partitions int
	// plan prepares the computation of the partitions.
	// It runs once per action, so any shuffle stage happens here.
	plan func(ctx context.Context) (partition[T], error)
}

// Name returns the name of the dataset.
func (ds *Dataset[T]) Name() string {
	return ds.name
}

// Partitions returns the number of partitions.
func (ds *Dataset[T]) Partitions() int {
	return ds.partitions
}

// Engine returns the engine the dataset is executed on.
func (ds *Dataset[T]) Engine() *Engine {
	return ds.engine
}

// Pair is a keyed record.
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// NewPair creates a new keyed record.
func NewPair[K comparable, V any](k K, v V) Pair[K, V] {
	return Pair[K, V]{
		Key:   k,
		Value: v,
	}
}

func (p Pair[K, V]) String() string {
	return fmt.Sprintf("(%v,%v)", p.Key, p.Value)
}

// bounds returns the range of the p-th out of n partitions over size elements.
func bounds(p, n, size int) (int, int) {
	return p * size / n, (p + 1) * size / n
}

func partitions(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
