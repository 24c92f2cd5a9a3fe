package data

import (
	"context"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Map applies fn to every record of the dataset.
// args is passed as is to every invocation, it must be treated as read-only by fn.
// An error returned by fn aborts the action that executes the dataset.
func Map[T, U, A any](ds *Dataset[T], fn func(t T, args A) (U, error), args A) *Dataset[U] {
	return &Dataset[U]{
		engine:     ds.engine,
		name:       ds.name + ".map",
		partitions: ds.partitions,
		plan: func(ctx context.Context) (partition[U], error) {
			parent, err := ds.plan(ctx)
			if err != nil {
				return nil, err
			}
			return func(ctx context.Context, p int, yield func(U) error) error {
				return parent(ctx, p, func(t T) error {
					u, err := fn(t, args)
					if err != nil {
						return err
					}
					return yield(u)
				})
			}, nil
		},
	}
}

// ReduceByKey combines all values with the same key with fn, starting from a fresh zero value for every key.
// fn may modify and return its first argument.
// The output has the same number of partitions, keys are assigned to partitions by their hash.
func ReduceByKey[K comparable, V any](ds *Dataset[Pair[K, V]], fn func(acc V, v V) V, zero func() V) *Dataset[Pair[K, V]] {
	n := ds.partitions
	return &Dataset[Pair[K, V]]{
		engine:     ds.engine,
		name:       ds.name + ".reduceByKey",
		partitions: n,
		plan: func(ctx context.Context) (partition[Pair[K, V]], error) {
			// combine locally within each partition
			combiners := make([]*combiner[K, V], ds.partitions)
			for p := range combiners {
				combiners[p] = newCombiner[K, V]()
			}
			err := execute(ctx, ds, "reduceByKey", func(p int, kv Pair[K, V]) error {
				combiners[p].add(kv.Key, kv.Value, fn, zero)
				return nil
			})
			if err != nil {
				return nil, err
			}
			// shuffle the partial results to their partition
			buckets := make([]*combiner[K, V], n)
			for p := range buckets {
				buckets[p] = newCombiner[K, V]()
			}
			for _, c := range combiners {
				for _, k := range c.keys {
					buckets[hash(k, n)].add(k, c.values[k], fn, zero)
				}
			}
			return func(ctx context.Context, p int, yield func(Pair[K, V]) error) error {
				b := buckets[p]
				for _, k := range b.keys {
					if err := yield(NewPair(k, b.values[k])); err != nil {
						return err
					}
				}
				return nil
			}, nil
		},
	}
}

// combiner accumulates the values per key, remembering the order in which keys were first seen.
type combiner[K comparable, V any] struct {
	keys   []K
	values map[K]V
}

func newCombiner[K comparable, V any]() *combiner[K, V] {
	return &combiner[K, V]{
		keys:   make([]K, 0),
		values: make(map[K]V),
	}
}

func (c *combiner[K, V]) add(k K, v V, fn func(V, V) V, zero func() V) {
	acc, ok := c.values[k]
	if !ok {
		acc = zero()
		c.keys = append(c.keys, k)
	}
	c.values[k] = fn(acc, v)
}

func hash(k interface{}, n int) int {
	return int(xxhash.Sum64String(fmt.Sprint(k)) % uint64(n))
}
