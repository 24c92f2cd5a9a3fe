package data

import (
	"context"

	"github.com/drakos74/free-ml/internal/math/random"
)

// Collect returns all records of the dataset, in partition order.
func (ds *Dataset[T]) Collect(ctx context.Context) ([]T, error) {
	parts, err := collectPartitions(ctx, ds, "collect")
	if err != nil {
		return nil, err
	}
	return flatten(parts), nil
}

// Each pushes every record of the dataset to the given consumer, in partition order.
// It produces exactly the same records as Collect, without keeping them on the caller side.
// An error returned by the consumer stops the iteration and is returned.
func (ds *Dataset[T]) Each(ctx context.Context, consume func(t T) error) error {
	parts, err := collectPartitions(ctx, ds, "each")
	if err != nil {
		return err
	}
	for _, part := range parts {
		if err := yieldAll(ctx, part, consume); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of records in the dataset.
func (ds *Dataset[T]) Count(ctx context.Context) (int, error) {
	counts := make([]int, ds.partitions)
	err := execute(ctx, ds, "count", func(p int, t T) error {
		counts[p]++
		return nil
	})
	if err != nil {
		return 0, err
	}
	var c int
	for _, n := range counts {
		c += n
	}
	return c, nil
}

// TakeSample returns count records sampled from the dataset.
// The sample is fully determined by the seed.
// Without replacement, at most all the records of the dataset are returned.
func (ds *Dataset[T]) TakeSample(ctx context.Context, withReplacement bool, count int, seed int64) ([]T, error) {
	parts, err := collectPartitions(ctx, ds, "takeSample")
	if err != nil {
		return nil, err
	}
	records := flatten(parts)
	n := len(records)
	if count <= 0 || n == 0 {
		return []T{}, nil
	}
	rng := random.New(seed)
	if withReplacement {
		sample := make([]T, count)
		for i := range sample {
			sample[i] = records[index(rng, n)]
		}
		return sample, nil
	}
	if count > n {
		count = n
	}
	// partial fisher-yates shuffle
	for i := 0; i < count; i++ {
		j := i + index(rng, n-i)
		records[i], records[j] = records[j], records[i]
	}
	return records[:count], nil
}

// Aggregate folds all records of the dataset.
// Every partition is folded with seq starting from a fresh zero value,
// the partial results are then combined in partition order with comb, starting again from a zero value.
func Aggregate[T, A any](ctx context.Context, ds *Dataset[T], zero func() A, seq func(acc A, t T) A, comb func(acc A, a A) A) (A, error) {
	return aggregate(ctx, ds, "aggregate", zero, seq, comb)
}

// Reduce folds all records of the dataset with fn, which is used both within and across partitions.
func Reduce[T any](ctx context.Context, ds *Dataset[T], fn func(acc T, t T) T, zero func() T) (T, error) {
	return aggregate(ctx, ds, "reduce", zero, fn, fn)
}

// CollectAsMap returns the keyed records of the dataset as a map.
// If a key appears more than once, the last one in partition order wins.
func CollectAsMap[K comparable, V any](ctx context.Context, ds *Dataset[Pair[K, V]]) (map[K]V, error) {
	parts, err := collectPartitions(ctx, ds, "collectAsMap")
	if err != nil {
		return nil, err
	}
	m := make(map[K]V)
	for _, part := range parts {
		for _, kv := range part {
			m[kv.Key] = kv.Value
		}
	}
	return m, nil
}

func aggregate[T, A any](ctx context.Context, ds *Dataset[T], action string, zero func() A, seq func(A, T) A, comb func(A, A) A) (A, error) {
	partials := make([]A, ds.partitions)
	for p := range partials {
		partials[p] = zero()
	}
	err := execute(ctx, ds, action, func(p int, t T) error {
		partials[p] = seq(partials[p], t)
		return nil
	})
	if err != nil {
		var a A
		return a, err
	}
	acc := zero()
	for _, partial := range partials {
		acc = comb(acc, partial)
	}
	return acc, nil
}

func collectPartitions[T any](ctx context.Context, ds *Dataset[T], action string) ([][]T, error) {
	parts := make([][]T, ds.partitions)
	err := execute(ctx, ds, action, func(p int, t T) error {
		parts[p] = append(parts[p], t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return parts, nil
}

func flatten[T any](parts [][]T) []T {
	var size int
	for _, part := range parts {
		size += len(part)
	}
	records := make([]T, 0, size)
	for _, part := range parts {
		records = append(records, part...)
	}
	return records
}

func index(rng *random.Random, n int) int {
	i := int(rng.NextDouble() * float64(n))
	if i >= n {
		return n - 1
	}
	if i < 0 {
		return 0
	}
	return i
}
