package data

import (
	"bufio"
	"context"
	"fmt"
	"os"
)

// Parallelize splits the given records into the given number of contiguous partitions.
func Parallelize[T any](engine *Engine, records []T, n int) *Dataset[T] {
	n = partitions(n)
	return &Dataset[T]{
		engine:     engine,
		name:       "parallelize",
		partitions: n,
		plan: func(ctx context.Context) (partition[T], error) {
			return slicePartition(records, n), nil
		},
	}
}

// Source creates a dataset of size records, each one generated lazily from its index.
// Records are generated again on every action.
func Source[T any](engine *Engine, size int, gen func(i int) (T, error), n int) *Dataset[T] {
	n = partitions(n)
	return &Dataset[T]{
		engine:     engine,
		name:       "source",
		partitions: n,
		plan: func(ctx context.Context) (partition[T], error) {
			return func(ctx context.Context, p int, yield func(T) error) error {
				from, to := bounds(p, n, size)
				for i := from; i < to; i++ {
					if err := ctx.Err(); err != nil {
						return err
					}
					t, err := gen(i)
					if err != nil {
						return fmt.Errorf("could not generate record %d: %w", i, err)
					}
					if err := yield(t); err != nil {
						return err
					}
				}
				return nil
			}, nil
		},
	}
}

// TextFile creates a dataset of the lines of the given file.
// The file is read when an action is executed.
func TextFile(engine *Engine, path string, n int) *Dataset[string] {
	n = partitions(n)
	return &Dataset[string]{
		engine:     engine,
		name:       fmt.Sprintf("text[%s]", path),
		partitions: n,
		plan: func(ctx context.Context) (partition[string], error) {
			f, err := os.Open(path)
			if err != nil {
				return nil, fmt.Errorf("could not open file '%s': %w", path, err)
			}
			defer f.Close()
			lines := make([]string, 0)
			scanner := bufio.NewScanner(f)
			for scanner.Scan() {
				lines = append(lines, scanner.Text())
			}
			if err := scanner.Err(); err != nil {
				return nil, fmt.Errorf("could not read file '%s': %w", path, err)
			}
			return slicePartition(lines, n), nil
		},
	}
}

// Cache materializes the dataset, keeping its partitioning,
// so that subsequent actions do not recompute the upstream transformations.
func (ds *Dataset[T]) Cache(ctx context.Context) (*Dataset[T], error) {
	parts, err := collectPartitions(ctx, ds, "cache")
	if err != nil {
		return nil, err
	}
	return &Dataset[T]{
		engine:     ds.engine,
		name:       ds.name + ".cache",
		partitions: ds.partitions,
		plan: func(ctx context.Context) (partition[T], error) {
			return func(ctx context.Context, p int, yield func(T) error) error {
				return yieldAll(ctx, parts[p], yield)
			}, nil
		},
	}, nil
}

func slicePartition[T any](records []T, n int) partition[T] {
	return func(ctx context.Context, p int, yield func(T) error) error {
		from, to := bounds(p, n, len(records))
		return yieldAll(ctx, records[from:to], yield)
	}
}

func yieldAll[T any](ctx context.Context, records []T, yield func(T) error) error {
	for _, t := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := yield(t); err != nil {
			return err
		}
	}
	return nil
}
