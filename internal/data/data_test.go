package data

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbers(n int) []int {
	nn := make([]int, n)
	for i := range nn {
		nn[i] = i
	}
	return nn
}

func TestParallelize_Collect(t *testing.T) {

	type test struct {
		records    []int
		partitions int
	}

	tests := map[string]test{
		"empty": {
			records:    []int{},
			partitions: 3,
		},
		"single-partition": {
			records:    numbers(10),
			partitions: 1,
		},
		"more-partitions-than-records": {
			records:    numbers(3),
			partitions: 5,
		},
		"uneven": {
			records:    numbers(101),
			partitions: 4,
		},
		"zero-partitions": {
			records:    numbers(7),
			partitions: 0,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ds := Parallelize(NewEngine(name), tt.records, tt.partitions)
			records, err := ds.Collect(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.records, records)

			count, err := ds.Count(context.Background())
			require.NoError(t, err)
			assert.Equal(t, len(tt.records), count)
		})
	}
}

func TestEach_MatchesCollect(t *testing.T) {
	ds := Parallelize(NewEngine("each"), numbers(50), 4)

	collected, err := ds.Collect(context.Background())
	require.NoError(t, err)

	pushed := make([]int, 0)
	err = ds.Each(context.Background(), func(i int) error {
		pushed = append(pushed, i)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, collected, pushed)
}

func TestEach_Error(t *testing.T) {
	ds := Parallelize(NewEngine("each"), numbers(10), 2)
	stop := errors.New("stop")
	var seen int
	err := ds.Each(context.Background(), func(i int) error {
		seen++
		if i == 3 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 4, seen)
}

func TestMap(t *testing.T) {
	ds := Parallelize(NewEngine("map").WithParallelism(2), numbers(20), 3)
	squares := Map(ds, func(i int, offset int) (int, error) {
		return i*i + offset, nil
	}, 1)

	records, err := squares.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 20)
	for i, r := range records {
		assert.Equal(t, i*i+1, r)
	}
	assert.Equal(t, 3, squares.Partitions())
}

func TestMap_Error(t *testing.T) {
	failure := errors.New("map failure")
	ds := Map(Parallelize(NewEngine("map"), numbers(20), 4), func(i int, _ struct{}) (int, error) {
		if i == 13 {
			return 0, failure
		}
		return i, nil
	}, struct{}{})

	_, err := ds.Collect(context.Background())
	assert.ErrorIs(t, err, failure)

	_, err = Reduce(context.Background(), ds, func(a, b int) int {
		return a + b
	}, func() int {
		return 0
	})
	assert.ErrorIs(t, err, failure)
}

func TestReduce(t *testing.T) {

	type test struct {
		records    []int
		partitions int
		sum        int
	}

	tests := map[string]test{
		"empty": {
			records:    []int{},
			partitions: 2,
			sum:        0,
		},
		"one": {
			records:    []int{5},
			partitions: 3,
			sum:        5,
		},
		"many": {
			records:    numbers(100),
			partitions: 7,
			sum:        4950,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ds := Parallelize(NewEngine(name), tt.records, tt.partitions)
			sum, err := Reduce(context.Background(), ds, func(a, b int) int {
				return a + b
			}, func() int {
				return 0
			})
			require.NoError(t, err)
			assert.Equal(t, tt.sum, sum)
		})
	}
}

func TestReduce_VectorIdentityNotAliased(t *testing.T) {
	ds := Parallelize(NewEngine("vector"), [][]float64{{1, 2}, {3, 4}, {5, 6}}, 3)
	sum := func(acc, v []float64) []float64 {
		for i := range acc {
			acc[i] += v[i]
		}
		return acc
	}
	zero := func() []float64 {
		return make([]float64, 2)
	}
	for i := 0; i < 3; i++ {
		v, err := Reduce(context.Background(), ds, sum, zero)
		require.NoError(t, err)
		assert.Equal(t, []float64{9, 12}, v)
	}
}

func TestAggregate(t *testing.T) {
	words := Parallelize(NewEngine("aggregate"), []string{"a", "bb", "ccc", "dddd"}, 2)
	length, err := Aggregate(context.Background(), words, func() int {
		return 0
	}, func(acc int, s string) int {
		return acc + len(s)
	}, func(acc int, a int) int {
		return acc + a
	})
	require.NoError(t, err)
	assert.Equal(t, 10, length)
}

func TestReduceByKey(t *testing.T) {
	engine := NewEngine("reduce-by-key")
	pairs := Map(Parallelize(engine, numbers(100), 4), func(i int, k int) (Pair[int, int], error) {
		return NewPair(i%k, 1), nil
	}, 3)

	grouped := ReduceByKey(pairs, func(acc int, v int) int {
		return acc + v
	}, func() int {
		return 0
	})

	m, err := CollectAsMap(context.Background(), grouped)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{0: 34, 1: 33, 2: 33}, m)

	count, err := grouped.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestReduceByKey_Deterministic(t *testing.T) {
	engine := NewEngine("reduce-by-key")
	words := Parallelize(engine, []string{"x", "y", "z", "x", "y", "x", "w"}, 3)
	pairs := Map(words, func(w string, _ interface{}) (Pair[string, int], error) {
		return NewPair(w, 1), nil
	}, nil)
	grouped := ReduceByKey(pairs, func(acc int, v int) int {
		return acc + v
	}, func() int {
		return 0
	})

	first, err := grouped.Collect(context.Background())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := grouped.Collect(context.Background())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	sort.Slice(first, func(i, j int) bool {
		return first[i].Key < first[j].Key
	})
	assert.Equal(t, "[(w,1) (x,3) (y,2) (z,1)]", fmt.Sprintf("%v", first))
}

func TestTakeSample(t *testing.T) {

	type test struct {
		withReplacement bool
		count           int
		size            int
	}

	tests := map[string]test{
		"without-replacement": {
			count: 5,
			size:  5,
		},
		"without-replacement-capped": {
			count: 50,
			size:  20,
		},
		"with-replacement": {
			withReplacement: true,
			count:           50,
			size:            50,
		},
		"none": {
			count: 0,
			size:  0,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ds := Parallelize(NewEngine(name), numbers(20), 3)
			sample, err := ds.TakeSample(context.Background(), tt.withReplacement, tt.count, 1)
			require.NoError(t, err)
			assert.Len(t, sample, tt.size)

			again, err := ds.TakeSample(context.Background(), tt.withReplacement, tt.count, 1)
			require.NoError(t, err)
			assert.Equal(t, sample, again)

			for _, s := range sample {
				assert.True(t, s >= 0 && s < 20)
			}
			if !tt.withReplacement {
				seen := make(map[int]bool)
				for _, s := range sample {
					assert.False(t, seen[s], "duplicate %d", s)
					seen[s] = true
				}
			}
		})
	}
}

func TestTakeSample_Seed(t *testing.T) {
	ds := Parallelize(NewEngine("sample"), numbers(1000), 4)
	a, err := ds.TakeSample(context.Background(), false, 10, 1)
	require.NoError(t, err)
	b, err := ds.TakeSample(context.Background(), false, 10, 2)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSource(t *testing.T) {
	var calls int
	ds := Source(NewEngine("source").WithParallelism(1), 10, func(i int) (string, error) {
		calls++
		return fmt.Sprintf("record-%d", i), nil
	}, 3)

	records, err := ds.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 10)
	assert.Equal(t, "record-0", records[0])
	assert.Equal(t, "record-9", records[9])
	assert.Equal(t, 10, calls)

	cached, err := ds.Cache(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, calls)
	again, err := cached.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, records, again)
	assert.Equal(t, 20, calls)
}

func TestSource_Error(t *testing.T) {
	failure := errors.New("generator failure")
	ds := Source(NewEngine("source"), 10, func(i int) (int, error) {
		if i == 7 {
			return 0, failure
		}
		return i, nil
	}, 2)
	_, err := ds.Count(context.Background())
	assert.ErrorIs(t, err, failure)
}

func TestTextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	err := os.WriteFile(path, []byte("1 0.5 0.5\n-1 -0.5 0.25\n1 2 3\n"), 0644)
	require.NoError(t, err)

	lines, err := TextFile(NewEngine("text"), path, 2).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1 0.5 0.5", "-1 -0.5 0.25", "1 2 3"}, lines)

	_, err = TextFile(NewEngine("text"), filepath.Join(t.TempDir(), "missing.txt"), 2).Collect(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Parallelize(NewEngine("cancel"), numbers(10), 2).Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
