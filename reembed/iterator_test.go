package reembed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagIterator_Batches(t *testing.T) {
	tags := []string{"a", "b", "c", "d", "e", "f", "g"}
	it := NewTagIterator(tags, 3)
	assert.Equal(t, 7, it.Len())

	var offsets []int
	var batches [][]string
	err := it.ForEach(context.Background(), func(offset int, batch []string) error {
		offsets = append(offsets, offset)
		batches = append(batches, batch)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 3, 6}, offsets)
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"d", "e", "f"}, {"g"}}, batches)
}

func TestTagIterator_DefaultBatchSize(t *testing.T) {
	tags := make([]string, DefaultBatchSize+1)
	it := NewTagIterator(tags, 0)

	calls := 0
	require.NoError(t, it.ForEach(context.Background(), func(int, []string) error {
		calls++
		return nil
	}))
	assert.Equal(t, 2, calls)
}

func TestTagIterator_Empty(t *testing.T) {
	it := NewTagIterator(nil, 10)
	called := false
	require.NoError(t, it.ForEach(context.Background(), func(int, []string) error {
		called = true
		return nil
	}))
	assert.False(t, called)
}

func TestTagIterator_StopsOnError(t *testing.T) {
	it := NewTagIterator([]string{"a", "b", "c"}, 1)
	boom := errors.New("boom")

	calls := 0
	err := it.ForEach(context.Background(), func(int, []string) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestTagIterator_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	it := NewTagIterator([]string{"a", "b", "c"}, 1)

	calls := 0
	err := it.ForEach(ctx, func(int, []string) error {
		calls++
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
