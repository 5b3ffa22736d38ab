package harness

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazy_InitializesOnce(t *testing.T) {
	var (
		lazy  Lazy[*int]
		calls atomic.Int32
		wg    sync.WaitGroup
	)

	_, ok := lazy.Loaded()
	assert.False(t, ok)

	results := make([]*int, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := lazy.Get(func() (*int, error) {
				calls.Add(1)
				n := 7
				return &n, nil
			})
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Same(t, results[0], v)
	}

	loaded, ok := lazy.Loaded()
	require.True(t, ok)
	assert.Same(t, results[0], loaded)
}

func TestLazy_CachesError(t *testing.T) {
	var lazy Lazy[string]
	boom := errors.New("boom")

	_, err := lazy.Get(func() (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)

	_, err = lazy.Get(func() (string, error) { return "late", nil })
	assert.ErrorIs(t, err, boom, "initialization runs once")

	_, ok := lazy.Loaded()
	assert.False(t, ok)
}
