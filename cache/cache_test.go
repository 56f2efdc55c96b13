package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/matryer/is"
)

func TestLoadOnce(t *testing.T) {
	is := is.New(t)
	var calls atomic.Int32
	load := func(key string) (int, error) {
		calls.Add(1)
		return len(key), nil
	}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := Get("test-load-once", load)
			is.NoErr(err)
			is.Equal(v, 14)
		}()
	}
	wg.Wait()
	is.Equal(calls.Load(), int32(1))

	Evict("test-load-once")
	_, err := Get("test-load-once", load)
	is.NoErr(err)
	is.Equal(calls.Load(), int32(2))
}

func TestLoadError(t *testing.T) {
	is := is.New(t)
	boom := errors.New("boom")
	_, err := Get("test-error", func(string) (string, error) { return "", boom })
	is.True(errors.Is(err, boom))
	v, err := Get("test-error", func(string) (string, error) { return "ok", nil })
	is.NoErr(err)
	is.Equal(v, "ok")
}

func TestWrongType(t *testing.T) {
	is := is.New(t)
	_, err := Get("test-type", func(string) (int, error) { return 1, nil })
	is.NoErr(err)
	_, err = Get("test-type", func(string) (string, error) { return "x", nil })
	is.True(err != nil)
}
