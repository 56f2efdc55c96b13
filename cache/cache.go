package cache

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// The cache is a package for large, immutable objects that are expensive to
// build and worth sharing between requests: lexicons, feedback tables and
// the solver runners built on them. Keys are chosen by the caller; word
// list fingerprints make good ones.

type cache struct {
	sync.Mutex
	objects map[string]any
}

type loadFunc func(key string) (any, error)

// GlobalObjectCache is our global object cache, of course.
var GlobalObjectCache *cache

func (c *cache) load(key string, loadFunc loadFunc) error {
	log.Debug().Str("key", key).Msg("loading-into-cache")

	obj, err := loadFunc(key)
	if err != nil {
		return err
	}
	c.objects[key] = obj

	return nil
}

func (c *cache) get(key string, loadFunc loadFunc) (any, error) {
	c.Lock()
	defer c.Unlock()
	if obj, ok := c.objects[key]; ok {
		log.Debug().Str("key", key).Msg("getting-obj-from-cache")
		return obj, nil
	}
	if err := c.load(key, loadFunc); err != nil {
		return nil, err
	}
	return c.objects[key], nil
}

func (c *cache) evict(key string) {
	c.Lock()
	defer c.Unlock()
	delete(c.objects, key)
}

func CreateGlobalObjectCache() {
	GlobalObjectCache = &cache{objects: make(map[string]any)}
}

var createOnce sync.Once

func global() *cache {
	createOnce.Do(func() {
		if GlobalObjectCache == nil {
			CreateGlobalObjectCache()
		}
	})
	return GlobalObjectCache
}

// Load returns the object under name, calling loadFunc to build it the
// first time.
func Load(name string, loadFunc loadFunc) (any, error) {
	return global().get(name, loadFunc)
}

// Get is Load with the type asserted.
func Get[T any](name string, load func(key string) (T, error)) (T, error) {
	obj, err := Load(name, func(key string) (any, error) { return load(key) })
	if err != nil {
		var zero T
		return zero, err
	}
	t, ok := obj.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cached object %q has type %T", name, obj)
	}
	return t, nil
}

// Evict forgets name so the next Load rebuilds it.
func Evict(name string) {
	global().evict(name)
}
