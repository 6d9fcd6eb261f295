package gosharepoint

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// metaCache is a process-wide cache for remote metadata lookups
// (views, list info, list collections, content types). Reads are
// lock-free; concurrent misses on the same key are collapsed into one
// remote lookup per key. Entries live for the process lifetime and are
// refreshed only by a cache-bypass lookup.
type metaCache struct {
	entries sync.Map
	group   singleflight.Group
}

// metaKey identifies one cached lookup. Unused parts stay empty.
type metaKey struct {
	site string
	list string
	name string
}

func (k metaKey) lockID() string {
	return k.site + "|" + k.list + "|" + k.name
}

// get returns the cached value for key, fetching it at most once per
// concurrent group of callers. useCache == false skips the read but
// still refreshes the entry for later readers.
func (c *metaCache) get(key metaKey, useCache bool, fetch func() (interface{}, error)) (interface{}, error) {
	if useCache {
		if v, ok := c.entries.Load(key); ok {
			return v, nil
		}
	}
	v, err, _ := c.group.Do(key.lockID(), fetch)
	if err != nil {
		return nil, err
	}
	c.entries.Store(key, v)
	return v, nil
}

var (
	viewCache           = &metaCache{}
	listInfoCache       = &metaCache{}
	listCollectionCache = &metaCache{}
	contentTypeCache    = &metaCache{}
)
