package common

import (
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
)

type Cache struct {
	*cache.Cache
}

func NewCache(expirationTime, cleanupTime time.Duration) *Cache {
	return &Cache{cache.New(expirationTime, cleanupTime)}
}

func (c *Cache) Set(key string, value interface{}, expiration ...time.Duration) {
	if len(expiration) > 0 {
		c.Cache.Set(key, value, expiration[0])
		return
	}
	c.Cache.Set(key, value, cache.DefaultExpiration)
}

func (c *Cache) Get(key string) (interface{}, bool) {
	return c.Cache.Get(key)
}

func (c *Cache) Flush() {
	c.Cache.Flush()
}

// CacheKeyDocument keys a single document of a kind by its lookup field and value.
func CacheKeyDocument(kind, field, value string) string {
	return kind + ":" + field + ":" + value
}

func CacheKeyPage(kind string, page, limit int) string {
	return kind + ":page:" + strconv.Itoa(page) + ":" + strconv.Itoa(limit)
}
