package crypto

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultKeyCacheSize bounds the number of parsed relay keys kept in memory.
const DefaultKeyCacheSize = 256

// KeyCache memoizes ImportPublicKey for registry-supplied key strings.
type KeyCache struct {
	cache *lru.Cache[string, *PublicKey]
}

// NewKeyCache creates a cache holding up to size parsed keys.
func NewKeyCache(size int) (*KeyCache, error) {
	if size <= 0 {
		size = DefaultKeyCacheSize
	}
	cache, err := lru.New[string, *PublicKey](size)
	if err != nil {
		return nil, err
	}
	return &KeyCache{cache: cache}, nil
}

// Import returns the parsed key for encoded, parsing it on a miss.
// Parse failures are not cached.
func (c *KeyCache) Import(encoded string) (*PublicKey, error) {
	if key, ok := c.cache.Get(encoded); ok {
		return key, nil
	}
	key, err := ImportPublicKey(encoded)
	if err != nil {
		return nil, err
	}
	c.cache.Add(encoded, key)
	return key, nil
}

// Len returns the number of cached keys.
func (c *KeyCache) Len() int {
	return c.cache.Len()
}
