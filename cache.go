// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package patches

import (
	"github.com/gomlx/patches/types/xsync"
	"k8s.io/klog/v2"
)

// Cache memoizes built Patches, keyed by the canonical PatchSpec string.
//
// Building a Patch is cheap but not free, and operators typically rebuild the
// same window geometry on every execution; a Cache shared at the operator or
// backend level avoids that. The zero value is ready to use and safe for
// concurrent callers. Use of the cache is opt-in: Build itself never caches.
type Cache struct {
	patches xsync.SyncMap[string, *Patch]
}

// GetOrBuild returns the cached Patch for the spec, building and storing it
// on a miss. Concurrent callers with the same spec may race to build; the
// first stored Patch wins and duplicates are discarded, so the returned
// pointer is stable per spec.
func (c *Cache) GetOrBuild(spec PatchSpec) (*Patch, error) {
	key := spec.String()
	if p, ok := c.patches.Load(key); ok {
		return p, nil
	}
	klog.V(1).Infof("patches.Cache: building patch for %s", key)
	p, err := spec.Build()
	if err != nil {
		return nil, err
	}
	actual, _ := c.patches.LoadOrStore(key, p)
	return actual, nil
}

// Len returns the number of cached Patches.
func (c *Cache) Len() int {
	count := 0
	c.patches.Range(func(_ string, _ *Patch) bool {
		count++
		return true
	})
	return count
}

// Reset drops every cached Patch.
func (c *Cache) Reset() {
	c.patches.Range(func(key string, _ *Patch) bool {
		c.patches.Delete(key)
		return true
	})
}
