// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package cache

import (
	"slices"
	"sync"
	"time"
)

type memEntry struct {
	namespace string
	data      []byte
	expiresAt time.Time
}

// memoryTier is the bounded in-process map. It is always a hydration of
// shared-tier data, never the source of truth.
type memoryTier struct {
	mu         sync.RWMutex
	entries    map[string]memEntry
	maxEntries int
}

func newMemoryTier(maxEntries int) *memoryTier {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &memoryTier{
		entries:    make(map[string]memEntry),
		maxEntries: maxEntries,
	}
}

// get returns the value and its expiry. Expired entries are removed.
func (m *memoryTier) get(key string, now time.Time) ([]byte, time.Time, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, time.Time{}, false
	}
	if !now.Before(e.expiresAt) {
		m.mu.Lock()
		if cur, ok := m.entries[key]; ok && !now.Before(cur.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, time.Time{}, false
	}
	return e.data, e.expiresAt, true
}

// set stores the entry and returns how many entries were evicted to make
// room.
func (m *memoryTier) set(key, namespace string, data []byte, expiresAt time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		evicted = m.evictLocked()
	}
	m.entries[key] = memEntry{namespace: namespace, data: data, expiresAt: expiresAt}
	return evicted
}

// evictLocked drops the quarter of entries closest to expiry (at least
// one). Expiry order stands in for recency; access order is not tracked.
func (m *memoryTier) evictLocked() int {
	type candidate struct {
		key       string
		expiresAt time.Time
	}
	all := make([]candidate, 0, len(m.entries))
	for k, e := range m.entries {
		all = append(all, candidate{k, e.expiresAt})
	}
	slices.SortFunc(all, func(a, b candidate) int { return a.expiresAt.Compare(b.expiresAt) })

	n := len(all) / 4
	if n < 1 {
		n = 1
	}
	for _, c := range all[:n] {
		delete(m.entries, c.key)
	}
	return n
}

func (m *memoryTier) delete(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

func (m *memoryTier) clearNamespace(namespace string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, e := range m.entries {
		if e.namespace == namespace {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

func (m *memoryTier) clearAll() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.entries)
	m.entries = make(map[string]memEntry)
	return n
}

// cleanup removes expired entries.
func (m *memoryTier) cleanup(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

func (m *memoryTier) len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
