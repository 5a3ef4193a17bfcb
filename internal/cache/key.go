// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package cache

import (
	"fmt"
	"net/url"

	"github.com/goccy/go-json"
	"github.com/zeebo/xxh3"
)

// DeriveKey hashes namespace:key into a fixed-width slot identifier.
func DeriveKey(namespace, key string) string {
	h := xxh3.HashString128(namespace + ":" + key)
	return fmt.Sprintf("%016x%016x", h.Hi, h.Lo)
}

// LogicalKey builds a stable logical key from an operation and its
// parameters. Struct fields marshal in declaration order and map keys are
// sorted, so equal parameters always yield the same key.
func LogicalKey(op string, params any) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%v", op, params)
	}
	return op + ":" + string(data)
}

// storageKey is the key used in both tiers. The namespace is escaped so a
// namespace prefix scan never matches a different namespace.
func storageKey(namespace, key string) string {
	return namespaceKey(namespace) + DeriveKey(namespace, key)
}

func namespaceKey(namespace string) string {
	return url.QueryEscape(namespace) + ":"
}
