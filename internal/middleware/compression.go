// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package middleware

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// compressionMinSize leaves small bodies such as health checks untouched.
const compressionMinSize = 1024

// Compression gzips responses of at least 1KB for clients that accept it.
func Compression() func(http.Handler) http.Handler {
	wrap, err := gzhttp.NewWrapper(gzhttp.MinSize(compressionMinSize))
	if err != nil {
		// Only reachable with invalid static options.
		panic(err)
	}
	return func(next http.Handler) http.Handler {
		return wrap(next)
	}
}
