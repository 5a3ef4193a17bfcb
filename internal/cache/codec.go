// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package cache

import (
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
)

// envelope is what the shared tier stores. Carrying the absolute expiry
// lets a hydrated in-process entry expire at the same instant.
type envelope struct {
	Namespace string `json:"ns"`
	ExpiresAt int64  `json:"exp"`
	Value     []byte `json:"v"`
}

var (
	codecOnce sync.Once
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	codecErr  error
)

// EncodeAll and DecodeAll are safe for concurrent use, so one of each is
// shared by the process.
func initCodec() {
	encoder, codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if codecErr != nil {
		return
	}
	decoder, codecErr = zstd.NewReader(nil,
		zstd.WithDecoderLowmem(true),
		zstd.WithDecoderMaxMemory(32<<20),
	)
}

func encodeEnvelope(namespace string, value []byte, expiresAt time.Time) (string, error) {
	codecOnce.Do(initCodec)
	if codecErr != nil {
		return "", codecErr
	}
	raw, err := json.Marshal(envelope{Namespace: namespace, ExpiresAt: expiresAt.UnixNano(), Value: value})
	if err != nil {
		return "", fmt.Errorf("marshal cache envelope: %w", err)
	}
	compressed := encoder.EncodeAll(raw, make([]byte, 0, len(raw)/2))
	return base64.StdEncoding.EncodeToString(compressed), nil
}

func decodeEnvelope(s string) (envelope, error) {
	codecOnce.Do(initCodec)
	var env envelope
	if codecErr != nil {
		return env, codecErr
	}
	compressed, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return env, fmt.Errorf("decode cache base64: %w", err)
	}
	raw, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return env, fmt.Errorf("decompress cache value: %w", err)
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, fmt.Errorf("unmarshal cache envelope: %w", err)
	}
	return env, nil
}
