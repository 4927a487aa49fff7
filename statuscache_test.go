package spdxer

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCache(t *testing.T) {
	fs := afero.NewMemMapFs()
	cache, err := NewStatusCache(".spdxer_test.cache", fs)
	require.NoError(t, err)

	testFile := "script.py"
	require.NoError(t, afero.WriteFile(fs, testFile, []byte("# SPDX-License-Identifier: MIT\nbody\n"), 0644))

	t.Run("miss before put", func(t *testing.T) {
		_, err := cache.Get(testFile)
		assert.ErrorIs(t, err, ErrStatusNotFound)
	})

	t.Run("put then get", func(t *testing.T) {
		require.NoError(t, cache.Put(testFile, HeaderStatus{HasHeader: true, License: "MIT"}))

		got, err := cache.Get(testFile)
		require.NoError(t, err)
		assert.True(t, got.HasHeader)
		assert.Equal(t, "MIT", got.License)
		assert.True(t, got.Cached, "a served entry is marked as cached")
	})

	t.Run("content change invalidates the entry", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, testFile, []byte("body only\n"), 0644))

		_, err := cache.Get(testFile)
		assert.ErrorIs(t, err, ErrStatusNotFound)
	})

	t.Run("headerless status round-trips", func(t *testing.T) {
		require.NoError(t, cache.Put(testFile, HeaderStatus{HasHeader: false}))

		got, err := cache.Get(testFile)
		require.NoError(t, err)
		assert.False(t, got.HasHeader)
		assert.Empty(t, got.License)
	})
}

func TestHeaderStatusCodec(t *testing.T) {
	tests := map[string]HeaderStatus{
		"with license":    {HasHeader: true, License: "Apache-2.0"},
		"without header":  {HasHeader: false},
		"empty license":   {HasHeader: true},
		"long identifier": {HasHeader: true, License: "AGPL-3.0-or-later"},
	}

	for name, status := range tests {
		t.Run(name, func(t *testing.T) {
			data := marshalHeaderStatus(status)
			assert.Len(t, data, headerStatusSize(status))

			got, err := unmarshalHeaderStatus(data)
			require.NoError(t, err)
			assert.Equal(t, status, got)
		})
	}
}

func TestHeaderStatusCodecCorrupt(t *testing.T) {
	data := marshalHeaderStatus(HeaderStatus{HasHeader: true, License: "MIT"})

	t.Run("truncated buffer", func(t *testing.T) {
		_, err := unmarshalHeaderStatus(data[:len(data)-1])
		assert.Error(t, err)
	})

	t.Run("empty buffer", func(t *testing.T) {
		_, err := unmarshalHeaderStatus(nil)
		assert.Error(t, err)
	})
}