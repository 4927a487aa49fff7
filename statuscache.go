package spdxer

import (
	"errors"
	"fmt"

	"github.com/gophersatwork/granular"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/spf13/afero"
)

// HeaderStatus is the cached verification result for one file.
type HeaderStatus struct {
	HasHeader bool
	License   string
	Cached    bool
}

var (
	// ErrStatusNotFound is returned when a file has no cached status.
	ErrStatusNotFound = errors.New("status entry not found")
	// ErrReadingCachedStatus is returned when a cached status fails to decode.
	ErrReadingCachedStatus = errors.New("cached status is invalid")
)

// StatusCache stores per-file header status keyed by file content, so
// repeated verify runs skip files that have not changed since the last run.
// Entries are MUS-encoded with varint lengths for compact storage.
type StatusCache struct {
	gCache *granular.Cache
	fs     afero.Fs
}

// NewStatusCache creates a content-keyed status cache rooted at path.
func NewStatusCache(path string, fs afero.Fs) (*StatusCache, error) {
	opts := []granular.Option{}
	if fs != nil {
		opts = append(opts, granular.WithFs(fs))
	}

	cache, err := granular.New(path, opts...)
	if err != nil {
		return nil, NewCacheError("failed to create status cache", err)
	}

	return &StatusCache{gCache: cache, fs: fs}, nil
}

// Put stores the header status for a file. The cache key includes the file's
// content, so a later edit invalidates the entry automatically.
func (c *StatusCache) Put(path string, status HeaderStatus) error {
	key := granular.Key{
		Inputs: []granular.Input{granular.FileInput{
			Path: NormalizePath(path),
			Fs:   c.fs,
		}},
	}

	data := marshalHeaderStatus(status)
	res := granular.Result{
		Metadata: map[string]string{"status": string(data)},
	}

	if err := c.gCache.Store(key, res); err != nil {
		return NewCacheError("failed to store status", err).WithFile(path)
	}
	return nil
}

// Get returns the cached status for a file, or ErrStatusNotFound when the
// file is absent or has changed since the entry was stored.
func (c *StatusCache) Get(path string) (HeaderStatus, error) {
	key := granular.Key{
		Inputs: []granular.Input{granular.FileInput{
			Path: NormalizePath(path),
			Fs:   c.fs,
		}},
	}

	result, found, _ := c.gCache.Get(key)
	if !found {
		return HeaderStatus{}, ErrStatusNotFound
	}

	encoded, ok := result.Metadata["status"]
	if !ok {
		return HeaderStatus{}, ErrStatusNotFound
	}

	status, err := unmarshalHeaderStatus([]byte(encoded))
	if err != nil {
		return HeaderStatus{}, fmt.Errorf("%w: %v", ErrReadingCachedStatus, err)
	}
	status.Cached = true
	return status, nil
}

func headerStatusSize(s HeaderStatus) int {
	size := ord.Bool.Size(s.HasHeader)
	size += ord.SizeString(s.License, varint.PositiveInt)
	return size
}

func marshalHeaderStatus(s HeaderStatus) []byte {
	buf := make([]byte, headerStatusSize(s))
	n := ord.Bool.Marshal(s.HasHeader, buf)
	n += ord.MarshalString(s.License, varint.PositiveInt, buf[n:])
	return buf[:n]
}

func unmarshalHeaderStatus(buf []byte) (HeaderStatus, error) {
	var s HeaderStatus

	hasHeader, n, err := ord.Bool.Unmarshal(buf)
	if err != nil {
		return s, fmt.Errorf("failed to unmarshal HasHeader: %w", err)
	}
	s.HasHeader = hasHeader

	length, m, err := varint.PositiveInt.Unmarshal(buf[n:])
	if err != nil {
		return s, fmt.Errorf("failed to read license length: %w", err)
	}
	n += m
	if len(buf[n:]) < length {
		return s, fmt.Errorf("buffer too small for license of length %d", length)
	}
	s.License = string(buf[n : n+length])

	return s, nil
}
