package spdxer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	cause := errors.New("permission denied")
	err := NewFSError("failed reading file", cause).
		WithFile("/src/a.py").
		WithDetails("check file permissions")

	assert.Contains(t, err.Error(), "[filesystem]")
	assert.Contains(t, err.Error(), "permission denied")
	assert.ErrorIs(t, err, cause)

	info, ok := GetErrorInfo(err)
	require.True(t, ok)
	assert.Equal(t, ErrorTypeFS, info.Type)
	assert.Equal(t, "/src/a.py", info.File)
	assert.Equal(t, "check file permissions", info.Details)
}

func TestGetErrorInfoWrapped(t *testing.T) {
	inner := NewCacheError("failed to store status", errors.New("disk full"))
	wrapped := fmt.Errorf("batch run: %w", inner)

	info, ok := GetErrorInfo(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrorTypeCache, info.Type)

	_, ok = GetErrorInfo(errors.New("plain"))
	assert.False(t, ok)
}

func TestLicenseNotFoundErrorMessage(t *testing.T) {
	withSuggestions := &LicenseNotFoundError{ID: "MIT0", Suggestions: []string{"MIT-0", "MIT"}}
	assert.Contains(t, withSuggestions.Error(), `"MIT0"`)
	assert.Contains(t, withSuggestions.Error(), "did you mean: MIT-0, MIT")

	bare := &LicenseNotFoundError{ID: "XYZ"}
	assert.NotContains(t, bare.Error(), "did you mean")
}

func TestEncodingErrorMessage(t *testing.T) {
	err := &EncodingError{File: "/blob", Attempted: []string{"utf-8", "latin-1"}}
	assert.Contains(t, err.Error(), "/blob")
	assert.Contains(t, err.Error(), "utf-8, latin-1")
}