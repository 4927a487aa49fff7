package spdxer

import (
	"context"
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentProcessorAdd(t *testing.T) {
	fs := afero.NewMemMapFs()
	const fileCount = 50
	for i := 0; i < fileCount; i++ {
		path := fmt.Sprintf("/src/file-%02d.py", i)
		require.NoError(t, afero.WriteFile(fs, path, []byte("pass\n"), 0644))
	}

	p := newTestProcessor(t, Config{}, fs)
	cp, err := NewConcurrentProcessor(p, WithWorkerCount(4), WithBufferSize(8))
	require.NoError(t, err)

	report, err := cp.Add(context.Background(), "/src", "MIT", false)
	require.NoError(t, err)

	require.Len(t, report.Results, fileCount)
	for i, res := range report.Results {
		assert.Equal(t, fmt.Sprintf("/src/file-%02d.py", i), res.Path, "results sorted by path")
		assert.Equal(t, ActionAdded, res.Action)
	}
	assert.Equal(t, uint64(fileCount), cp.Stats().FilesProcessed())
	assert.Equal(t, uint64(fileCount), cp.Stats().TotalFiles())

	for i := 0; i < fileCount; i++ {
		got, err := afero.ReadFile(fs, fmt.Sprintf("/src/file-%02d.py", i))
		require.NoError(t, err)
		assert.Equal(t, "# SPDX-License-Identifier: MIT\npass\n", string(got))
	}
}

func TestConcurrentProcessorVerify(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/ok.py",
		[]byte("# SPDX-License-Identifier: MIT\npass\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/src/bare.py", []byte("pass\n"), 0644))

	p := newTestProcessor(t, Config{}, fs)
	cp, err := NewConcurrentProcessor(p)
	require.NoError(t, err)

	report, err := cp.Verify(context.Background(), "/src")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, report.Outcome())
	assert.Equal(t, 1, report.Missing())
}

func TestConcurrentProcessorCanceled(t *testing.T) {
	fs := afero.NewMemMapFs()
	for i := 0; i < 10; i++ {
		require.NoError(t, afero.WriteFile(fs, fmt.Sprintf("/src/f%d.py", i), []byte("pass\n"), 0644))
	}

	p := newTestProcessor(t, Config{}, fs)
	cp, err := NewConcurrentProcessor(p, WithWorkerCount(1))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := cp.Add(ctx, "/src", "MIT", false)
	require.NoError(t, err)

	for _, res := range report.Results {
		assert.Equal(t, ActionFailed, res.Action)
		assert.ErrorIs(t, res.Err, context.Canceled)
	}
}

func TestConcurrentOptions(t *testing.T) {
	p := &Processor{}

	_, err := NewConcurrentProcessor(p, WithWorkerCount(0))
	assert.Error(t, err)

	_, err = NewConcurrentProcessor(p, WithBufferSize(0))
	assert.Error(t, err)

	cp, err := NewConcurrentProcessor(p, WithWorkerCount(2), WithBufferSize(16))
	require.NoError(t, err)
	assert.NotNil(t, cp)
}