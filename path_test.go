package spdxer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	tests := map[string]struct {
		path string
		want string
	}{
		"empty":          {"", ""},
		"already clean":  {"/src/a.py", "/src/a.py"},
		"redundant dots": {"/src/./sub/../a.py", "/src/a.py"},
		"trailing slash": {"/src/", "/src"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.want, NormalizePath(test.path))
		})
	}
}

func TestJoinPaths(t *testing.T) {
	assert.Equal(t, "/proj/LICENSE", JoinPaths("/proj", "LICENSE"))
	assert.Equal(t, "a/b/c", JoinPaths("a", "b", "c"))
}

func TestAbsPath(t *testing.T) {
	assert.Equal(t, "/src/a.py", AbsPath("/src/a.py"))
	assert.True(t, len(AbsPath("relative.py")) > len("relative.py"))
}