package spdxer

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportOutcome(t *testing.T) {
	tests := map[string]struct {
		results []FileResult
		want    Outcome
	}{
		"empty report": {
			results: nil,
			want:    OutcomeNothingToDo,
		},
		"all skipped": {
			results: []FileResult{
				{Path: "a.py", Action: ActionSkipped},
				{Path: "b.py", Action: ActionSkipped},
			},
			want: OutcomeNothingToDo,
		},
		"work done": {
			results: []FileResult{
				{Path: "a.py", Action: ActionAdded},
				{Path: "b.py", Action: ActionSkipped},
			},
			want: OutcomeOK,
		},
		"dry run counts as work": {
			results: []FileResult{{Path: "a.py", Action: ActionWouldModify}},
			want:    OutcomeOK,
		},
		"failure wins over work": {
			results: []FileResult{
				{Path: "a.py", Action: ActionAdded},
				{Path: "b.py", Action: ActionFailed, Err: errors.New("boom")},
			},
			want: OutcomeFailed,
		},
		"missing header fails verification": {
			results: []FileResult{
				{Path: "a.py", Action: ActionValid, License: "MIT"},
				{Path: "b.py", Action: ActionMissing},
			},
			want: OutcomeFailed,
		},
		"all valid": {
			results: []FileResult{{Path: "a.py", Action: ActionValid, License: "MIT"}},
			want:    OutcomeNothingToDo,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			report := &Report{}
			for _, res := range test.results {
				report.Add(res)
			}
			assert.Equal(t, test.want, report.Outcome())
		})
	}
}

func TestReportCounters(t *testing.T) {
	report := &Report{}
	report.Add(FileResult{Path: "a.py", Action: ActionAdded, License: "MIT"})
	report.Add(FileResult{Path: "b.py", Action: ActionChanged, License: "MIT"})
	report.Add(FileResult{Path: "c.py", Action: ActionSkipped})
	report.Add(FileResult{Path: "d.py", Action: ActionMissing})
	report.Add(FileResult{Path: "e.py", Action: ActionFailed, Err: errors.New("boom")})

	assert.Equal(t, 2, report.Modified())
	assert.Equal(t, 1, report.Missing())
	require.Len(t, report.Failures(), 1)
	assert.Equal(t, "e.py", report.Failures()[0].Path)
}

func TestNewFormatter(t *testing.T) {
	text, err := NewFormatter(FormatText)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", text.ContentType())

	jsonF, err := NewFormatter(FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "application/json", jsonF.ContentType())

	_, err = NewFormatter(OutputFormat("yaml"))
	assert.Error(t, err)
}

func TestJSONFormatter(t *testing.T) {
	report := &Report{}
	report.Add(FileResult{Path: "a.py", Action: ActionAdded, License: "MIT"})
	report.Add(FileResult{Path: "b.py", Action: ActionFailed, Err: errors.New("boom")})
	report.Add(FileResult{Path: "c.py", Action: ActionValid, License: "ISC", Cached: true})

	out, err := (&JSONFormatter{}).Format(report)
	require.NoError(t, err)

	var decoded struct {
		Summary struct {
			Files    int    `json:"files"`
			Modified int    `json:"modified"`
			Failed   int    `json:"failed"`
			Status   string `json:"status"`
		} `json:"summary"`
		Results []struct {
			Path    string `json:"path"`
			Action  string `json:"action"`
			License string `json:"license"`
			Error   string `json:"error"`
			Cached  bool   `json:"cached"`
		} `json:"results"`
		Timestamp string `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))

	assert.Equal(t, 3, decoded.Summary.Files)
	assert.Equal(t, 1, decoded.Summary.Modified)
	assert.Equal(t, 1, decoded.Summary.Failed)
	assert.Equal(t, "failed", decoded.Summary.Status)
	assert.NotEmpty(t, decoded.Timestamp)

	require.Len(t, decoded.Results, 3)
	assert.Equal(t, "added", decoded.Results[0].Action)
	assert.Equal(t, "boom", decoded.Results[1].Error)
	assert.True(t, decoded.Results[2].Cached)
}

func TestTextFormatterPlain(t *testing.T) {
	report := &Report{}
	report.Add(FileResult{Path: "a.py", Action: ActionAdded, License: "MIT"})
	report.Add(FileResult{Path: "b.py", Action: ActionMissing})
	report.Add(FileResult{Path: "c.py", Action: ActionSkipped})
	report.Add(FileResult{Path: "d.py", Action: ActionWouldModify})

	f := NewTextFormatter()
	f.ColorMode = ColorNever

	out, err := f.Format(report)
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "✓ added: a.py")
	assert.Contains(t, text, "✗ missing header: b.py")
	assert.Contains(t, text, "- c.py")
	assert.Contains(t, text, "~ would modify: d.py")
	assert.Contains(t, text, "4 files, 2 modified, 1 missing, 0 failed")
	assert.NotContains(t, text, "\x1b[", "never mode must emit no escape sequences")
}

func TestTextFormatterAlways(t *testing.T) {
	report := &Report{}
	report.Add(FileResult{Path: "a.py", Action: ActionAdded, License: "MIT"})

	f := NewTextFormatter()
	f.ColorMode = ColorAlways

	out, err := f.Format(report)
	require.NoError(t, err)
	assert.Contains(t, string(out), "\x1b[", "always mode must emit escape sequences")
}