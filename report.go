package spdxer

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Action describes what happened to one file during a batch run.
type Action string

const (
	// ActionAdded means a header was inserted and committed
	ActionAdded Action = "added"
	// ActionChanged means the header was replaced and committed
	ActionChanged Action = "changed"
	// ActionRemoved means the header was removed and committed
	ActionRemoved Action = "removed"
	// ActionSkipped means the file needed no change for the requested operation
	ActionSkipped Action = "skipped"
	// ActionWouldModify is a dry-run placeholder for any mutation
	ActionWouldModify Action = "would-modify"
	// ActionValid means verification found a header
	ActionValid Action = "valid"
	// ActionMissing means verification found no header
	ActionMissing Action = "missing"
	// ActionFailed means the file could not be processed
	ActionFailed Action = "failed"
)

// Outcome is the batch-level exit semantic surfaced to the CLI layer.
type Outcome int

const (
	// OutcomeOK means the requested work was done
	OutcomeOK Outcome = iota
	// OutcomeNothingToDo means no file needed the requested change
	OutcomeNothingToDo
	// OutcomeFailed means at least one file failed, or verification found
	// missing headers
	OutcomeFailed
)

// FileResult is the outcome for a single file. Per-file errors are collected
// here rather than aborting the batch.
type FileResult struct {
	Path    string
	Action  Action
	License string
	Err     error
	Cached  bool
}

// Report collects per-file results for one batch run.
type Report struct {
	Results []FileResult
}

// Add appends a file result.
func (r *Report) Add(result FileResult) {
	r.Results = append(r.Results, result)
}

// Modified returns how many files were (or would be) rewritten.
func (r *Report) Modified() int {
	n := 0
	for _, res := range r.Results {
		switch res.Action {
		case ActionAdded, ActionChanged, ActionRemoved, ActionWouldModify:
			n++
		}
	}
	return n
}

// Missing returns how many files verification flagged as headerless.
func (r *Report) Missing() int {
	n := 0
	for _, res := range r.Results {
		if res.Action == ActionMissing {
			n++
		}
	}
	return n
}

// Failures returns the results that carry errors.
func (r *Report) Failures() []FileResult {
	var out []FileResult
	for _, res := range r.Results {
		if res.Action == ActionFailed {
			out = append(out, res)
		}
	}
	return out
}

// Outcome maps the report onto the three batch exit semantics.
func (r *Report) Outcome() Outcome {
	if len(r.Failures()) > 0 || r.Missing() > 0 {
		return OutcomeFailed
	}
	if r.Modified() == 0 {
		return OutcomeNothingToDo
	}
	return OutcomeOK
}

// OutputFormat represents the output format type
type OutputFormat string

const (
	// FormatText outputs human-readable text (default)
	FormatText OutputFormat = "text"
	// FormatJSON outputs machine-readable JSON
	FormatJSON OutputFormat = "json"
)

// Formatter renders a report for the CLI layer.
type Formatter interface {
	Format(report *Report) ([]byte, error)
	ContentType() string
}

// NewFormatter creates a formatter for the requested format.
func NewFormatter(format OutputFormat) (Formatter, error) {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}, nil
	case FormatText:
		return NewTextFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// JSONFormatter outputs the report in JSON format
type JSONFormatter struct {
	Pretty bool
}

type jsonResult struct {
	Path    string `json:"path"`
	Action  Action `json:"action"`
	License string `json:"license,omitempty"`
	Error   string `json:"error,omitempty"`
	Cached  bool   `json:"cached,omitempty"`
}

type jsonReport struct {
	Summary   jsonSummary  `json:"summary"`
	Results   []jsonResult `json:"results"`
	Timestamp string       `json:"timestamp"`
}

type jsonSummary struct {
	Files    int    `json:"files"`
	Modified int    `json:"modified"`
	Missing  int    `json:"missing"`
	Failed   int    `json:"failed"`
	Status   string `json:"status"`
}

func (f *JSONFormatter) Format(report *Report) ([]byte, error) {
	out := jsonReport{
		Summary: jsonSummary{
			Files:    len(report.Results),
			Modified: report.Modified(),
			Missing:  report.Missing(),
			Failed:   len(report.Failures()),
			Status:   statusLabel(report.Outcome()),
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	for _, res := range report.Results {
		jr := jsonResult{
			Path:    res.Path,
			Action:  res.Action,
			License: res.License,
			Cached:  res.Cached,
		}
		if res.Err != nil {
			jr.Error = res.Err.Error()
		}
		out.Results = append(out.Results, jr)
	}

	if f.Pretty {
		return json.MarshalIndent(out, "", "  ")
	}
	return json.Marshal(out)
}

func (f *JSONFormatter) ContentType() string {
	return "application/json"
}

func statusLabel(o Outcome) string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNothingToDo:
		return "nothing-to-do"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// plainSummary renders the report without colors.
func plainSummary(report *Report) string {
	var sb strings.Builder
	for _, res := range report.Results {
		switch res.Action {
		case ActionFailed:
			fmt.Fprintf(&sb, "✗ %s: %v\n", res.Path, res.Err)
		case ActionMissing:
			fmt.Fprintf(&sb, "✗ missing header: %s\n", res.Path)
		case ActionSkipped:
			fmt.Fprintf(&sb, "- %s\n", res.Path)
		case ActionWouldModify:
			fmt.Fprintf(&sb, "~ would modify: %s\n", res.Path)
		default:
			fmt.Fprintf(&sb, "✓ %s: %s\n", res.Action, res.Path)
		}
	}
	fmt.Fprintf(&sb, "\n%d files, %d modified, %d missing, %d failed\n",
		len(report.Results), report.Modified(), report.Missing(), len(report.Failures()))
	return sb.String()
}
