package spdxer

// This file contains the text formatter with color support.

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// ColorMode represents when to use colors in output
type ColorMode string

const (
	// ColorAuto automatically detects TTY and enables colors appropriately
	ColorAuto ColorMode = "auto"
	// ColorAlways forces colors to be enabled
	ColorAlways ColorMode = "always"
	// ColorNever disables colors
	ColorNever ColorMode = "never"
)

// TextFormatter renders the report as human-readable text with optional
// ANSI colors.
type TextFormatter struct {
	// ColorMode controls when to enable colors (auto, always, never)
	ColorMode ColorMode
}

// NewTextFormatter creates a TextFormatter with sensible defaults.
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{ColorMode: ColorAuto}
}

func (f *TextFormatter) Format(report *Report) ([]byte, error) {
	if !f.colorEnabled() {
		return []byte(plainSummary(report)), nil
	}
	return []byte(f.formatWithColors(report)), nil
}

func (f *TextFormatter) ContentType() string {
	return "text/plain"
}

func (f *TextFormatter) colorEnabled() bool {
	switch f.ColorMode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	// ColorAuto: fatih/color already disables itself for non-TTY output
	return !color.NoColor && os.Getenv("NO_COLOR") == ""
}

func (f *TextFormatter) formatWithColors(report *Report) string {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	faint := color.New(color.Faint)
	if f.ColorMode == ColorAlways {
		green.EnableColor()
		red.EnableColor()
		yellow.EnableColor()
		faint.EnableColor()
	}

	var sb strings.Builder
	for _, res := range report.Results {
		switch res.Action {
		case ActionFailed:
			fmt.Fprintf(&sb, "%s %s: %v\n", red.Sprint("✗"), res.Path, res.Err)
		case ActionMissing:
			fmt.Fprintf(&sb, "%s missing header: %s\n", red.Sprint("✗"), res.Path)
		case ActionSkipped:
			fmt.Fprintf(&sb, "%s %s\n", faint.Sprint("-"), faint.Sprint(res.Path))
		case ActionWouldModify:
			fmt.Fprintf(&sb, "%s would modify: %s\n", yellow.Sprint("~"), res.Path)
		default:
			fmt.Fprintf(&sb, "%s %s: %s\n", green.Sprint("✓"), res.Action, res.Path)
		}
	}

	summary := fmt.Sprintf("%d files, %d modified, %d missing, %d failed",
		len(report.Results), report.Modified(), report.Missing(), len(report.Failures()))
	sb.WriteString("\n")
	if report.Outcome() == OutcomeFailed {
		sb.WriteString(red.Sprint(summary))
	} else {
		sb.WriteString(green.Sprint(summary))
	}
	sb.WriteString("\n")
	return sb.String()
}
