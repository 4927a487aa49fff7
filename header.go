package spdxer

import (
	"errors"
	"io/fs"
	"regexp"
	"strings"
)

const (
	// licenseMarker is the fixed token identifying a license line inside a
	// header block.
	licenseMarker = "SPDX-License-Identifier:"
	// copyrightMarker is the optional copyright line token.
	copyrightMarker = "SPDX-FileCopyrightText:"
	// defaultCommentPrefix is the comment syntax of the files this tool
	// targets.
	defaultCommentPrefix = "#"
	// interpreterMarker introduces an interpreter directive line.
	interpreterMarker = "#!"
	// wrapWidth is the hard-wrap column for extracted license text.
	wrapWidth = 79
)

var (
	licensePattern   = regexp.MustCompile(regexp.QuoteMeta(licenseMarker) + `\s*(\S+)`)
	copyrightPattern = regexp.MustCompile(regexp.QuoteMeta(copyrightMarker) + `\s*(\d{4})?\s*([^<]*?)\s*(?:<([^>]*)>)?\s*$`)
)

// FileRecord is the decoded, structured view of one file during a
// transaction. Concatenating InterpreterLine, HeaderLines and BodyLines in
// that order reproduces the decoded content byte-for-byte: every line keeps
// its own terminator and the final line may have none.
type FileRecord struct {
	// InterpreterLine is the verbatim first line when it is a #! directive,
	// empty otherwise.
	InterpreterLine string
	// HeaderLines is the contiguous run of leading comment lines recognized
	// as the header region. The boundary is structural: unrelated comment
	// lines adjacent to the marker line are absorbed into the region, and
	// RemoveHeader drops all of them.
	HeaderLines []string
	// BodyLines is everything else, opaque to this tool.
	BodyLines []string
	// Encoding is the resolved on-disk encoding, including BOM presence.
	Encoding Encoding
	// SourceMode holds the original permission bits, captured before any
	// write and applied to the replacement file.
	SourceMode fs.FileMode
}

// HeaderIdentifier is the parsed license token of a header block plus the
// optional copyright line fields.
type HeaderIdentifier struct {
	License string
	Year    string
	Holder  string
	Email   string
}

// CopyrightFields are the inputs for building an optional copyright line.
type CopyrightFields struct {
	Year   string
	Holder string
	Email  string
}

// ParseRecord splits decoded text into interpreter line, header region and
// body. The header region is the contiguous run of leading comment lines
// after any interpreter directive; it becomes HeaderLines only when one of
// those lines contains the license marker, and stays part of the body
// otherwise.
func ParseRecord(text string) *FileRecord {
	lines := splitLines(text)
	rec := &FileRecord{}

	if len(lines) > 0 && strings.HasPrefix(lines[0], interpreterMarker) {
		rec.InterpreterLine = lines[0]
		lines = lines[1:]
	}

	end := 0
	for end < len(lines) && isCommentLine(lines[end]) {
		end++
	}

	region := lines[:end]
	if containsMarker(region) {
		rec.HeaderLines = append([]string(nil), region...)
		rec.BodyLines = append([]string(nil), lines[end:]...)
	} else {
		rec.BodyLines = append([]string(nil), lines...)
	}
	return rec
}

// Serialize reproduces the file content from its three parts.
func (r *FileRecord) Serialize() string {
	var sb strings.Builder
	sb.WriteString(r.InterpreterLine)
	for _, line := range r.HeaderLines {
		sb.WriteString(line)
	}
	for _, line := range r.BodyLines {
		sb.WriteString(line)
	}
	return sb.String()
}

// HasHeader reports whether a license header block is present.
func (r *FileRecord) HasHeader() bool {
	return containsMarker(r.HeaderLines)
}

// Identifier extracts the license token and copyright fields from the header
// block. A marker line with no parseable token is an InvalidHeaderError, not
// an empty identifier.
func (r *FileRecord) Identifier() (HeaderIdentifier, error) {
	var id HeaderIdentifier
	found := false

	for _, line := range r.HeaderLines {
		if strings.Contains(line, licenseMarker) && !found {
			m := licensePattern.FindStringSubmatch(line)
			if m == nil {
				return HeaderIdentifier{}, &InvalidHeaderError{
					Details: "marker line carries no license identifier",
				}
			}
			id.License = m[1]
			found = true
		}
		if strings.Contains(line, copyrightMarker) {
			if m := copyrightPattern.FindStringSubmatch(line); m != nil {
				id.Year = m[1]
				id.Holder = strings.TrimSpace(m[2])
				id.Email = m[3]
			}
		}
	}

	if !found {
		return HeaderIdentifier{}, &InvalidHeaderError{Details: "no license marker present"}
	}
	return id, nil
}

// ErrHeaderPresent is returned by AddHeader when a header already exists;
// callers are expected to check HasHeader first and treat this as
// nothing-to-do rather than a failure.
var ErrHeaderPresent = errors.New("header already present")

// ErrNoHeader is returned by ReplaceHeader and RemoveHeader when the file
// has no header block.
var ErrNoHeader = errors.New("no header present")

// AddHeader builds a new header block for the identifier, with an optional
// copyright line, and inserts it immediately after the interpreter line.
func (r *FileRecord) AddHeader(license string, c *CopyrightFields) error {
	if r.HasHeader() {
		return ErrHeaderPresent
	}
	r.HeaderLines = buildHeaderLines(license, c, r.newline())
	return nil
}

// ReplaceHeader discards the current header region and installs a fresh
// block with the new identifier. Copyright fields from the old block are
// carried over when they parse cleanly.
func (r *FileRecord) ReplaceHeader(license string) error {
	if !r.HasHeader() {
		return ErrNoHeader
	}

	var c *CopyrightFields
	if old, err := r.Identifier(); err == nil && (old.Year != "" || old.Holder != "" || old.Email != "") {
		c = &CopyrightFields{Year: old.Year, Holder: old.Holder, Email: old.Email}
	}

	r.HeaderLines = buildHeaderLines(license, c, r.newline())
	return nil
}

// RemoveHeader clears the header region, leaving the interpreter line and
// body untouched.
func (r *FileRecord) RemoveHeader() error {
	if !r.HasHeader() {
		return ErrNoHeader
	}
	r.HeaderLines = nil
	return nil
}

func buildHeaderLines(license string, c *CopyrightFields, newline string) []string {
	var lines []string
	if c != nil {
		line := defaultCommentPrefix + " " + copyrightMarker
		if c.Year != "" {
			line += " " + c.Year
		}
		if c.Holder != "" {
			line += " " + c.Holder
		}
		if c.Email != "" {
			line += " <" + c.Email + ">"
		}
		lines = append(lines, line+newline)
	}
	lines = append(lines, defaultCommentPrefix+" "+licenseMarker+" "+license+newline)
	return lines
}

// newline returns the line terminator used when building new header lines,
// taken from the file's own first terminated line so CRLF files stay CRLF.
func (r *FileRecord) newline() string {
	for _, line := range append([]string{r.InterpreterLine}, r.BodyLines...) {
		if strings.HasSuffix(line, "\r\n") {
			return "\r\n"
		}
		if strings.HasSuffix(line, "\n") {
			return "\n"
		}
	}
	return "\n"
}

// splitLines splits text into lines that keep their terminators, so that
// joining them reproduces the input exactly.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	var lines []string
	for {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			lines = append(lines, text)
			return lines
		}
		lines = append(lines, text[:i+1])
		text = text[i+1:]
		if text == "" {
			return lines
		}
	}
}

// isCommentLine reports whether a line belongs to the leading comment scan.
// Blank lines terminate the header region: a header block is contiguous.
func isCommentLine(line string) bool {
	trimmed := strings.TrimRight(line, "\r\n")
	return strings.HasPrefix(trimmed, defaultCommentPrefix) && !strings.HasPrefix(trimmed, interpreterMarker)
}

func containsMarker(lines []string) bool {
	for _, line := range lines {
		if strings.Contains(line, licenseMarker) {
			return true
		}
	}
	return false
}

// WrapText hard-wraps text to the fixed width without breaking inside words.
// Paragraphs separated by blank lines are preserved. Used when writing
// extracted license text to an external file.
func WrapText(text string, width int) string {
	trailingNewline := strings.HasSuffix(text, "\n")
	normalized := strings.ReplaceAll(text, "\r\n", "\n")

	var out []string
	var paragraph []string

	flush := func() {
		if len(paragraph) == 0 {
			return
		}
		out = append(out, wrapParagraph(strings.Join(paragraph, " "), width)...)
		paragraph = nil
	}

	for _, line := range strings.Split(normalized, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			out = append(out, "")
			continue
		}
		paragraph = append(paragraph, strings.TrimSpace(line))
	}
	flush()

	result := strings.Join(out, "\n")
	result = strings.TrimRight(result, "\n")
	if trailingNewline {
		result += "\n"
	}
	return result
}

func wrapParagraph(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
			continue
		}
		current += " " + word
	}
	return append(lines, current)
}
