package spdxer

import (
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// TxState is the lifecycle state of a file transaction.
type TxState int

const (
	// StateUnloaded is the initial state; only Load is valid.
	StateUnloaded TxState = iota
	// StateLoaded means the file was read, decoded and parsed.
	StateLoaded
	// StateMutated means exactly one header mutation was applied in memory.
	StateMutated
	// StateCommitted means the result was atomically written back.
	StateCommitted
	// StateFailed is terminal and reachable from any non-terminal state.
	StateFailed
)

func (s TxState) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateMutated:
		return "mutated"
	case StateCommitted:
		return "committed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Transaction orchestrates one file's lifecycle: a single read and decode, at
// most one in-memory header mutation, and one atomic permission-preserving
// write. A transaction is confined to a single goroutine; transactions on
// distinct paths are fully independent. Calling operations out of state is a
// programming error and panics rather than returning an error.
type Transaction struct {
	fs     afero.Fs
	path   string
	state  TxState
	record *FileRecord
}

// NewTransaction returns a transaction for the file at path.
func NewTransaction(fsys afero.Fs, path string) *Transaction {
	return &Transaction{fs: fsys, path: path, state: StateUnloaded}
}

// State returns the current lifecycle state.
func (t *Transaction) State() TxState {
	return t.state
}

// Path returns the target file path.
func (t *Transaction) Path() string {
	return t.path
}

// Load reads the file's full content exactly once, resolves its encoding,
// decodes, parses the header structure and captures the source permission
// bits.
func (t *Transaction) Load() error {
	if t.state != StateUnloaded {
		contractViolation("Load called on %q in state %s", t.path, t.state)
	}

	data, err := afero.ReadFile(t.fs, t.path)
	if err != nil {
		return t.fail(NewFSError("failed reading file", err).WithFile(t.path))
	}
	info, err := t.fs.Stat(t.path)
	if err != nil {
		return t.fail(NewFSError("failed to stat file", err).WithFile(t.path))
	}

	enc, err := ResolveEncoding(data)
	if err != nil {
		if encErr, ok := err.(*EncodingError); ok {
			encErr.File = t.path
		}
		return t.fail(err)
	}
	text, err := enc.Decode(data)
	if err != nil {
		if encErr, ok := err.(*EncodingError); ok {
			encErr.File = t.path
		}
		return t.fail(err)
	}

	record := ParseRecord(text)
	record.Encoding = enc
	record.SourceMode = info.Mode().Perm()

	t.record = record
	t.state = StateLoaded
	return nil
}

// HasHeader reports whether the loaded file carries a license header. Pure
// in-memory query, no I/O.
func (t *Transaction) HasHeader() bool {
	t.requireLoaded("HasHeader")
	return t.record.HasHeader()
}

// HeaderIdentifier extracts the license token and copyright fields from the
// header block.
func (t *Transaction) HeaderIdentifier() (HeaderIdentifier, error) {
	t.requireLoaded("HeaderIdentifier")
	id, err := t.record.Identifier()
	if err != nil {
		if invErr, ok := err.(*InvalidHeaderError); ok {
			invErr.File = t.path
		}
		return HeaderIdentifier{}, err
	}
	return id, nil
}

// AddHeader inserts a new header block after any interpreter line. Returns
// ErrHeaderPresent when one already exists; callers check HasHeader first
// and treat that as nothing-to-do.
func (t *Transaction) AddHeader(license string, c *CopyrightFields) error {
	t.requireMutable("AddHeader")
	if err := t.record.AddHeader(license, c); err != nil {
		return err
	}
	t.state = StateMutated
	return nil
}

// ReplaceHeader swaps the header block for one naming the new identifier.
func (t *Transaction) ReplaceHeader(license string) error {
	t.requireMutable("ReplaceHeader")
	if err := t.record.ReplaceHeader(license); err != nil {
		return err
	}
	t.state = StateMutated
	return nil
}

// RemoveHeader clears the header block.
func (t *Transaction) RemoveHeader() error {
	t.requireMutable("RemoveHeader")
	if err := t.record.RemoveHeader(); err != nil {
		return err
	}
	t.state = StateMutated
	return nil
}

// Content returns the fully serialized result without committing, for
// dry-run and preview callers.
func (t *Transaction) Content() ([]byte, error) {
	t.requireLoaded("Content")
	out, err := t.record.Encoding.Encode(t.record.Serialize())
	if err != nil {
		if encErr, ok := err.(*EncodingError); ok {
			encErr.File = t.path
		}
		return nil, err
	}
	return out, nil
}

// Commit serializes the record back to bytes in the resolved encoding and
// writes them over the original path via a temporary file in the same
// directory followed by an atomic rename. The original is untouched until
// the rename; any earlier failure removes the temporary file and leaves the
// original byte-for-byte unchanged.
func (t *Transaction) Commit() error {
	if t.state != StateLoaded && t.state != StateMutated {
		contractViolation("Commit called on %q in state %s", t.path, t.state)
	}

	out, err := t.record.Encoding.Encode(t.record.Serialize())
	if err != nil {
		if encErr, ok := err.(*EncodingError); ok {
			encErr.File = t.path
		}
		return t.fail(err)
	}

	if err := writeFileAtomic(t.fs, t.path, out, t.record.SourceMode); err != nil {
		return t.fail(err)
	}
	t.state = StateCommitted
	return nil
}

func (t *Transaction) fail(err error) error {
	t.state = StateFailed
	return err
}

func (t *Transaction) requireLoaded(op string) {
	switch t.state {
	case StateLoaded, StateMutated, StateCommitted:
	default:
		contractViolation("%s called on %q in state %s", op, t.path, t.state)
	}
}

// requireMutable enforces the at-most-one-mutation rule.
func (t *Transaction) requireMutable(op string) {
	if t.state != StateLoaded {
		contractViolation("%s called on %q in state %s", op, t.path, t.state)
	}
}

// writeFileAtomic writes data to path by way of a temporary file created in
// the same directory, so the final rename stays on one filesystem and is
// atomic. The temporary file receives the given permission bits before the
// rename and is removed on any failure.
func writeFileAtomic(fsys afero.Fs, path string, data []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := afero.TempFile(fsys, dir, ".spdxer-*")
	if err != nil {
		return NewFSError("failed creating temporary file", err).WithFile(path)
	}
	tmpPath := tmp.Name()

	discard := func(cause string, err error) error {
		_ = tmp.Close()
		_ = fsys.Remove(tmpPath)
		return NewFSError(cause, err).WithFile(path)
	}

	if _, err := tmp.Write(data); err != nil {
		return discard("failed writing temporary file", err)
	}
	if err := tmp.Close(); err != nil {
		_ = fsys.Remove(tmpPath)
		return NewFSError("failed closing temporary file", err).WithFile(path)
	}
	if err := fsys.Chmod(tmpPath, mode); err != nil {
		_ = fsys.Remove(tmpPath)
		return NewFSError("failed preserving permissions", err).WithFile(path)
	}
	if err := fsys.Rename(tmpPath, path); err != nil {
		_ = fsys.Remove(tmpPath)
		return NewFSError("failed replacing file", err).WithFile(path)
	}
	return nil
}
