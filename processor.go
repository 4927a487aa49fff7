package spdxer

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/afero"
)

// Processor applies one header operation across a tree of candidate files.
// It constructs one Transaction per file, so per-file failures are collected
// into the report instead of aborting the batch. The catalog is consulted
// only to validate the identifier being written.
type Processor struct {
	fs      afero.Fs
	cfg     Config
	catalog *Catalog
	logger  *slog.Logger
	status  *StatusCache
}

// NewProcessor creates a batch processor. When the config enables
// incremental mode, a content-keyed status cache is opened so verify runs
// can skip unchanged files.
func NewProcessor(cfg Config, catalog *Catalog, logger *slog.Logger, fs afero.Fs) (*Processor, error) {
	p := &Processor{
		fs:      fs,
		cfg:     cfg,
		catalog: catalog,
		logger:  ensureLogger(logger),
	}

	if cfg.Incremental {
		status, err := NewStatusCache(cfg.CacheDir, fs)
		if err != nil {
			return nil, err
		}
		p.status = status
	}

	return p, nil
}

// ensureLogger creates a default logger if none is provided
func ensureLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	return logger
}

// Add inserts a header naming license into every candidate file under root
// that does not already have one. The identifier is validated against the
// catalog before any file is touched; an unknown identifier fails the whole
// request immediately, with suggestions.
func (p *Processor) Add(root, license string, dryRun bool) (*Report, error) {
	if _, err := p.catalog.Lookup(license); err != nil {
		return nil, err
	}
	return p.run(root, func(path string) FileResult {
		return p.addFile(path, license, dryRun)
	})
}

// Change replaces the header in every candidate file under root that has
// one.
func (p *Processor) Change(root, license string, dryRun bool) (*Report, error) {
	if _, err := p.catalog.Lookup(license); err != nil {
		return nil, err
	}
	return p.run(root, func(path string) FileResult {
		return p.changeFile(path, license, dryRun)
	})
}

// Remove strips the header from every candidate file under root.
func (p *Processor) Remove(root string, dryRun bool) (*Report, error) {
	return p.run(root, func(path string) FileResult {
		return p.removeFile(path, dryRun)
	})
}

// Verify reports which candidate files are missing a header. No file is
// modified. With incremental mode enabled, unchanged files are answered from
// the status cache.
func (p *Processor) Verify(root string) (*Report, error) {
	return p.run(root, p.verifyFile)
}

func (p *Processor) run(root string, op func(path string) FileResult) (*Report, error) {
	paths, err := p.Candidates(root)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for _, path := range paths {
		result := op(path)
		if result.Action == ActionFailed {
			p.logger.Error("file processing failed", "file", path, "error", result.Err)
		} else {
			p.logger.Debug("file processed", "file", path, "action", string(result.Action))
		}
		report.Add(result)
	}
	return report, nil
}

// Candidates walks root and returns the files this run may operate on:
// matching extensions, not in the exclusion set. Excluded files are never
// opened.
func (p *Processor) Candidates(root string) ([]string, error) {
	var paths []string
	err := afero.Walk(p.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return NewFSError("error accessing path", err).WithFile(path).
				WithDetails("Check if the path exists and you have permission to access it")
		}
		if info.IsDir() {
			return nil
		}
		if !p.cfg.matchesExtension(info.Name()) || p.cfg.excluded(info.Name()) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func (p *Processor) addFile(path, license string, dryRun bool) FileResult {
	tx := NewTransaction(p.fs, path)
	if err := tx.Load(); err != nil {
		return FileResult{Path: path, Action: ActionFailed, Err: err}
	}
	if tx.HasHeader() {
		return FileResult{Path: path, Action: ActionSkipped}
	}
	if dryRun {
		return FileResult{Path: path, Action: ActionWouldModify, License: license}
	}
	if err := tx.AddHeader(license, p.cfg.CopyrightFields()); err != nil {
		return FileResult{Path: path, Action: ActionFailed, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return FileResult{Path: path, Action: ActionFailed, Err: err}
	}
	return FileResult{Path: path, Action: ActionAdded, License: license}
}

func (p *Processor) changeFile(path, license string, dryRun bool) FileResult {
	tx := NewTransaction(p.fs, path)
	if err := tx.Load(); err != nil {
		return FileResult{Path: path, Action: ActionFailed, Err: err}
	}
	if !tx.HasHeader() {
		return FileResult{Path: path, Action: ActionSkipped}
	}
	if dryRun {
		return FileResult{Path: path, Action: ActionWouldModify, License: license}
	}
	if err := tx.ReplaceHeader(license); err != nil {
		return FileResult{Path: path, Action: ActionFailed, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return FileResult{Path: path, Action: ActionFailed, Err: err}
	}
	return FileResult{Path: path, Action: ActionChanged, License: license}
}

func (p *Processor) removeFile(path string, dryRun bool) FileResult {
	tx := NewTransaction(p.fs, path)
	if err := tx.Load(); err != nil {
		return FileResult{Path: path, Action: ActionFailed, Err: err}
	}
	if !tx.HasHeader() {
		return FileResult{Path: path, Action: ActionSkipped}
	}
	if dryRun {
		return FileResult{Path: path, Action: ActionWouldModify}
	}
	if err := tx.RemoveHeader(); err != nil {
		return FileResult{Path: path, Action: ActionFailed, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return FileResult{Path: path, Action: ActionFailed, Err: err}
	}
	return FileResult{Path: path, Action: ActionRemoved}
}

func (p *Processor) verifyFile(path string) FileResult {
	if p.status != nil {
		if status, err := p.status.Get(path); err == nil {
			return verifyResult(path, status)
		} else if !errors.Is(err, ErrStatusNotFound) {
			p.logger.Debug("ignoring unreadable cache entry", "file", path, "error", err)
		}
	}

	tx := NewTransaction(p.fs, path)
	if err := tx.Load(); err != nil {
		return FileResult{Path: path, Action: ActionFailed, Err: err}
	}

	status := HeaderStatus{HasHeader: tx.HasHeader()}
	if status.HasHeader {
		id, err := tx.HeaderIdentifier()
		if err != nil {
			return FileResult{Path: path, Action: ActionFailed, Err: err}
		}
		status.License = id.License
	}

	if p.status != nil {
		if err := p.status.Put(path, status); err != nil {
			p.logger.Debug("failed to cache status", "file", path, "error", err)
		}
	}
	return verifyResult(path, status)
}

func verifyResult(path string, status HeaderStatus) FileResult {
	if !status.HasHeader {
		return FileResult{Path: path, Action: ActionMissing, Cached: status.Cached}
	}
	return FileResult{Path: path, Action: ActionValid, License: status.License, Cached: status.Cached}
}
