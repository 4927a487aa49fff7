package spdxer

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
)

const extractFileMode = os.FileMode(0o644)

// Extract writes the hard-wrapped license template text for the identifier
// into dir and returns the path written. The preferred name is LICENSE; when
// that exists the name falls back to LICENSE-<id>, then numeric suffixes, so
// no existing file is overwritten. The write itself uses the same
// temp-and-rename discipline as a transaction commit.
func Extract(fs afero.Fs, catalog *Catalog, license, dir string, dryRun bool) (string, error) {
	entry, err := catalog.Lookup(license)
	if err != nil {
		return "", err
	}

	text := entry.Text
	if text == "" {
		text = licensePlaceholder(entry)
	}
	wrapped := WrapText(text, wrapWidth)

	target, err := extractTarget(fs, dir, license)
	if err != nil {
		return "", err
	}
	if dryRun {
		return target, nil
	}

	if err := writeFileAtomic(fs, target, []byte(wrapped), extractFileMode); err != nil {
		return "", err
	}
	return target, nil
}

// licensePlaceholder is written when the catalog carries no template text,
// pointing at the authoritative SPDX listing instead.
func licensePlaceholder(entry LicenseEntry) string {
	return fmt.Sprintf("%s (%s)\n\n"+
		"The full license text is not bundled with this tool.\n"+
		"Refer to the official SPDX listing for the authoritative text:\n"+
		"https://spdx.org/licenses/%s.html\n",
		entry.Name, entry.ID, entry.ID)
}

func extractTarget(fs afero.Fs, dir, license string) (string, error) {
	preferred := JoinPaths(dir, "LICENSE")
	exists, err := afero.Exists(fs, preferred)
	if err != nil {
		return "", NewFSError("failed checking for existing LICENSE", err).WithFile(preferred)
	}
	if !exists {
		return preferred, nil
	}

	base := JoinPaths(dir, "LICENSE-"+license)
	candidate := base
	for n := 1; ; n++ {
		exists, err := afero.Exists(fs, candidate)
		if err != nil {
			return "", NewFSError("failed checking for existing license file", err).WithFile(candidate)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s.%d", base, n)
	}
}
