package spdxer

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

//go:embed spdx_licenses.json
var defaultCatalogData []byte

// LicenseEntry is one catalog row.
type LicenseEntry struct {
	ID          string `json:"-"`
	Name        string `json:"name"`
	Deprecated  bool   `json:"deprecated"`
	OSIApproved bool   `json:"osi_approved"`
	FSFLibre    bool   `json:"fsf_libre"`
	// Text holds the license template text used for extraction. Optional.
	Text string `json:"license_text,omitempty"`
}

// CatalogMetadata describes the catalog source.
type CatalogMetadata struct {
	SPDXVersion  string `json:"spdx_version"`
	GeneratedAt  string `json:"generated_at"`
	LicenseCount int    `json:"license_count"`
}

// Catalog is the in-memory table of license identifiers. Identifiers are
// unique; lookup is by key but listing and filtering preserve the source's
// insertion order. A catalog is immutable after load and safe for concurrent
// readers.
type Catalog struct {
	Metadata CatalogMetadata

	ids       []string
	entries   map[string]LicenseEntry
	suggester Suggester
}

// CatalogOption configures catalog construction.
type CatalogOption func(*Catalog)

// WithSuggester overrides the suggestion strategy, e.g. to select the
// substring fallback where similarity ranking is unwanted.
func WithSuggester(factory func(ids []string) Suggester) CatalogOption {
	return func(c *Catalog) {
		c.suggester = factory(c.ids)
	}
}

// LoadCatalog reads and parses a catalog from the given path, or from the
// bundled default when path is empty.
func LoadCatalog(fs afero.Fs, path string, opts ...CatalogOption) (*Catalog, error) {
	data := defaultCatalogData
	if path != "" {
		var err error
		data, err = afero.ReadFile(fs, path)
		if err != nil {
			return nil, NewCatalogError("failed reading license catalog", err).WithFile(path)
		}
	}
	cat, err := ParseCatalog(data, opts...)
	if err != nil && path != "" {
		return nil, NewCatalogError("failed parsing license catalog", err).WithFile(path)
	}
	return cat, err
}

// ParseCatalog decodes catalog JSON. The "licenses" object is walked with a
// token decoder so that entry order survives; encoding/json maps would
// scramble it.
func ParseCatalog(data []byte, opts ...CatalogOption) (*Catalog, error) {
	cat := &Catalog{entries: make(map[string]LicenseEntry)}

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v in catalog", tok)
		}

		switch key {
		case "metadata":
			if err := dec.Decode(&cat.Metadata); err != nil {
				return nil, err
			}
		case "licenses":
			if err := cat.decodeLicenses(dec); err != nil {
				return nil, err
			}
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
		}
	}

	cat.suggester = NewSimilaritySuggester(cat.ids)
	for _, opt := range opts {
		opt(cat)
	}
	return cat, nil
}

func (c *Catalog) decodeLicenses(dec *json.Decoder) error {
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected license key %v", tok)
		}

		var entry LicenseEntry
		if err := dec.Decode(&entry); err != nil {
			return err
		}
		entry.ID = id

		if _, dup := c.entries[id]; !dup {
			c.ids = append(c.ids, id)
		}
		c.entries[id] = entry
	}
	_, err := dec.Token() // closing brace
	return err
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q in catalog, got %v", want, tok)
	}
	return nil
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.ids)
}

// Lookup returns the entry for an exact identifier. On a miss it fails with
// a LicenseNotFoundError carrying ranked suggestions. Lookup misses reflect
// a single explicit request, so the error is surfaced to that caller rather
// than collected per batch.
func (c *Catalog) Lookup(id string) (LicenseEntry, error) {
	if entry, ok := c.entries[id]; ok {
		return entry, nil
	}
	return LicenseEntry{}, &LicenseNotFoundError{
		ID:          id,
		Suggestions: c.suggester.Suggest(id),
	}
}

// Filter returns entries whose identifier or name contains the keyword,
// case-insensitive, in catalog order. An empty keyword returns everything.
func (c *Catalog) Filter(keyword string) []LicenseEntry {
	lower := strings.ToLower(keyword)
	var out []LicenseEntry
	for _, id := range c.ids {
		entry := c.entries[id]
		if keyword == "" ||
			strings.Contains(strings.ToLower(entry.ID), lower) ||
			strings.Contains(strings.ToLower(entry.Name), lower) {
			out = append(out, entry)
		}
	}
	return out
}

// IDs returns identifiers in catalog order.
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.ids...)
}
