package spdxer

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Canonical encoding names used throughout the tool. Detection must be
// deterministic: repeated runs over an unchanged file always resolve to the
// same name, so the constants below are fixed rather than configurable.
const (
	EncodingUTF8        = "utf-8"
	EncodingUTF16LE     = "utf-16le"
	EncodingUTF16BE     = "utf-16be"
	EncodingLatin1      = "latin-1"
	EncodingWindows1252 = "windows-1252"
	EncodingASCII       = "ascii"
)

const (
	// detectSampleSize bounds how much of a file the statistical detector sees
	detectSampleSize = 10 * 1024
	// detectMinConfidence is the chardet acceptance threshold (scale 0-100)
	detectMinConfidence = 70
)

// fallbackEncodings is the fixed order of strict decoding attempts when
// neither a BOM nor a confident statistical answer is available. ASCII is a
// strict subset of UTF-8, so any caller expecting UTF-8 accepts it too.
var fallbackEncodings = []string{EncodingUTF8, EncodingLatin1, EncodingWindows1252, EncodingASCII}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Encoding is a resolved text encoding plus whether the source carried a
// byte-order marker.
type Encoding struct {
	Name string
	BOM  bool
}

// ResolveEncoding determines the most likely text encoding of raw file
// content. Order: BOM sniff, statistical detection over a bounded prefix,
// strict fallback ladder. Buffers with interior NULs (outside UTF-16) are
// classified as binary and fail with an EncodingError listing every
// encoding attempted.
func ResolveEncoding(data []byte) (Encoding, error) {
	if enc, ok := detectBOM(data); ok {
		return enc, nil
	}

	if bytes.IndexByte(data, 0) >= 0 {
		// NUL bytes without a UTF-16 BOM: binary content
		return Encoding{}, &EncodingError{Attempted: append([]string(nil), fallbackEncodings...)}
	}

	if name, ok := detectStatistical(data); ok {
		return Encoding{Name: name}, nil
	}

	for _, name := range fallbackEncodings {
		if decodable(name, data) {
			return Encoding{Name: name}, nil
		}
	}

	return Encoding{}, &EncodingError{Attempted: append([]string(nil), fallbackEncodings...)}
}

func detectBOM(data []byte) (Encoding, bool) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return Encoding{Name: EncodingUTF8, BOM: true}, true
	case bytes.HasPrefix(data, bomUTF16LE):
		return Encoding{Name: EncodingUTF16LE, BOM: true}, true
	case bytes.HasPrefix(data, bomUTF16BE):
		return Encoding{Name: EncodingUTF16BE, BOM: true}, true
	}
	return Encoding{}, false
}

// detectStatistical runs the byte-distribution detector over a prefix of the
// buffer and accepts its answer only above the fixed confidence threshold and
// only when it names an encoding this tool supports and the full buffer
// actually decodes with it.
func detectStatistical(data []byte) (string, bool) {
	sample := data
	if len(sample) > detectSampleSize {
		sample = sample[:detectSampleSize]
	}
	if len(sample) == 0 {
		return "", false
	}

	result, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil || result == nil || result.Confidence < detectMinConfidence {
		return "", false
	}

	name, ok := normalizeEncodingName(result.Charset)
	if !ok || !decodable(name, data) {
		return "", false
	}
	return name, true
}

// normalizeEncodingName maps detector charset labels onto the canonical
// names. Unknown labels are rejected so detection stays deterministic.
func normalizeEncodingName(label string) (string, bool) {
	switch strings.ToLower(strings.ReplaceAll(label, "_", "-")) {
	case "utf-8", "utf8":
		return EncodingUTF8, true
	case "iso-8859-1", "latin-1", "latin1":
		return EncodingLatin1, true
	case "windows-1252", "cp1252":
		return EncodingWindows1252, true
	case "ascii", "us-ascii":
		return EncodingASCII, true
	case "utf-16le":
		return EncodingUTF16LE, true
	case "utf-16be":
		return EncodingUTF16BE, true
	}
	return "", false
}

// windows1252Undefined are the byte values with no assigned character.
var windows1252Undefined = [...]byte{0x81, 0x8D, 0x8F, 0x90, 0x9D}

// decodable reports whether data decodes strictly under the named encoding.
func decodable(name string, data []byte) bool {
	switch name {
	case EncodingUTF8:
		return utf8.Valid(data)
	case EncodingASCII:
		for _, b := range data {
			if b >= 0x80 {
				return false
			}
		}
		return true
	case EncodingLatin1:
		// Every byte value is assigned in ISO-8859-1
		return true
	case EncodingWindows1252:
		for _, b := range data {
			for _, u := range windows1252Undefined {
				if b == u {
					return false
				}
			}
		}
		return true
	case EncodingUTF16LE, EncodingUTF16BE:
		return len(data)%2 == 0
	}
	return false
}

// Decode converts raw file bytes into text, stripping any byte-order marker.
func (e Encoding) Decode(data []byte) (string, error) {
	if e.BOM {
		data = bytes.TrimPrefix(data, bomFor(e.Name))
	}

	switch e.Name {
	case EncodingUTF8, EncodingASCII:
		return string(data), nil
	case EncodingLatin1:
		return decodeCharmap(charmap.ISO8859_1, data)
	case EncodingWindows1252:
		return decodeCharmap(charmap.Windows1252, data)
	case EncodingUTF16LE:
		out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(data)
		if err != nil {
			return "", &EncodingError{Attempted: []string{e.Name}}
		}
		return string(out), nil
	case EncodingUTF16BE:
		out, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().Bytes(data)
		if err != nil {
			return "", &EncodingError{Attempted: []string{e.Name}}
		}
		return string(out), nil
	}
	return "", &EncodingError{Attempted: []string{e.Name}}
}

// Encode converts text back to raw bytes, re-adding the byte-order marker
// iff the original content carried one.
func (e Encoding) Encode(text string) ([]byte, error) {
	var out []byte
	var err error

	switch e.Name {
	case EncodingUTF8, EncodingASCII:
		out = []byte(text)
	case EncodingLatin1:
		out, err = charmap.ISO8859_1.NewEncoder().Bytes([]byte(text))
	case EncodingWindows1252:
		out, err = charmap.Windows1252.NewEncoder().Bytes([]byte(text))
	case EncodingUTF16LE:
		out, err = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(text))
	case EncodingUTF16BE:
		out, err = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(text))
	default:
		return nil, &EncodingError{Attempted: []string{e.Name}}
	}
	if err != nil {
		return nil, &EncodingError{Attempted: []string{e.Name}}
	}

	if e.BOM {
		out = append(append([]byte(nil), bomFor(e.Name)...), out...)
	}
	return out, nil
}

func bomFor(name string) []byte {
	switch name {
	case EncodingUTF8:
		return bomUTF8
	case EncodingUTF16LE:
		return bomUTF16LE
	case EncodingUTF16BE:
		return bomUTF16BE
	}
	return nil
}

func decodeCharmap(cm *charmap.Charmap, data []byte) (string, error) {
	out, err := cm.NewDecoder().Bytes(data)
	if err != nil {
		return "", &EncodingError{Attempted: []string{cm.String()}}
	}
	return string(out), nil
}
