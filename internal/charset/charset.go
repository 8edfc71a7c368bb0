// Package charset resolves character encodings for byte-stream input.
//
// Detection is best-effort and never fails the caller: the detector's
// guess is validated against the supported-encoding registry and any
// miss degrades to UTF-8, with the cause kept observable on the
// Detection result. Explicitly configured encodings are the opposite:
// an unknown name is an error, because the caller asked for something
// specific.
package charset

import (
	"fmt"
	"io"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultName is the encoding every fallback path lands on.
const DefaultName = "utf-8"

// DetectBytes is how much of the input prefix the detector should see.
const DetectBytes = 4096

// DetectFn produces a best-guess charset name for a byte sample.
// Swappable in tests.
var DetectFn = func(sample []byte) (string, error) {
	res, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil {
		return "", err
	}
	return res.Charset, nil
}

// Default returns the fallback encoding.
func Default() encoding.Encoding { return unicode.UTF8 }

// Detection is the outcome of charset detection for one input.
type Detection struct {
	// Name is the canonical name of the encoding in use. After a
	// fallback it is DefaultName.
	Name     string
	Encoding encoding.Encoding
	// Fallback carries the cause when the default was substituted for
	// the detector's guess, nil otherwise.
	Fallback error
}

// Detect guesses the encoding of sample. It cannot fail: a detector
// error or an unsupported guess maps to the default encoding and the
// cause is recorded on the result.
func Detect(sample []byte) Detection {
	name, err := DetectFn(sample)
	if err != nil {
		return fallback(fmt.Errorf("detect: %w", err))
	}
	enc, canonical, err := Resolve(name)
	if err != nil {
		return fallback(fmt.Errorf("resolve guess: %w", err))
	}
	return Detection{Name: canonical, Encoding: enc}
}

func fallback(cause error) Detection {
	return Detection{Name: DefaultName, Encoding: Default(), Fallback: cause}
}

// Resolve maps an encoding name to a registry entry. The WHATWG label
// index is consulted first (it is case-insensitive and knows the usual
// aliases), then the IANA index. Unknown names are an error; Resolve is
// the strict path used for explicitly configured encodings.
func Resolve(name string) (encoding.Encoding, string, error) {
	label := strings.TrimSpace(name)
	if label == "" {
		return nil, "", fmt.Errorf("charset: empty encoding name")
	}
	if enc, err := htmlindex.Get(label); err == nil {
		canonical, err := htmlindex.Name(enc)
		if err != nil {
			canonical = strings.ToLower(label)
		}
		return enc, canonical, nil
	}
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil || enc == nil {
		return nil, "", fmt.Errorf("charset: unsupported encoding %q", name)
	}
	canonical, err := ianaindex.IANA.Name(enc)
	if err != nil {
		canonical = strings.ToLower(label)
	}
	return enc, canonical, nil
}

// NewReader returns r decoded from enc to UTF-8. A leading byte order
// mark for the common Unicode encodings is consumed and never reaches
// the caller; when present it also overrides enc, since a BOM is
// stronger evidence than any guess.
func NewReader(r io.Reader, enc encoding.Encoding) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder()))
}
