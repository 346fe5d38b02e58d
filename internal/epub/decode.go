package epub

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// xmlEncodingPattern matches the encoding pseudo-attribute of an XML prolog.
var xmlEncodingPattern = regexp.MustCompile(`^(?:\xEF\xBB\xBF)?\s*<\?xml[^>]*?encoding\s*=\s*["']([A-Za-z0-9._:-]+)["']`)

// toUTF8 returns data as UTF-8. An encoding declared in the XML prolog
// wins; otherwise valid UTF-8 is kept as is and anything else goes through
// HTML charset detection (BOM, meta charset, windows-1252 fallback).
// Remaining invalid sequences become U+FFFD.
func toUTF8(data []byte) ([]byte, error) {
	var enc encoding.Encoding
	if m := xmlEncodingPattern.FindSubmatch(data); m != nil {
		enc, _ = charset.Lookup(string(m[1]))
	}
	if enc == nil && !utf8.Valid(data) {
		enc, _, _ = charset.DetermineEncoding(data, "")
	}

	if enc != nil {
		out, _, err := transform.Bytes(enc.NewDecoder(), data)
		if err != nil {
			return nil, fmt.Errorf("%w: decode: %v", ErrParse, err)
		}
		data = out
	}

	if !utf8.Valid(data) {
		out, _, err := transform.Bytes(unicode.UTF8.NewDecoder(), data)
		if err != nil {
			return nil, fmt.Errorf("%w: decode: %v", ErrParse, err)
		}
		data = out
	}
	return data, nil
}
