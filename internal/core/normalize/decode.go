package normalize

import (
	"bytes"
	"mime"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode turns a fetched body into clean UTF-8 text.
// A byte order mark wins, then the charset declared in contentType, then UTF-8,
// then Windows-1251 for bodies that are not UTF-8 but read like Cyrillic.
// Bytes that do not decode are replaced with U+FFFD and control characters
// other than tab and line breaks are dropped
func Decode(body []byte, contentType string) string {
	if len(body) == 0 {
		return ""
	}

	var text string
	switch {
	case bytes.HasPrefix(body, utf8BOM):
		text = string(body[len(utf8BOM):])
	case bytes.HasPrefix(body, []byte{0xFF, 0xFE}), bytes.HasPrefix(body, []byte{0xFE, 0xFF}):
		text = decodeWith(unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), body)
	default:
		switch enc := declared(contentType); {
		case enc != nil:
			text = decodeWith(enc, body)
		case !utf8.Valid(body) && looksCP1251(body):
			text = decodeWith(charmap.Windows1251, body)
		default:
			text = string(body)
		}
	}

	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "\uFFFD")
	}
	return Sanitize(text)
}

// declared returns the encoding named by the charset parameter when it is not
// UTF-8 and is known
func declared(contentType string) encoding.Encoding {
	if contentType == "" {
		return nil
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil
	}
	label := strings.ToLower(strings.TrimSpace(params["charset"]))
	if label == "" || label == "utf-8" || label == "utf8" {
		return nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil
	}
	return enc
}

func decodeWith(enc encoding.Encoding, body []byte) string {
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return string(body)
	}
	return string(out)
}

// looksCP1251 reports whether most high bytes fall in the Windows-1251 Cyrillic
// letter block (plus Ё and ё)
func looksCP1251(body []byte) bool {
	high, cyr := 0, 0
	for _, c := range body {
		if c < 0x80 {
			continue
		}
		high++
		if c >= 0xC0 || c == 0xA8 || c == 0xB8 {
			cyr++
		}
	}
	return high > 0 && cyr*10 >= high*8
}
