package intake

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sniffBytes = 4096

// Shelter spreadsheets come out of desktop Excel in whatever code page the
// machine uses; Cyrillic ones are the common case besides UTF-8.
var legacyCharsets = map[string]encoding.Encoding{
	"windows-1251": charmap.Windows1251,
	"KOI8-R":       charmap.KOI8R,
	"ISO-8859-5":   charmap.ISO8859_5,
	"ISO-8859-1":   charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
	"ISO-8859-9":   charmap.ISO8859_9,
}

// utf8Reader returns a reader that yields r as UTF-8 together with the name
// of the detected source charset. Byte order marks win over content
// sniffing, and undetectable input is read as windows-1251.
func utf8Reader(r io.Reader) (io.Reader, string, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(sniffBytes)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", fmt.Errorf("peeking input: %w", err)
	}

	switch {
	case bytes.HasPrefix(head, []byte{0xEF, 0xBB, 0xBF}):
		_, _ = br.Discard(3)
		return br, "UTF-8", nil
	case bytes.HasPrefix(head, []byte{0xFF, 0xFE}):
		return decodeWith(br, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)), "UTF-16LE", nil
	case bytes.HasPrefix(head, []byte{0xFE, 0xFF}):
		return decodeWith(br, unicode.UTF16(unicode.BigEndian, unicode.UseBOM)), "UTF-16BE", nil
	case validUTF8Prefix(head, len(head) == sniffBytes):
		return br, "UTF-8", nil
	}

	if res, err := chardet.NewTextDetector().DetectBest(head); err == nil {
		if res.Charset == "UTF-8" {
			return br, res.Charset, nil
		}

		if enc, ok := legacyCharsets[res.Charset]; ok {
			return decodeWith(br, enc), res.Charset, nil
		}
	}

	return decodeWith(br, charmap.Windows1251), "windows-1251", nil
}

func decodeWith(r io.Reader, enc encoding.Encoding) io.Reader {
	return transform.NewReader(r, enc.NewDecoder())
}

// validUTF8Prefix reports whether b is valid UTF-8, tolerating one rune cut
// off at the end when b is a truncated window.
func validUTF8Prefix(b []byte, truncated bool) bool {
	if utf8.Valid(b) {
		return true
	}

	if !truncated {
		return false
	}

	for cut := 1; cut < utf8.UTFMax && cut < len(b); cut++ {
		if utf8.Valid(b[:len(b)-cut]) && !utf8.FullRune(b[len(b)-cut:]) {
			return true
		}
	}

	return false
}
