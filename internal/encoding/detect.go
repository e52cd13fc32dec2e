package encoding

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

// Charset names reported by NewUTF8Reader.
const (
	UTF8        = "UTF-8"
	UTF16LE     = "UTF-16LE"
	UTF16BE     = "UTF-16BE"
	Windows1252 = "windows-1252"
	ISO88599    = "ISO-8859-9"
)

const sniffLen = 4096

var boms = []struct {
	prefix  []byte
	charset string
}{
	{[]byte{0xEF, 0xBB, 0xBF}, UTF8},
	{[]byte{0xFF, 0xFE}, UTF16LE},
	{[]byte{0xFE, 0xFF}, UTF16BE},
}

// NewUTF8Reader returns a reader that decodes r to UTF-8 along with the charset it detected.
// A UTF-8 byte order mark is dropped. Spreadsheet exports that are neither UTF-8 nor
// UTF-16 are usually Windows-1252, which is also the fallback.
func NewUTF8Reader(r io.Reader) (io.Reader, string, error) {
	br := bufio.NewReaderSize(r, sniffLen)

	buf, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", fmt.Errorf("peek: %w", err)
	}

	charset, skip := detect(buf)
	if skip > 0 {
		_, _ = br.Discard(skip)
	}

	dec := decoder(charset)
	if dec == nil {
		return br, charset, nil
	}

	return transform.NewReader(br, dec), charset, nil
}

// detect names the charset of buf and how many leading bytes to drop.
func detect(buf []byte) (string, int) {
	for _, bom := range boms {
		if bytes.HasPrefix(buf, bom.prefix) {
			if bom.charset == UTF8 {
				return UTF8, len(bom.prefix)
			}

			// The UTF-16 decoders consume their own BOM.
			return bom.charset, 0
		}
	}

	if validUTF8(buf, len(buf) == sniffLen) {
		return UTF8, 0
	}

	result, err := chardet.NewTextDetector().DetectBest(buf)
	if err != nil {
		return Windows1252, 0
	}

	switch result.Charset {
	case "UTF-8":
		return UTF8, 0
	case "ISO-8859-9":
		return ISO88599, 0
	default:
		return Windows1252, 0
	}
}

// validUTF8 ignores a trailing partial rune when buf is a truncated window.
func validUTF8(buf []byte, truncated bool) bool {
	if truncated {
		for i := 1; i < utf8.UTFMax && i <= len(buf); i++ {
			if !utf8.RuneStart(buf[len(buf)-i]) {
				continue
			}

			if !utf8.FullRune(buf[len(buf)-i:]) {
				buf = buf[:len(buf)-i]
			}

			break
		}
	}

	return utf8.Valid(buf)
}

func decoder(charset string) *encoding.Decoder {
	switch charset {
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
	case ISO88599:
		return charmap.ISO8859_9.NewDecoder()
	case Windows1252:
		return charmap.Windows1252.NewDecoder()
	}

	return nil
}
