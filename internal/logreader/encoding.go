package logreader

import (
	"io"

	"golang.org/x/text/encoding/charmap"
)

// Decode wraps r, which yields bytes in the vendor tools' single-byte
// Windows-1252 encoding, with a reader that yields UTF-8.
func Decode(r io.Reader) io.Reader {
	return charmap.Windows1252.NewDecoder().Reader(r)
}
