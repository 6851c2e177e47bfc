package fs

import (
	"bytes"
	"io"
)

func bytesReader(n int) io.Reader {
	return bytes.NewReader(bytes.Repeat([]byte("a"), n))
}
