package utils

import (
	"io"
	"strings"
	"unsafe"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

func B2S(b []byte) string {
	return *(*string)(unsafe.Pointer(&b))
}

// Windows-1252 string 转 UTF-8
func Win1252ToUtf8Str(s string) (d string, e error) {
	reader := transform.NewReader(strings.NewReader(s), charmap.Windows1252.NewDecoder())
	t, e := io.ReadAll(reader)
	if e != nil {
		return
	}
	d = B2S(t)
	return
}
