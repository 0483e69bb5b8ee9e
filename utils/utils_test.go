package utils

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTmpSibling(t *testing.T) {
	out := filepath.Join("some", "dir", "label.tif")
	tmp := TmpSibling(out, "")
	assert.Equal(t, filepath.Join("some", "dir"), filepath.Dir(tmp))
	assert.True(t, strings.HasPrefix(filepath.Base(tmp), "tmp_"))
	assert.True(t, strings.HasSuffix(tmp, "_label.tif"))
	assert.NotEqual(t, tmp, TmpSibling(out, ""))

	assert.Equal(t, "scratch", filepath.Dir(TmpSibling(out, "scratch")))
}

func TestWin1252ToUtf8Str(t *testing.T) {
	dec, err := Win1252ToUtf8Str("BEF\xc6STELSE")
	assert.NoError(t, err)
	assert.Equal(t, "BEFÆSTELSE", dec)
}
