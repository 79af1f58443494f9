package yarascan

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderExcerptStripsEmbeddedNULs(t *testing.T) {
	// Wide-string matches come back as UTF-16LE, one NUL per character.
	wide := []byte("e\x00v\x00i\x00l\x00")
	got := RenderExcerpt(KindText, wide)
	assert.Equal(t, "evil", got)
	assert.NotContains(t, got, "\x00")
}

func TestRenderExcerptHexPreviewTruncation(t *testing.T) {
	long := bytes.Repeat([]byte{0xab}, 21)
	got := RenderExcerpt(KindHex, long)
	assert.Equal(t, 20, strings.Count(got, "ab"))
	assert.True(t, strings.HasSuffix(got, " ..."))
}

func TestRenderExcerptHexPreviewExactBoundary(t *testing.T) {
	exact := bytes.Repeat([]byte{0x01}, 20)
	got := RenderExcerpt(KindHex, exact)
	assert.Equal(t, 20, strings.Count(got, "01"))
	assert.NotContains(t, got, "...")

	short := []byte{0xde, 0xad, 0xbe, 0xef}
	assert.Equal(t, "de ad be ef", RenderExcerpt(KindHex, short))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindText, Classify([]byte("plain text")))
	assert.Equal(t, KindText, Classify([]byte("w\x00i\x00d\x00e\x00")))
	assert.Equal(t, KindText, Classify([]byte("tabs\tand\nnewlines")))
	assert.Equal(t, KindHex, Classify([]byte{0x4d, 0x5a, 0x90, 0x00, 0x03}))
	assert.Equal(t, KindHex, Classify([]byte{0xff, 0xfe}))
}
