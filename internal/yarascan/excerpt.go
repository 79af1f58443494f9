package yarascan

import (
	"fmt"
	"strings"
)

// StringKind classifies a matched pattern for excerpt rendering.
type StringKind int

const (
	// KindText is a textual pattern; the excerpt is the matched text with
	// embedded NUL bytes stripped (the engine inserts them when matching
	// wide strings).
	KindText StringKind = iota
	// KindHex is a byte pattern; the excerpt is a hex preview capped at
	// hexPreviewMax bytes.
	KindHex
)

// hexPreviewMax bounds the number of bytes shown for a binary match.
const hexPreviewMax = 20

// truncationMarker is appended when a binary match exceeds hexPreviewMax.
const truncationMarker = "..."

// Classify infers the pattern kind from the matched bytes. The binding does
// not expose the compiler's hex-string flag, so a match is considered
// textual when every byte is printable once NULs are ignored.
func Classify(data []byte) StringKind {
	for _, b := range data {
		if b == 0 {
			continue
		}
		if b == '\t' || b == '\n' || b == '\r' {
			continue
		}
		if b < 0x20 || b > 0x7e {
			return KindHex
		}
	}
	return KindText
}

// RenderExcerpt converts one matched occurrence into its report excerpt.
// It is a pure function so the translation logic is testable without
// a real engine behind it.
func RenderExcerpt(kind StringKind, data []byte) string {
	if kind == KindText {
		return stripNUL(data)
	}
	return hexPreview(data)
}

func stripNUL(data []byte) string {
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		if c != 0 {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func hexPreview(data []byte) string {
	n := len(data)
	if n > hexPreviewMax {
		n = hexPreviewMax
	}
	parts := make([]string, 0, n+1)
	for _, c := range data[:n] {
		parts = append(parts, fmt.Sprintf("%02x", c))
	}
	if len(data) > hexPreviewMax {
		parts = append(parts, truncationMarker)
	}
	return strings.Join(parts, " ")
}
