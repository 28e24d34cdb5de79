// Package ocr defines the pluggable OCR provider contract, a
// line-to-paragraph regrouping pass for providers that only return flat
// lines, a word-boundary segmentation fallback for providers that only
// return line text with no per-word boxes, and one HTTP/protobuf
// reference adapter.
package ocr

import (
	"context"

	"github.com/rtr46/hoverdict/model"
)

// Provider is the abstract OCR contract: send an image, get back
// paragraphs or a failure. A nil slice with ok=false signals provider
// failure (network, decode, non-2xx); ok=true with an empty (possibly
// nil) slice signals "no text found". The two are told apart by ok,
// not by the slice, and the caller must not conflate them.
type Provider interface {
	Scan(ctx context.Context, image []byte, width, height int) ([]model.Paragraph, bool)
}

// hasJapanese reports whether s contains at least one Hiragana
// (U+3040..U+309F), Katakana (U+30A0..U+30FF), or CJK Unified
// Ideographs (U+4E00..U+9FAF) rune.
func hasJapanese(s string) bool {
	for _, r := range s {
		switch {
		case r >= 0x3040 && r <= 0x309F:
			return true
		case r >= 0x30A0 && r <= 0x30FF:
			return true
		case r >= 0x4E00 && r <= 0x9FAF:
			return true
		}
	}
	return false
}

// filterJapanese drops paragraphs whose full text contains no
// Japanese-range characters.
func filterJapanese(paragraphs []model.Paragraph) []model.Paragraph {
	out := paragraphs[:0:0]
	for _, p := range paragraphs {
		if hasJapanese(p.FullText()) {
			out = append(out, p)
		}
	}
	return out
}
