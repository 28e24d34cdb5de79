// Package model holds the plain data types shared across the pipeline:
// OCR geometry (BoundingBox, Word, Paragraph) and the formatted result
// handed to the popup.
package model

import "strings"

// BoundingBox is four floats in [0,1], normalized to the source image
// size. Coordinates are never pixels. Axis-aligned; rotation is not
// modeled.
type BoundingBox struct {
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// Left, Right, Top, Bottom return the box's edges in normalized space.
func (b BoundingBox) Left() float64   { return b.CenterX - b.Width/2 }
func (b BoundingBox) Right() float64  { return b.CenterX + b.Width/2 }
func (b BoundingBox) Top() float64    { return b.CenterY - b.Height/2 }
func (b BoundingBox) Bottom() float64 { return b.CenterY + b.Height/2 }

// Contains reports whether (x, y) falls within the box's edges.
func (b BoundingBox) Contains(x, y float64) bool {
	return x >= b.Left() && x <= b.Right() && y >= b.Top() && y <= b.Bottom()
}

// IsVertical reports whether a box reads as a vertical line (taller
// than wide), used when a paragraph carries no explicit orientation.
func (b BoundingBox) IsVertical() bool { return b.Height > b.Width }

// Word is a text fragment with a trailing separator (usually empty for
// Japanese) and a normalized bounding box.
type Word struct {
	Text      string      `json:"text"`
	Separator string      `json:"separator,omitempty"`
	Box       BoundingBox `json:"box"`
}

// Paragraph is an ordered run of Words forming one OCR text block.
//
// Invariant: FullText()[WordStart(i):WordStart(i)+len(Words[i].Text)]
// equals Words[i].Text, where WordStart(i) sums len(Words[j].Text) for
// j<i. Separators contribute characters to FullText but are NOT counted
// by WordStart — a known discrepancy inherited from the source
// implementation (see the hitscan package) and preserved deliberately:
// it only matters when a provider emits non-empty separators, which the
// Japanese-default providers never do.
type Paragraph struct {
	Words      []Word      `json:"words"`
	Box        BoundingBox `json:"box"`
	IsVertical bool        `json:"is_vertical"`
}

// FullText reconstructs the paragraph's text by concatenating each
// word's text and separator, in order.
func (p Paragraph) FullText() string {
	var b strings.Builder
	for _, w := range p.Words {
		b.WriteString(w.Text)
		b.WriteString(w.Separator)
	}
	return b.String()
}

// WordStart returns the character offset of Words[i] within FullText,
// counting only preceding words' Text lengths (in runes) and
// deliberately excluding separators, matching the source behavior.
func (p Paragraph) WordStart(i int) int {
	start := 0
	for j := 0; j < i && j < len(p.Words); j++ {
		start += len([]rune(p.Words[j].Text))
	}
	return start
}

// Orientation reports whether this paragraph should be read as vertical
// text: either the paragraph says so explicitly, or its box is taller
// than it is wide.
func (p Paragraph) Orientation() bool {
	return p.IsVertical || p.Box.IsVertical()
}

// Sense is one JMdict sense: a non-empty gloss list plus normalized
// part-of-speech and misc tags (both stripped of the leading '&' and
// trailing ';' JMdict wraps them in).
type Sense struct {
	Glosses []string `json:"glosses"`
	POS     []string `json:"pos,omitempty"`
	Misc    []string `json:"misc,omitempty"`
}

// DictionaryEntryResult is the formatted, ranked lookup result returned
// to the popup (spec.md §3 "DictionaryEntryResult").
type DictionaryEntryResult struct {
	ID          int      `json:"id"`
	WrittenForm string   `json:"written_form"`
	Reading     string   `json:"reading,omitempty"`
	Senses      []Sense  `json:"senses"`
	Tags        []string `json:"tags,omitempty"`
	Process     []string `json:"deconjugation_process,omitempty"`
	Priority    float64  `json:"priority"`
	MatchLen    int      `json:"match_len"`
}
