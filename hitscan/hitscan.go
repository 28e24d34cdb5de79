// Package hitscan maps a cursor position to the dictionary lookup
// suffix it points at: which paragraph contains the cursor, which word
// within it, and which character offset within that word.
package hitscan

import (
	"github.com/rtr46/hoverdict/model"
)

// Result is one successful hit: the paragraph's full text, the
// character index the cursor resolved to, and the lookup suffix
// (full_text[Index:]) the lookup stage consumes.
type Result struct {
	FullText string
	Index    int
	Suffix   string
}

// Scan finds the paragraph and character the normalized cursor
// position (cursorX, cursorY in [0,1], already offset and divided by
// the capture region's origin and dimensions by the caller) points at.
// Returns false if no paragraph's box contains the cursor.
//
// Word selection within a matching paragraph uses each word's
// "expanded" box — widened to the adjacent edge of its neighbors — so
// the cursor doesn't need to land exactly on a glyph. Expansion is
// consulted only for word selection: paragraph containment always uses
// the paragraph's own (un-expanded) box, so when two paragraphs'
// expanded word boxes would both claim the cursor, the first paragraph
// in list order whose own box contains the point wins.
func Scan(paragraphs []model.Paragraph, cursorX, cursorY float64) (Result, bool) {
	for _, para := range paragraphs {
		if !para.Box.Contains(cursorX, cursorY) {
			continue
		}

		isVertical := para.Orientation()
		wordIdx, ok := findWord(para.Words, cursorX, cursorY, isVertical)
		if !ok {
			continue
		}
		word := para.Words[wordIdx]

		charOffset := charOffsetInWord(word, cursorX, cursorY, isVertical)

		fullText := para.FullText()
		finalIndex := para.WordStart(wordIdx) + charOffset
		fullRunes := []rune(fullText)
		if finalIndex >= len(fullRunes) {
			continue
		}

		return Result{
			FullText: fullText,
			Index:    finalIndex,
			Suffix:   string(fullRunes[finalIndex:]),
		}, true
	}
	return Result{}, false
}

// findWord returns the index of the first word in words whose expanded
// box contains (x, y).
func findWord(words []model.Word, x, y float64, isVertical bool) (int, bool) {
	for i, w := range words {
		var before, after *model.BoundingBox
		if i > 0 {
			before = &words[i-1].Box
		}
		if i < len(words)-1 {
			after = &words[i+1].Box
		}
		if expandedContains(w.Box, before, after, isVertical, x, y) {
			return i, true
		}
	}
	return 0, false
}

// expandedContains reports whether (x, y) falls within box after
// widening it to close the gap to its flow-axis neighbors: leftward to
// the previous word's right edge and rightward to the next word's left
// edge for horizontal text, or the vertical equivalent for vertical
// text. The cross-axis edges are never expanded.
func expandedContains(box model.BoundingBox, before, after *model.BoundingBox, isVertical bool, x, y float64) bool {
	left, right := box.Left(), box.Right()
	top, bottom := box.Top(), box.Bottom()

	if !isVertical {
		if before != nil {
			left = min(left, before.Right())
		}
		if after != nil {
			right = max(right, after.Left())
		}
	} else {
		if before != nil {
			top = min(top, before.Bottom())
		}
		if after != nil {
			bottom = max(bottom, after.Top())
		}
	}

	return x >= left && x <= right && y >= top && y <= bottom
}

// charOffsetInWord computes which character within word the cursor
// lands on, by the fraction of the word's box the cursor has crossed
// along its reading axis (vertical: top-to-bottom; horizontal:
// left-to-right), clamped to the word's last character.
func charOffsetInWord(word model.Word, x, y float64, isVertical bool) int {
	runeCount := len([]rune(word.Text))
	if runeCount == 0 {
		return 0
	}

	var percent float64
	if isVertical {
		if word.Box.Height > 0 {
			topEdge := word.Box.Top()
			percent = clamp01((y - topEdge) / word.Box.Height)
		}
	} else {
		if word.Box.Width > 0 {
			leftEdge := word.Box.Left()
			percent = clamp01((x - leftEdge) / word.Box.Width)
		}
	}

	offset := int(percent * float64(runeCount))
	if offset > runeCount-1 {
		offset = runeCount - 1
	}
	return offset
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
