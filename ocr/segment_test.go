package ocr

import (
	"testing"

	"github.com/rtr46/hoverdict/model"
)

func TestSegmentLeavesMultiWordLineUnchanged(t *testing.T) {
	line := model.Paragraph{
		Words: []model.Word{
			{Text: "これ", Box: model.BoundingBox{CenterX: 0.1, CenterY: 0.5, Width: 0.2, Height: 0.1}},
			{Text: "は", Box: model.BoundingBox{CenterX: 0.3, CenterY: 0.5, Width: 0.1, Height: 0.1}},
		},
	}

	got := Segment(line)

	if len(got.Words) != 2 {
		t.Fatalf("Segment() changed word count to %d, want 2 (unchanged)", len(got.Words))
	}
}

func TestSegmentLeavesEmptyTextUnchanged(t *testing.T) {
	line := model.Paragraph{
		Words: []model.Word{{Text: "", Box: model.BoundingBox{Width: 0.1, Height: 0.1}}},
	}

	got := Segment(line)

	if len(got.Words) != 1 || got.Words[0].Text != "" {
		t.Fatalf("Segment() on empty text = %+v, want unchanged", got)
	}
}

func TestSegmentTokenizesSingleWordLine(t *testing.T) {
	if kg == nil {
		t.Skip("kagome tokenizer unavailable in this environment")
	}

	line := model.Paragraph{
		Words: []model.Word{
			{Text: "これは本です", Box: model.BoundingBox{CenterX: 0.5, CenterY: 0.5, Width: 1.0, Height: 0.1}},
		},
	}

	got := Segment(line)

	if len(got.Words) <= 1 {
		t.Fatalf("Segment() produced %d words, want more than 1 for a multi-token line", len(got.Words))
	}

	var joined string
	for _, w := range got.Words {
		joined += w.Text
	}
	if joined != "これは本です" {
		t.Errorf("segmented words joined = %q, want これは本です", joined)
	}

	// Tokens should tile the line left to right with no gaps or overlap
	// in their flow-axis extent.
	for i := 1; i < len(got.Words); i++ {
		prevRight := got.Words[i-1].Box.Right()
		curLeft := got.Words[i].Box.Left()
		if curLeft < prevRight-1e-9 {
			t.Errorf("word %d overlaps word %d: prevRight=%v curLeft=%v", i, i-1, prevRight, curLeft)
		}
	}
}

func TestInterpolateBoxHorizontalSlicesLeftToRight(t *testing.T) {
	box := model.BoundingBox{CenterX: 0.5, CenterY: 0.5, Width: 1.0, Height: 0.2}

	first := interpolateBox(box, false, 0.0, 0.5)
	second := interpolateBox(box, false, 0.5, 1.0)

	if first.Height != box.Height || second.Height != box.Height {
		t.Errorf("cross-axis extent should be preserved: first.Height=%v second.Height=%v want %v", first.Height, second.Height, box.Height)
	}
	if first.Right() > second.Left()+1e-9 {
		t.Errorf("first slice (right=%v) overlaps second slice (left=%v)", first.Right(), second.Left())
	}
	if first.Left() != box.Left() {
		t.Errorf("first.Left() = %v, want box.Left() = %v", first.Left(), box.Left())
	}
	if second.Right() != box.Right() {
		t.Errorf("second.Right() = %v, want box.Right() = %v", second.Right(), box.Right())
	}
}

func TestInterpolateBoxVerticalSlicesTopToBottom(t *testing.T) {
	box := model.BoundingBox{CenterX: 0.5, CenterY: 0.5, Width: 0.2, Height: 1.0}

	first := interpolateBox(box, true, 0.0, 0.5)
	second := interpolateBox(box, true, 0.5, 1.0)

	if first.Width != box.Width || second.Width != box.Width {
		t.Errorf("cross-axis extent should be preserved: first.Width=%v second.Width=%v want %v", first.Width, second.Width, box.Width)
	}
	if first.Bottom() > second.Top()+1e-9 {
		t.Errorf("first slice (bottom=%v) overlaps second slice (top=%v)", first.Bottom(), second.Top())
	}
	if first.Top() != box.Top() {
		t.Errorf("first.Top() = %v, want box.Top() = %v", first.Top(), box.Top())
	}
	if second.Bottom() != box.Bottom() {
		t.Errorf("second.Bottom() = %v, want box.Bottom() = %v", second.Bottom(), box.Bottom())
	}
}
