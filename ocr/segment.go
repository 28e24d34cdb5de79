package ocr

import (
	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"github.com/rtr46/hoverdict/model"
)

// kagome tokenizer instance, adapted from the teacher's tokenize.go
// init pattern. A construction failure leaves kg nil; Segment then
// falls back to returning the line unchanged rather than panicking.
var kg *tokenizer.Tokenizer

func init() {
	if t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos()); err == nil {
		kg = t
	}
}

// Segment approximates per-word boxes for a line-only OCR result: a
// paragraph whose single word spans the whole line with no internal
// word boundaries. It tokenizes the line's text with kagome and
// distributes the line's box across the resulting tokens by
// proportional rune-length interpolation along the flow axis.
//
// If line already carries more than one word, or tokenization is
// unavailable, or the text is empty, line is returned unchanged.
func Segment(line model.Paragraph) model.Paragraph {
	if kg == nil || len(line.Words) != 1 {
		return line
	}

	text := line.Words[0].Text
	if text == "" {
		return line
	}

	tokens := kg.Tokenize(text)
	if len(tokens) <= 1 {
		return line
	}

	runeTotal := len([]rune(text))
	if runeTotal == 0 {
		return line
	}

	vertical := line.Orientation()
	box := line.Words[0].Box

	words := make([]model.Word, 0, len(tokens))
	runeOffset := 0
	for _, tok := range tokens {
		surface := tok.Surface
		if surface == "" {
			continue
		}
		tokRunes := len([]rune(surface))
		startFrac := float64(runeOffset) / float64(runeTotal)
		endFrac := float64(runeOffset+tokRunes) / float64(runeTotal)
		runeOffset += tokRunes

		words = append(words, model.Word{
			Text: surface,
			Box:  interpolateBox(box, vertical, startFrac, endFrac),
		})
	}

	if len(words) == 0 {
		return line
	}

	line.Words = words
	return line
}

// interpolateBox slices a fraction [startFrac, endFrac) of box along
// its flow axis (top-to-bottom for vertical, left-to-right for
// horizontal), leaving the cross-axis extent unchanged.
func interpolateBox(box model.BoundingBox, vertical bool, startFrac, endFrac float64) model.BoundingBox {
	if vertical {
		top, bottom := box.Top(), box.Bottom()
		sliceTop := top + startFrac*(bottom-top)
		sliceBottom := top + endFrac*(bottom-top)
		return model.BoundingBox{
			CenterX: box.CenterX,
			CenterY: (sliceTop + sliceBottom) / 2,
			Width:   box.Width,
			Height:  sliceBottom - sliceTop,
		}
	}

	left, right := box.Left(), box.Right()
	sliceLeft := left + startFrac*(right-left)
	sliceRight := left + endFrac*(right-left)
	return model.BoundingBox{
		CenterX: (sliceLeft + sliceRight) / 2,
		CenterY: box.CenterY,
		Width:   sliceRight - sliceLeft,
		Height:  box.Height,
	}
}
