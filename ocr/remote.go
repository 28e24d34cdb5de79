package ocr

import (
	"bytes"
	"context"
	"io"
	"math"
	"net/http"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/rtr46/hoverdict/logger"
	"github.com/rtr46/hoverdict/model"
)

// requestTimeout is spec.md §5's OCR HTTP request budget.
const requestTimeout = 10 * time.Second

// Field numbers for the hand-rolled wire schema this adapter speaks.
// There is no .proto file in the retrieval pack to generate from — the
// pack's only protobuf surface is the indirect google.golang.org/protobuf
// dependency go-ichiran pulls in for its own tracing chain — so encoding
// is done directly against protowire's varint/length-delimited/fixed64
// primitives rather than invoking protoc. This mirrors the nested
// objects_response.text.text_layout.paragraphs shape spec.md §6
// describes: Paragraph > Line > Word > Box, with a writing-direction
// enum on each Line.
const (
	fieldRequestImage  = 1
	fieldRequestWidth  = 2
	fieldRequestHeight = 3

	fieldResponseParagraphs = 1

	fieldParagraphLines = 1

	fieldLineWords            = 1
	fieldLineWritingDirection = 2

	fieldWordText = 1
	fieldWordBox  = 2

	fieldBoxCenterX = 1
	fieldBoxCenterY = 2
	fieldBoxWidth   = 3
	fieldBoxHeight  = 4
)

// writingDirectionVertical is the enum value signaling vertical text,
// matching spec.md §4.4's "enum writing direction" on each line.
const writingDirectionVertical = 1

// RemoteProvider is the HTTP-backed reference OCR adapter: POST the
// image as a protobuf-encoded request, parse a protobuf-encoded
// response into paragraphs. Client setup follows the teacher corpus's
// http.Client{Timeout:...} + http.NewRequestWithContext idiom
// (japaniel-readerer/cmd/readerer/main.go).
type RemoteProvider struct {
	Endpoint string
	Client   *http.Client
}

// NewRemoteProvider builds a RemoteProvider with the spec-mandated
// 10-second request timeout.
func NewRemoteProvider(endpoint string) *RemoteProvider {
	return &RemoteProvider{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: requestTimeout},
	}
}

// Scan implements Provider by sending image to Endpoint and decoding
// the protobuf response. Any network, HTTP, or decode failure is
// logged and reported as a provider failure (ok=false), per spec.md
// §7's OCR error-handling policy.
func (p *RemoteProvider) Scan(ctx context.Context, image []byte, width, height int) ([]model.Paragraph, bool) {
	log := logger.Stage("ocr")

	body := encodeRequest(image, width, height)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Msg("failed to build OCR request")
		return nil, false
	}
	req.Header.Set("Content-Type", "application/x-protobuf")

	resp, err := p.Client.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("OCR request failed")
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().Int("status", resp.StatusCode).Msg("OCR provider returned non-2xx")
		return nil, false
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).Msg("failed to read OCR response body")
		return nil, false
	}

	lines, err := decodeResponse(data)
	if err != nil {
		log.Error().Err(err).Msg("failed to decode OCR response")
		return nil, false
	}

	// The wire schema carries individual OCR lines, not logical
	// paragraphs (spec.md §4.4's "providers that return lines rather
	// than logical paragraphs"). Segment first fills in word boundaries
	// for any line the remote backend reported as one word spanning the
	// whole line, then Regroup classifies main-vs-furigana lines and
	// merges adjacent main lines into paragraphs.
	for i, line := range lines {
		lines[i] = Segment(line)
	}
	paragraphs := Regroup(lines)

	return filterJapanese(paragraphs), true
}

func encodeRequest(image []byte, width, height int) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldRequestImage, protowire.BytesType)
	buf = protowire.AppendBytes(buf, image)
	buf = protowire.AppendTag(buf, fieldRequestWidth, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(width))
	buf = protowire.AppendTag(buf, fieldRequestHeight, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(height))
	return buf
}

// decodeResponse flattens the wire response into per-line paragraphs.
// The wire schema nests Line messages inside an outer Paragraph
// message, but that outer grouping is the remote backend's own guess
// at paragraph boundaries, not spec.md §4.4's "logical paragraph" — so
// each Line is kept as its own model.Paragraph here and the real
// grouping (Regroup) and word-boundary fallback (Segment) run as a
// separate pass in Scan.
func decodeResponse(data []byte) ([]model.Paragraph, error) {
	var lines []model.Paragraph

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		data = data[n:]

		if num != fieldResponseParagraphs || typ != protowire.BytesType {
			skip, err := skipField(data, typ)
			if err != nil {
				return nil, err
			}
			data = data[skip:]
			continue
		}

		msg, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		data = data[n:]

		wireLines, err := decodeWireParagraph(msg)
		if err != nil {
			return nil, err
		}
		lines = append(lines, wireLines...)
	}

	return lines, nil
}

// decodeWireParagraph decodes one wire Paragraph message into one
// model.Paragraph per contained Line.
func decodeWireParagraph(data []byte) ([]model.Paragraph, error) {
	var lines []model.Paragraph

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		data = data[n:]

		if num != fieldParagraphLines || typ != protowire.BytesType {
			skip, err := skipField(data, typ)
			if err != nil {
				return nil, err
			}
			data = data[skip:]
			continue
		}

		msg, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		data = data[n:]

		words, vertical, err := decodeLine(msg)
		if err != nil {
			return nil, err
		}
		lines = append(lines, lineParagraph(words, vertical))
	}

	return lines, nil
}

// lineParagraph wraps one decoded line's words into a model.Paragraph
// whose box encloses all of them.
func lineParagraph(words []model.Word, vertical bool) model.Paragraph {
	para := model.Paragraph{Words: words, IsVertical: vertical}

	left, right, top, bottom := math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)
	hasBox := false
	for _, w := range words {
		hasBox = true
		left = math.Min(left, w.Box.Left())
		right = math.Max(right, w.Box.Right())
		top = math.Min(top, w.Box.Top())
		bottom = math.Max(bottom, w.Box.Bottom())
	}
	if hasBox {
		para.Box = model.BoundingBox{
			CenterX: (left + right) / 2,
			CenterY: (top + bottom) / 2,
			Width:   right - left,
			Height:  bottom - top,
		}
	}
	return para
}

func decodeLine(data []byte) ([]model.Word, bool, error) {
	var words []model.Word
	vertical := false

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, false, protowire.ParseError(n)
		}
		data = data[n:]

		switch {
		case num == fieldLineWords && typ == protowire.BytesType:
			msg, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, false, protowire.ParseError(n)
			}
			data = data[n:]
			w, err := decodeWord(msg)
			if err != nil {
				return nil, false, err
			}
			words = append(words, w)

		case num == fieldLineWritingDirection && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, false, protowire.ParseError(n)
			}
			data = data[n:]
			if v == writingDirectionVertical {
				vertical = true
			}

		default:
			skip, err := skipField(data, typ)
			if err != nil {
				return nil, false, err
			}
			data = data[skip:]
		}
	}
	return words, vertical, nil
}

func decodeWord(data []byte) (model.Word, error) {
	var word model.Word

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return word, protowire.ParseError(n)
		}
		data = data[n:]

		switch {
		case num == fieldWordText && typ == protowire.BytesType:
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return word, protowire.ParseError(n)
			}
			data = data[n:]
			word.Text = string(b)

		case num == fieldWordBox && typ == protowire.BytesType:
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return word, protowire.ParseError(n)
			}
			data = data[n:]
			box, err := decodeBox(b)
			if err != nil {
				return word, err
			}
			word.Box = box

		default:
			skip, err := skipField(data, typ)
			if err != nil {
				return word, err
			}
			data = data[skip:]
		}
	}
	return word, nil
}

func decodeBox(data []byte) (model.BoundingBox, error) {
	var box model.BoundingBox

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return box, protowire.ParseError(n)
		}
		data = data[n:]

		if typ != protowire.Fixed64Type {
			skip, err := skipField(data, typ)
			if err != nil {
				return box, err
			}
			data = data[skip:]
			continue
		}

		bits, n := protowire.ConsumeFixed64(data)
		if n < 0 {
			return box, protowire.ParseError(n)
		}
		data = data[n:]
		v := math.Float64frombits(bits)

		switch num {
		case fieldBoxCenterX:
			box.CenterX = v
		case fieldBoxCenterY:
			box.CenterY = v
		case fieldBoxWidth:
			box.Width = v
		case fieldBoxHeight:
			box.Height = v
		}
	}
	return box, nil
}

// skipField consumes and discards one field's value of the given wire
// type, returning the number of bytes consumed.
func skipField(data []byte, typ protowire.Type) (int, error) {
	n := protowire.ConsumeFieldValue(0, typ, data)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return n, nil
}
