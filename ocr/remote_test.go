package ocr

import (
	"context"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func encodeBoxForTest(box struct{ centerX, centerY, width, height float64 }) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldBoxCenterX, protowire.Fixed64Type)
	buf = protowire.AppendFixed64(buf, math.Float64bits(box.centerX))
	buf = protowire.AppendTag(buf, fieldBoxCenterY, protowire.Fixed64Type)
	buf = protowire.AppendFixed64(buf, math.Float64bits(box.centerY))
	buf = protowire.AppendTag(buf, fieldBoxWidth, protowire.Fixed64Type)
	buf = protowire.AppendFixed64(buf, math.Float64bits(box.width))
	buf = protowire.AppendTag(buf, fieldBoxHeight, protowire.Fixed64Type)
	buf = protowire.AppendFixed64(buf, math.Float64bits(box.height))
	return buf
}

func encodeWordForTest(text string, box []byte) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldWordText, protowire.BytesType)
	buf = protowire.AppendString(buf, text)
	buf = protowire.AppendTag(buf, fieldWordBox, protowire.BytesType)
	buf = protowire.AppendBytes(buf, box)
	return buf
}

func encodeLineForTest(words [][]byte, vertical bool) []byte {
	var buf []byte
	for _, w := range words {
		buf = protowire.AppendTag(buf, fieldLineWords, protowire.BytesType)
		buf = protowire.AppendBytes(buf, w)
	}
	if vertical {
		buf = protowire.AppendTag(buf, fieldLineWritingDirection, protowire.VarintType)
		buf = protowire.AppendVarint(buf, writingDirectionVertical)
	}
	return buf
}

func encodeParagraphForTest(lines [][]byte) []byte {
	var buf []byte
	for _, l := range lines {
		buf = protowire.AppendTag(buf, fieldParagraphLines, protowire.BytesType)
		buf = protowire.AppendBytes(buf, l)
	}
	return buf
}

func encodeResponseForTest(paragraphs [][]byte) []byte {
	var buf []byte
	for _, p := range paragraphs {
		buf = protowire.AppendTag(buf, fieldResponseParagraphs, protowire.BytesType)
		buf = protowire.AppendBytes(buf, p)
	}
	return buf
}

func TestDecodeResponseRoundTripsWordsAndBoxes(t *testing.T) {
	box := encodeBoxForTest(struct{ centerX, centerY, width, height float64 }{0.5, 0.5, 0.2, 0.1})
	word := encodeWordForTest("本", box)
	line := encodeLineForTest([][]byte{word}, false)
	para := encodeParagraphForTest([][]byte{line})
	resp := encodeResponseForTest([][]byte{para})

	paragraphs, err := decodeResponse(resp)
	if err != nil {
		t.Fatalf("decodeResponse() error = %v", err)
	}
	if len(paragraphs) != 1 {
		t.Fatalf("got %d paragraphs, want 1", len(paragraphs))
	}
	if len(paragraphs[0].Words) != 1 || paragraphs[0].Words[0].Text != "本" {
		t.Fatalf("paragraph words = %+v, want one word 本", paragraphs[0].Words)
	}
	gotBox := paragraphs[0].Words[0].Box
	if gotBox.CenterX != 0.5 || gotBox.Width != 0.2 {
		t.Errorf("word box = %+v, want centerX=0.5 width=0.2", gotBox)
	}
	if paragraphs[0].IsVertical {
		t.Error("paragraph marked vertical, want horizontal")
	}
}

func TestDecodeResponseMarksVerticalFromLineDirection(t *testing.T) {
	box := encodeBoxForTest(struct{ centerX, centerY, width, height float64 }{0.1, 0.1, 0.05, 0.3})
	word := encodeWordForTest("縦", box)
	line := encodeLineForTest([][]byte{word}, true)
	para := encodeParagraphForTest([][]byte{line})
	resp := encodeResponseForTest([][]byte{para})

	paragraphs, err := decodeResponse(resp)
	if err != nil {
		t.Fatalf("decodeResponse() error = %v", err)
	}
	if !paragraphs[0].IsVertical {
		t.Error("expected paragraph to be marked vertical")
	}
}

func TestDecodeResponseEmptyInputYieldsNoParagraphs(t *testing.T) {
	paragraphs, err := decodeResponse(nil)
	if err != nil {
		t.Fatalf("decodeResponse(nil) error = %v", err)
	}
	if len(paragraphs) != 0 {
		t.Errorf("got %d paragraphs, want 0", len(paragraphs))
	}
}

func TestEncodeRequestIncludesImageAndDimensions(t *testing.T) {
	body := encodeRequest([]byte{1, 2, 3}, 640, 480)

	var gotImage []byte
	var gotWidth, gotHeight uint64
	data := body
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			t.Fatalf("ConsumeTag failed at %d", len(body)-len(data))
		}
		data = data[n:]
		switch num {
		case fieldRequestImage:
			b, n := protowire.ConsumeBytes(data)
			gotImage = b
			data = data[n:]
		case fieldRequestWidth:
			v, n := protowire.ConsumeVarint(data)
			gotWidth = v
			data = data[n:]
		case fieldRequestHeight:
			v, n := protowire.ConsumeVarint(data)
			gotHeight = v
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(0, typ, data)
			data = data[n:]
		}
	}

	if string(gotImage) != "\x01\x02\x03" {
		t.Errorf("image = %v, want [1 2 3]", []byte(gotImage))
	}
	if gotWidth != 640 || gotHeight != 480 {
		t.Errorf("width=%d height=%d, want 640x480", gotWidth, gotHeight)
	}
}

func TestRemoteProviderScanReturnsParagraphsOnSuccess(t *testing.T) {
	box := encodeBoxForTest(struct{ centerX, centerY, width, height float64 }{0.5, 0.5, 0.2, 0.1})
	word := encodeWordForTest("本", box)
	line := encodeLineForTest([][]byte{word}, false)
	para := encodeParagraphForTest([][]byte{line})
	resp := encodeResponseForTest([][]byte{para})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if len(body) == 0 {
			t.Error("request body was empty")
		}
		w.WriteHeader(http.StatusOK)
		w.Write(resp)
	}))
	defer srv.Close()

	p := NewRemoteProvider(srv.URL)
	paragraphs, ok := p.Scan(context.Background(), []byte{1, 2, 3}, 100, 100)
	if !ok {
		t.Fatal("Scan() ok = false, want true")
	}
	if len(paragraphs) != 1 || paragraphs[0].Words[0].Text != "本" {
		t.Fatalf("paragraphs = %+v, want one paragraph with word 本", paragraphs)
	}
}

func TestRemoteProviderScanFiltersOutNonJapaneseOnlyResult(t *testing.T) {
	box := encodeBoxForTest(struct{ centerX, centerY, width, height float64 }{0.5, 0.5, 0.2, 0.1})
	word := encodeWordForTest("hello", box)
	line := encodeLineForTest([][]byte{word}, false)
	para := encodeParagraphForTest([][]byte{line})
	resp := encodeResponseForTest([][]byte{para})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write(resp)
	}))
	defer srv.Close()

	p := NewRemoteProvider(srv.URL)
	paragraphs, ok := p.Scan(context.Background(), []byte{1}, 10, 10)
	if !ok {
		t.Fatal("Scan() ok = false, want true (provider succeeded, just filtered all paragraphs)")
	}
	if len(paragraphs) != 0 {
		t.Errorf("got %d paragraphs, want 0 after Japanese-only filtering", len(paragraphs))
	}
}

func TestRemoteProviderScanFailsOnNon2xxStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewRemoteProvider(srv.URL)
	_, ok := p.Scan(context.Background(), []byte{1}, 10, 10)
	if ok {
		t.Fatal("Scan() ok = true, want false on 500 response")
	}
}

func TestRemoteProviderScanFailsOnMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte{0xFF, 0xFF, 0xFF})
	}))
	defer srv.Close()

	p := NewRemoteProvider(srv.URL)
	_, ok := p.Scan(context.Background(), []byte{1}, 10, 10)
	if ok {
		t.Fatal("Scan() ok = true, want false on undecodable body")
	}
}
