package textextract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/khajiev13/lab-tutor-sub001/internal/filekind"
)

// Typed extraction failures. Callers branch on these with errors.Is; none of
// the extractors silently returns empty text for malformed input.
var (
	ErrNotArchive  = errors.New("not a valid zip archive")
	ErrMissingPart = errors.New("missing expected document part")
	ErrUnreadable  = errors.New("unreadable encoding")
	ErrNoText      = errors.New("no text extracted")
)

// Extract decodes raw file bytes into plain text for the given kind.
func Extract(kind filekind.Kind, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrNoText)
	}
	switch kind {
	case filekind.KindText:
		return extractPlain(data)
	case filekind.KindWord:
		return extractWord(data)
	case filekind.KindPowerpoint:
		return extractPowerpoint(data)
	default:
		return "", fmt.Errorf("no extractor for kind %q", kind)
	}
}

func extractPlain(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: plain text is not valid UTF-8", ErrUnreadable)
	}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return "", ErrNoText
	}
	return s, nil
}

// extractWord treats the input as an OpenXML package, locates the main
// document body (word/document.xml) and concatenates paragraph text runs in
// document order. Paragraphs are separated by newlines.
func extractWord(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotArchive, err)
	}

	body := findZipFile(zr, "word/document.xml")
	if body == nil {
		return "", fmt.Errorf("%w: word/document.xml", ErrMissingPart)
	}

	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("open word/document.xml: %w", err)
	}
	defer rc.Close()

	paragraphs, err := collectParagraphs(xml.NewDecoder(rc), "t", "p")
	if err != nil {
		return "", fmt.Errorf("parse word/document.xml: %w", err)
	}

	text := strings.TrimSpace(strings.Join(paragraphs, "\n"))
	if text == "" {
		return "", fmt.Errorf("%w: document body has no text runs", ErrNoText)
	}
	return text, nil
}

// extractPowerpoint concatenates text runs from every slide part. Slides are
// visited in archive order; runs within one paragraph keep their order.
func extractPowerpoint(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotArchive, err)
	}

	var slides []string
	found := false
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, "ppt/slides/") || !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		found = true

		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open %s: %w", f.Name, err)
		}
		paragraphs, err := collectParagraphs(xml.NewDecoder(rc), "t", "p")
		_ = rc.Close()
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", f.Name, err)
		}
		if s := strings.TrimSpace(strings.Join(paragraphs, "\n")); s != "" {
			slides = append(slides, s)
		}
	}

	if !found {
		return "", fmt.Errorf("%w: ppt/slides/*.xml", ErrMissingPart)
	}
	text := strings.TrimSpace(strings.Join(slides, "\n"))
	if text == "" {
		return "", fmt.Errorf("%w: slides have no text runs", ErrNoText)
	}
	return text, nil
}

// collectParagraphs walks an OpenXML part gathering the character data of
// every run element (local name runTag), flushing a paragraph each time a
// paragraph element (local name paraTag) closes.
func collectParagraphs(dec *xml.Decoder, runTag, paraTag string) ([]string, error) {
	var (
		paragraphs []string
		current    strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			paragraphs = append(paragraphs, s)
		}
		current.Reset()
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == runTag {
				var v string
				if err := dec.DecodeElement(&v, &t); err != nil {
					return nil, err
				}
				current.WriteString(v)
			}
		case xml.EndElement:
			if t.Name.Local == paraTag {
				flush()
			}
		}
	}
	flush()
	return paragraphs, nil
}

func findZipFile(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}
