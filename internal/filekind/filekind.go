package filekind

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Kind tags a supported lecture-document type for extractor dispatch.
type Kind string

const (
	KindText       Kind = "text"
	KindWord       Kind = "word"
	KindPowerpoint Kind = "powerpoint"
)

// ErrUnsupported marks files whose extension and declared content type are
// both unrecognized. Callers branch on it with errors.Is.
var ErrUnsupported = errors.New("unsupported file kind")

var extKinds = map[string]Kind{
	".txt":  KindText,
	".text": KindText,
	".docx": KindWord,
	".pptx": KindPowerpoint,
}

var contentTypeKinds = map[string]Kind{
	"text/plain": KindText,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   KindWord,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": KindPowerpoint,
}

// Classify resolves a file kind from the filename extension first, then the
// declared content type. Matching is case-insensitive; the declared content
// type may carry parameters ("text/plain; charset=utf-8").
func Classify(filename string, contentType string) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if k, ok := extKinds[ext]; ok {
		return k, nil
	}

	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if k, ok := contentTypeKinds[ct]; ok {
		return k, nil
	}

	return "", fmt.Errorf("%w: name=%s content_type=%s", ErrUnsupported, filename, contentType)
}
