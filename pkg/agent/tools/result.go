package tools

import (
	"fmt"
	"strings"
)

// ContentType identifies the kind of a Content block.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
)

// Content is one block of a tool result: either text or binary data with a mime type.
type Content struct {
	Type     ContentType `json:"type"`
	Text     string      `json:"text,omitempty"`
	Data     []byte      `json:"data,omitempty"`
	MimeType string      `json:"mimeType,omitempty"`
}

// Result is the envelope every tool returns.
//
// IsError is the failure marker; callers must check it rather than inspect
// the message text. ErrorKind carries a machine-readable failure class when
// IsError is set.
type Result struct {
	Content   []Content              `json:"content"`
	IsError   bool                   `json:"isError"`
	ErrorKind string                 `json:"errorKind,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// TextResult builds a success result with a single text block.
func TextResult(format string, args ...interface{}) *Result {
	text := format
	if len(args) > 0 {
		text = fmt.Sprintf(format, args...)
	}
	return &Result{Content: []Content{{Type: ContentText, Text: text}}}
}

// ErrorResult builds a failure result.
func ErrorResult(kind, message string) *Result {
	return &Result{
		Content:   []Content{{Type: ContentText, Text: message}},
		IsError:   true,
		ErrorKind: kind,
	}
}

// WithImage appends a binary image block.
func (r *Result) WithImage(data []byte, mimeType string) *Result {
	r.Content = append(r.Content, Content{Type: ContentImage, Data: data, MimeType: mimeType})
	return r
}

// WithMetadata sets one metadata entry.
func (r *Result) WithMetadata(key string, value interface{}) *Result {
	if r.Metadata == nil {
		r.Metadata = make(map[string]interface{})
	}
	r.Metadata[key] = value
	return r
}

// Text joins all text blocks with newlines.
func (r *Result) Text() string {
	var parts []string
	for _, c := range r.Content {
		if c.Type == ContentText {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Images returns the binary blocks of the result.
func (r *Result) Images() []Content {
	var out []Content
	for _, c := range r.Content {
		if c.Type == ContentImage {
			out = append(out, c)
		}
	}
	return out
}
