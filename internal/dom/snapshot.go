package dom

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"
)

// ErrEmptySnapshot is returned when a snapshot carries no document element.
var ErrEmptySnapshot = errors.New("snapshot has no document element")

// snapshotDocument is the JSON shape produced by the browser snapshot script.
type snapshotDocument struct {
	URL     string        `json:"url"`
	BaseURI string        `json:"baseURI"`
	Title   string        `json:"title"`
	Root    *snapshotNode `json:"root"`
}

type snapshotNode struct {
	Tag           string            `json:"tag,omitempty"`
	Text          *string           `json:"text,omitempty"`
	Attrs         map[string]string `json:"attrs,omitempty"`
	Style         *ComputedStyle    `json:"style,omitempty"`
	CurrentSrc    string            `json:"currentSrc,omitempty"`
	NaturalWidth  int               `json:"naturalWidth,omitempty"`
	NaturalHeight int               `json:"naturalHeight,omitempty"`
	Children      []*snapshotNode   `json:"children,omitempty"`
}

// FromSnapshot builds a Document from the JSON serialization of a live page.
// Colors in the snapshot are the browser's computed values and are kept
// verbatim.
func FromSnapshot(data []byte) (*Document, error) {
	var snap snapshotDocument
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	if snap.Root == nil || snap.Root.Tag == "" {
		return nil, ErrEmptySnapshot
	}

	doc := &Document{
		URL:   snap.URL,
		Title: strings.Join(strings.Fields(snap.Title), " "),
	}
	base := snap.BaseURI
	if base == "" {
		base = snap.URL
	}
	if u, err := url.Parse(base); err == nil && base != "" {
		doc.Base = u
	}
	doc.Root = convertSnapshot(snap.Root)
	return doc, nil
}

func convertSnapshot(s *snapshotNode) *Node {
	if s.Text != nil && s.Tag == "" {
		return NewText(*s.Text)
	}
	attrs := make(map[string]string, len(s.Attrs))
	for k, v := range s.Attrs {
		attrs[strings.ToLower(k)] = v
	}
	n := NewElement(s.Tag, attrs)
	if s.Style != nil {
		n.Style = *s.Style
	}
	n.CurrentSrc = s.CurrentSrc
	n.NaturalWidth = s.NaturalWidth
	n.NaturalHeight = s.NaturalHeight
	for _, c := range s.Children {
		if c == nil {
			continue
		}
		n.AppendChild(convertSnapshot(c))
	}
	return n
}
