package extract

import (
	"strings"

	"github.com/nao1215/brandsnap/internal/dom"
	"github.com/nao1215/brandsnap/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MinTextLength is the shortest text block kept, in characters.
const MinTextLength = 3

// TextTags are the text-bearing elements, in the order they are listed to
// the extractor. Matches are visited in document order.
var TextTags = []string{
	"h1", "h2", "h3", "h4", "h5", "h6",
	"p", "blockquote", "figcaption",
	"li", "a", "span", "button", "label", "td", "th",
}

// blockContainers read only their direct text under TextPolicyDirect.
var blockContainers = map[string]struct{}{
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	"p": {}, "blockquote": {}, "figcaption": {},
}

// inlineEmphasis are the children whose text counts as a container's own.
var inlineEmphasis = map[string]struct{}{
	"b": {}, "strong": {}, "i": {}, "em": {}, "u": {}, "mark": {},
	"small": {}, "sub": {}, "sup": {}, "code": {},
}

// ExtractText returns the distinct text blocks of doc in document order.
func ExtractText(doc *dom.Document, opts Options) []model.TextBlock {
	blocks := []model.TextBlock{}
	if opts.TextCap <= 0 {
		return blocks
	}
	upper := cases.Upper(language.Und)
	seen := make(map[string]struct{})

	for _, n := range doc.FindAll(TextTags...) {
		text := collapseSpace(elementText(n, opts.TextPolicy))
		if len([]rune(text)) < MinTextLength {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		blocks = append(blocks, model.TextBlock{Tag: upper.String(n.Tag), Text: text})
		if len(blocks) >= opts.TextCap {
			break
		}
	}
	return blocks
}

func elementText(n *dom.Node, policy TextPolicy) string {
	if policy != TextPolicyDirect {
		return n.TextContent()
	}
	if _, ok := blockContainers[n.Tag]; !ok {
		return n.TextContent()
	}
	var b strings.Builder
	for _, c := range n.Children {
		switch {
		case c.Type == dom.TextNode:
			b.WriteString(c.Text)
		case c.Tag == "br":
			b.WriteByte(' ')
		default:
			if _, ok := inlineEmphasis[c.Tag]; ok {
				b.WriteString(c.TextContent())
			}
		}
	}
	return b.String()
}

// collapseSpace trims s and folds whitespace runs into single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
