package extract

import (
	"slices"
	"strings"

	"github.com/nao1215/brandsnap/internal/dom"
)

// ColorCount is a frequency table of color tokens that remembers the order
// in which tokens were first seen.
type ColorCount struct {
	counts map[string]int
	order  []string
}

// NewColorCount returns an empty table.
func NewColorCount() *ColorCount {
	return &ColorCount{counts: make(map[string]int)}
}

// Add counts one occurrence of token. Transparent tokens are ignored.
func (c *ColorCount) Add(token string) {
	if dom.IsTransparent(token) {
		return
	}
	if _, ok := c.counts[token]; !ok {
		c.order = append(c.order, token)
	}
	c.counts[token]++
}

// Count returns the occurrences of token.
func (c *ColorCount) Count(token string) int {
	return c.counts[token]
}

// Len returns the number of distinct tokens.
func (c *ColorCount) Len() int {
	return len(c.order)
}

// Top returns at most n tokens by descending count. Ties keep first-seen order.
func (c *ColorCount) Top(n int) []string {
	ranked := slices.Clone(c.order)
	slices.SortStableFunc(ranked, func(a, b string) int {
		return c.counts[b] - c.counts[a]
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	if ranked == nil {
		ranked = []string{}
	}
	return ranked
}

// FontSet is an ordered set of font family names.
type FontSet struct {
	seen  map[string]struct{}
	names []string
}

// NewFontSet returns an empty set.
func NewFontSet() *FontSet {
	return &FontSet{seen: make(map[string]struct{})}
}

// AddStack adds every family of a font-family value such as
// `"Helvetica Neue", Arial, sans-serif`.
func (f *FontSet) AddStack(stack string) {
	for _, name := range strings.Split(stack, ",") {
		name = strings.Trim(strings.TrimSpace(name), `"'`)
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := f.seen[name]; ok {
			continue
		}
		f.seen[name] = struct{}{}
		f.names = append(f.names, name)
	}
}

// Names returns the families in first-seen order.
func (f *FontSet) Names() []string {
	if f.names == nil {
		return []string{}
	}
	return slices.Clone(f.names)
}

// AggregateStyles visits every element once and returns the ranked colors
// and the font families of the document.
func AggregateStyles(doc *dom.Document) (colors, fonts []string) {
	counts := NewColorCount()
	set := NewFontSet()
	doc.Root.Walk(func(n *dom.Node) bool {
		if n.Type != dom.ElementNode {
			return true
		}
		counts.Add(n.Style.Color)
		counts.Add(n.Style.BackgroundColor)
		set.AddStack(n.Style.FontFamily)
		return true
	})
	return counts.Top(MaxColors), set.Names()
}
