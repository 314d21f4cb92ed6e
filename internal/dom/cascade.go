package dom

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Initial values of the root element.
const (
	DefaultColor      = "rgb(0, 0, 0)"
	DefaultFontFamily = `"Times New Roman"`
	noImage           = "none"
)

// userAgentStyles holds the few browser defaults that differ from
// inheritance for the properties the cascade computes.
var userAgentStyles = map[string]map[string]string{
	"a":    {propColor: "rgb(0, 0, 238)"},
	"mark": {propColor: DefaultColor, propBackgroundColor: "rgb(255, 255, 0)"},
	"code": {propFontFamily: "monospace"},
	"kbd":  {propFontFamily: "monospace"},
	"pre":  {propFontFamily: "monospace"},
	"samp": {propFontFamily: "monospace"},
	"tt":   {propFontFamily: "monospace"},
}

// cascade computes styles for the elements of one document.
type cascade struct {
	rules []rule
	base  *url.URL
}

// winner is the declaration chosen for one property.
type winner struct {
	decl  declaration
	tier  int // 0 normal, 1 inline, 2 important, 3 important inline
	rule  *rule
	found bool
}

func (w *winner) offer(d declaration, tier int, r *rule) {
	if !w.found || tier > w.tier || (tier == w.tier && outranks(r, w.rule)) {
		*w = winner{decl: d, tier: tier, rule: r, found: true}
	}
}

// outranks reports whether a declaration from rule a beats one from rule b
// at the same tier. Inline declarations have no rule and win ties by
// coming last.
func outranks(a, b *rule) bool {
	if a == nil {
		return true
	}
	if b == nil {
		return false
	}
	if a.specificity != b.specificity {
		return b.specificity.Less(a.specificity)
	}
	return a.order > b.order
}

// compute resolves the style of element n given its parent's computed style.
func (c *cascade) compute(n *html.Node, parent ComputedStyle) ComputedStyle {
	var (
		color, bgColor, bgImage, font winner
	)
	pick := func(d declaration, important, inline bool, r *rule) {
		tier := 0
		if inline {
			tier = 1
		}
		if important {
			tier += 2
		}
		switch d.property {
		case propColor:
			color.offer(d, tier, r)
		case propBackgroundColor:
			bgColor.offer(d, tier, r)
		case propBackgroundImage:
			bgImage.offer(d, tier, r)
		case propFontFamily:
			font.offer(d, tier, r)
		}
	}

	for i := range c.rules {
		r := &c.rules[i]
		if !r.sel.Match(n) {
			continue
		}
		for _, d := range r.decls {
			pick(d, d.important, false, r)
		}
	}
	for _, d := range parseInline(getAttr(n, "style"), c.base) {
		pick(d, d.important, true, nil)
	}

	ua := userAgentStyles[n.Data]
	var out ComputedStyle

	out.Color = parent.Color
	if v, ok := ua[propColor]; ok {
		out.Color = v
	}
	if color.found {
		out.Color = resolveInherited(color.decl.value, parent.Color, DefaultColor, func(v string) (string, bool) {
			return NormalizeColor(v, parent.Color)
		})
	}

	out.FontFamily = parent.FontFamily
	if v, ok := ua[propFontFamily]; ok {
		out.FontFamily = v
	}
	if font.found {
		out.FontFamily = resolveInherited(font.decl.value, parent.FontFamily, DefaultFontFamily, func(v string) (string, bool) {
			v = strings.Join(strings.Fields(v), " ")
			return v, v != ""
		})
	}

	out.BackgroundColor = Transparent
	if v, ok := ua[propBackgroundColor]; ok {
		out.BackgroundColor = v
	}
	if bgColor.found {
		out.BackgroundColor = resolveReset(bgColor.decl.value, parent.BackgroundColor, Transparent, func(v string) (string, bool) {
			return NormalizeColor(v, out.Color)
		})
	}

	out.BackgroundImage = noImage
	if bgImage.found {
		out.BackgroundImage = resolveReset(bgImage.decl.value, parent.BackgroundImage, noImage, func(v string) (string, bool) {
			return v, v != ""
		})
	}
	return out
}

// resolveInherited resolves the value of an inherited property.
// Invalid values are ignored and the inherited value is kept.
func resolveInherited(v, inherited, initial string, parse func(string) (string, bool)) string {
	switch strings.ToLower(v) {
	case "inherit", "unset", "revert":
		return inherited
	case "initial":
		return initial
	}
	if out, ok := parse(v); ok {
		return out
	}
	return inherited
}

// resolveReset resolves the value of a property that is not inherited.
func resolveReset(v, inherited, initial string, parse func(string) (string, bool)) string {
	switch strings.ToLower(v) {
	case "inherit":
		return inherited
	case "initial", "unset", "revert":
		return initial
	}
	if out, ok := parse(v); ok {
		return out
	}
	return initial
}

// rootStyle is the style the document element inherits from.
func rootStyle() ComputedStyle {
	return ComputedStyle{
		Color:           DefaultColor,
		BackgroundColor: Transparent,
		BackgroundImage: noImage,
		FontFamily:      DefaultFontFamily,
	}
}
