package dom

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

// Computed properties read by the cascade.
const (
	propColor           = "color"
	propBackgroundColor = "background-color"
	propBackgroundImage = "background-image"
	propFontFamily      = "font-family"
)

// declaration is one longhand property assignment.
type declaration struct {
	property  string
	value     string
	important bool
}

// rule is one compiled selector with the declarations it applies.
type rule struct {
	sel         cascadia.Sel
	specificity cascadia.Specificity
	order       int
	decls       []declaration
}

// urlRef matches url(...) references with optional quotes.
var urlRef = regexp.MustCompile(`(?i)url\(\s*(?:"([^"]*)"|'([^']*)'|([^)'"]*))\s*\)`)

// URLRefs returns the addresses referenced by url() functions in a CSS value,
// in order of appearance. Gradient functions carry no references and
// contribute nothing.
func URLRefs(value string) []string {
	var out []string
	for _, m := range urlRef.FindAllStringSubmatch(value, -1) {
		ref := strings.TrimSpace(m[1] + m[2] + m[3])
		if ref != "" {
			out = append(out, ref)
		}
	}
	return out
}

// resolveURLRefs rewrites every url() reference in value to an absolute
// address relative to base.
func resolveURLRefs(value string, base *url.URL) string {
	if base == nil || !strings.Contains(strings.ToLower(value), "url(") {
		return value
	}
	return urlRef.ReplaceAllStringFunc(value, func(m string) string {
		refs := URLRefs(m)
		if len(refs) == 0 {
			return m
		}
		ref := refs[0]
		if strings.HasPrefix(strings.ToLower(ref), "data:") {
			return m
		}
		u, err := url.Parse(ref)
		if err != nil {
			return m
		}
		return `url("` + base.ResolveReference(u).String() + `")`
	})
}

// compileSheet parses a style sheet into rules. Rules nested in @media and
// @supports blocks are kept unless they only target print; every other
// at-rule is skipped. order is advanced for each compiled rule.
func compileSheet(text string, base *url.URL, order *int) ([]rule, error) {
	sheet, err := parser.Parse(text)
	if err != nil {
		return nil, err
	}
	return compileRules(sheet.Rules, base, order), nil
}

func compileRules(rules []*css.Rule, base *url.URL, order *int) []rule {
	var out []rule
	for _, r := range rules {
		if r.Kind == css.AtRule {
			if r.EmbedsRules() && appliesToScreen(r) {
				out = append(out, compileRules(r.Rules, base, order)...)
			}
			continue
		}

		decls := expandDeclarations(r.Declarations, base)
		if len(decls) == 0 {
			continue
		}
		for _, selector := range r.Selectors {
			sel, err := cascadia.Parse(selector)
			if err != nil {
				// Unsupported selectors never match.
				continue
			}
			*order++
			out = append(out, rule{
				sel:         sel,
				specificity: sel.Specificity(),
				order:       *order,
				decls:       decls,
			})
		}
	}
	return out
}

func appliesToScreen(r *css.Rule) bool {
	name := strings.TrimPrefix(strings.ToLower(r.Name), "@")
	switch name {
	case "media":
		prelude := strings.ToLower(r.Prelude)
		return !strings.Contains(prelude, "print") || strings.Contains(prelude, "screen")
	case "supports", "layer", "container":
		return true
	default:
		return false
	}
}

// parseInline parses the declarations of a style attribute. The parser
// drops the value of a final declaration without a terminating semicolon,
// so one is always appended.
func parseInline(style string, base *url.URL) []declaration {
	style = strings.TrimSpace(style)
	if style == "" {
		return nil
	}
	if !strings.HasSuffix(style, ";") {
		style += ";"
	}
	decls, err := parser.ParseDeclarations(style)
	if err != nil {
		return nil
	}
	return expandDeclarations(decls, base)
}

// expandDeclarations keeps the properties the cascade computes and expands
// the background and font shorthands into longhands.
func expandDeclarations(in []*css.Declaration, base *url.URL) []declaration {
	var out []declaration
	for _, d := range in {
		prop := strings.ToLower(strings.TrimSpace(d.Property))
		value := strings.TrimSpace(d.Value)
		switch prop {
		case propColor, propBackgroundColor, propFontFamily:
			out = append(out, declaration{prop, value, d.Important})
		case propBackgroundImage:
			out = append(out, declaration{prop, resolveURLRefs(value, base), d.Important})
		case "background":
			img, col := splitBackground(value)
			out = append(out,
				declaration{propBackgroundImage, resolveURLRefs(img, base), d.Important},
				declaration{propBackgroundColor, col, d.Important},
			)
		case "font":
			if family := fontShorthandFamily(value); family != "" {
				out = append(out, declaration{propFontFamily, family, d.Important})
			}
		}
	}
	return out
}

// splitBackground extracts the image layers and the color of a background
// shorthand. Missing parts take their initial values.
func splitBackground(value string) (image, color string) {
	if isGlobalKeyword(value) {
		return value, value
	}
	var images []string
	color = "transparent"
	for _, tok := range splitTopLevel(value, ' ') {
		lower := strings.ToLower(tok)
		switch {
		case strings.HasPrefix(lower, "url(") || strings.Contains(lower, "gradient("):
			images = append(images, tok)
		default:
			if _, ok := ParseColor(tok); ok || lower == "currentcolor" {
				color = tok
			}
		}
	}
	if len(images) == 0 {
		return "none", color
	}
	return strings.Join(images, ", "), color
}

// fontShorthandFamily returns the family list of a font shorthand, which
// follows the size token ("bold 16px/1.5 Inter, sans-serif").
func fontShorthandFamily(value string) string {
	if isGlobalKeyword(value) {
		return value
	}
	toks := splitTopLevel(value, ' ')
	for i, tok := range toks {
		if looksLikeFontSize(tok) && i+1 < len(toks) {
			return strings.Join(toks[i+1:], " ")
		}
	}
	return ""
}

func looksLikeFontSize(tok string) bool {
	tok = strings.ToLower(tok)
	if size, _, ok := strings.Cut(tok, "/"); ok {
		tok = size
	}
	switch tok {
	case "xx-small", "x-small", "small", "medium", "large", "x-large", "xx-large", "smaller", "larger":
		return true
	}
	if tok == "" || !(tok[0] >= '0' && tok[0] <= '9' || tok[0] == '.') {
		return false
	}
	for _, unit := range []string{"px", "em", "rem", "pt", "%", "vw", "vh", "ex", "ch", "pc", "cm", "mm", "in"} {
		if strings.HasSuffix(tok, unit) {
			return true
		}
	}
	return false
}

// splitTopLevel splits s on sep outside parentheses and quotes, dropping
// empty parts.
func splitTopLevel(s string, sep rune) []string {
	var (
		parts []string
		cur   strings.Builder
		depth int
		quote rune
	)
	flush := func() {
		if p := strings.TrimSpace(cur.String()); p != "" {
			parts = append(parts, p)
		}
		cur.Reset()
	}
	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case r == sep && depth == 0:
			flush()
			continue
		case sep == ' ' && depth == 0 && (r == '\t' || r == '\n'):
			flush()
			continue
		}
		cur.WriteRune(r)
	}
	flush()
	return parts
}

func isGlobalKeyword(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "inherit", "initial", "unset", "revert":
		return true
	}
	return false
}
