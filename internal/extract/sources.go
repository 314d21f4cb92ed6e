package extract

import (
	"strconv"
	"strings"

	"github.com/nao1215/brandsnap/internal/dom"
	"github.com/nao1215/brandsnap/internal/urlnorm"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// lazySourceAttrs are the placeholder attributes lazy-loading libraries
// keep the real address in, in lookup order.
var lazySourceAttrs = []string{
	"data-src",
	"data-lazy-src",
	"data-original",
	"data-lazy",
	"data-url",
}

// previewMetaKeys are the meta property and name values that carry a
// preview image.
var previewMetaKeys = map[string]struct{}{
	"og:image":            {},
	"og:image:url":        {},
	"og:image:secure_url": {},
	"twitter:image":       {},
	"twitter:image:src":   {},
}

func imgElements(doc *dom.Document) []Candidate {
	var out []Candidate
	for _, n := range doc.FindAll("img") {
		if c, ok := imgCandidate(n.CurrentSrc, n.Attrs, n.NaturalWidth, n.NaturalHeight); ok {
			out = append(out, c)
		}
	}
	return out
}

// imgCandidate picks the best known address and size of an image element.
func imgCandidate(currentSrc string, attrs map[string]string, naturalW, naturalH int) (Candidate, bool) {
	src := strings.TrimSpace(currentSrc)
	if !urlnorm.IsFetchable(src) {
		src = strings.TrimSpace(attrs["src"])
	}
	if !urlnorm.IsFetchable(src) {
		for _, attr := range lazySourceAttrs {
			if v := strings.TrimSpace(attrs[attr]); urlnorm.IsFetchable(v) {
				src = v
				break
			}
		}
	}
	if !urlnorm.IsFetchable(src) {
		return Candidate{}, false
	}

	w, h := naturalW, naturalH
	if w <= 0 {
		w = parseDimension(attrs["width"])
	}
	if h <= 0 {
		h = parseDimension(attrs["height"])
	}
	return Candidate{URL: src, AltText: strings.TrimSpace(attrs["alt"]), Width: w, Height: h}, true
}

func sourceSets(doc *dom.Document) []Candidate {
	var out []Candidate
	for _, n := range doc.FindAll("img", "source") {
		set := n.Attr("srcset")
		if strings.TrimSpace(set) == "" {
			set = n.Attr("data-srcset")
		}
		if u := LastSrcsetURL(set); u != "" {
			out = append(out, Candidate{URL: u, AltText: strings.TrimSpace(n.Attr("alt"))})
		}
	}
	return out
}

func computedBackgrounds(doc *dom.Document) []Candidate {
	var out []Candidate
	doc.Root.Walk(func(n *dom.Node) bool {
		if n.Type == dom.ElementNode && n.Style.BackgroundImage != "" && n.Style.BackgroundImage != "none" {
			for _, ref := range dom.URLRefs(n.Style.BackgroundImage) {
				out = append(out, Candidate{URL: ref})
			}
		}
		return true
	})
	return out
}

func videoPosters(doc *dom.Document) []Candidate {
	var out []Candidate
	for _, n := range doc.FindAll("video") {
		if p := strings.TrimSpace(n.Attr("poster")); p != "" {
			out = append(out, Candidate{URL: p})
		}
	}
	return out
}

func previewMeta(doc *dom.Document) []Candidate {
	var out []Candidate
	doc.Root.Walk(func(n *dom.Node) bool {
		if n.Type != dom.ElementNode {
			return true
		}
		if strings.EqualFold(n.Attr("itemprop"), "image") {
			for _, attr := range []string{"content", "src", "href"} {
				if v := strings.TrimSpace(n.Attr(attr)); v != "" {
					out = append(out, Candidate{URL: v})
					break
				}
			}
			return true
		}
		if n.Tag != "meta" {
			return true
		}
		key := strings.ToLower(n.Attr("property"))
		if key == "" {
			key = strings.ToLower(n.Attr("name"))
		}
		if _, ok := previewMetaKeys[key]; ok {
			if v := strings.TrimSpace(n.Attr("content")); v != "" {
				out = append(out, Candidate{URL: v})
			}
		}
		return true
	})
	return out
}

func svgImages(doc *dom.Document) []Candidate {
	var out []Candidate
	for _, svg := range doc.FindAll("svg") {
		svg.Walk(func(n *dom.Node) bool {
			if n.IsElement("image") {
				href := n.Attr("href")
				if href == "" {
					href = n.Attr("xlink:href")
				}
				if href = strings.TrimSpace(href); href != "" {
					out = append(out, Candidate{URL: href})
				}
			}
			return true
		})
	}
	return out
}

func imageLinks(doc *dom.Document) []Candidate {
	var out []Candidate
	for _, n := range doc.FindAll("a") {
		href := strings.TrimSpace(n.Attr("href"))
		if href != "" && urlnorm.HasImageExtension(href) {
			out = append(out, Candidate{URL: href, AltText: strings.TrimSpace(n.Attr("title"))})
		}
	}
	return out
}

func inlineStyleBackgrounds(doc *dom.Document) []Candidate {
	var out []Candidate
	doc.Root.Walk(func(n *dom.Node) bool {
		if n.Type != dom.ElementNode || !n.HasAttr("style") {
			return true
		}
		for _, decl := range strings.Split(n.Attr("style"), ";") {
			prop, value, ok := strings.Cut(decl, ":")
			if !ok || !strings.HasPrefix(strings.ToLower(strings.TrimSpace(prop)), "background") {
				continue
			}
			for _, ref := range dom.URLRefs(value) {
				out = append(out, Candidate{URL: ref})
			}
		}
		return true
	})
	return out
}

func noscriptImages(doc *dom.Document) []Candidate {
	var out []Candidate
	for _, ns := range doc.FindAll("noscript") {
		// Without scripting the fallback is already parsed into elements.
		ns.Walk(func(n *dom.Node) bool {
			if n.IsElement("img") {
				if c, ok := imgCandidate("", n.Attrs, 0, 0); ok {
					out = append(out, c)
				}
			}
			return true
		})
		markup := ns.TextContent()
		if strings.TrimSpace(markup) == "" {
			continue
		}
		out = append(out, parseFallbackImages(markup)...)
	}
	return out
}

// parseFallbackImages parses markup found in a noscript block and returns
// its image elements.
func parseFallbackImages(markup string) []Candidate {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil
	}
	var out []Candidate
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Img {
			attrs := make(map[string]string, len(n.Attr))
			for _, a := range n.Attr {
				attrs[strings.ToLower(a.Key)] = a.Val
			}
			if c, ok := imgCandidate("", attrs, 0, 0); ok {
				out = append(out, c)
			}
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return out
}

func scriptPayloads(doc *dom.Document) []Candidate {
	var out []Candidate
	for _, n := range doc.FindAll("script") {
		if isLinkedData(n) || n.HasAttr("src") {
			continue
		}
		for _, u := range ScanScriptURLs(n.TextContent()) {
			out = append(out, Candidate{URL: u})
		}
	}
	return out
}

func linkedData(doc *dom.Document) []Candidate {
	var out []Candidate
	for _, n := range doc.FindAll("script") {
		if !isLinkedData(n) {
			continue
		}
		for _, u := range WalkStrings(n.TextContent(), urlnorm.HasImageExtension) {
			out = append(out, Candidate{URL: u})
		}
	}
	return out
}

func isLinkedData(n *dom.Node) bool {
	typ, _, _ := strings.Cut(n.Attr("type"), ";")
	return strings.EqualFold(strings.TrimSpace(typ), "application/ld+json")
}

// LastSrcsetURL returns the address of the last candidate of a srcset value.
// Addresses may contain commas, so candidates are split the way browsers do:
// an address runs to the next whitespace and descriptors run to the next comma.
func LastSrcsetURL(srcset string) string {
	var last string
	s := srcset
	for {
		s = strings.TrimLeft(s, " \t\n\r\f,")
		if s == "" {
			return last
		}
		end := strings.IndexAny(s, " \t\n\r\f")
		if end < 0 {
			end = len(s)
		}
		candidate := s[:end]
		s = s[end:]

		if trimmed := strings.TrimRight(candidate, ","); len(trimmed) != len(candidate) {
			// A trailing comma ends the candidate without descriptors.
			candidate = trimmed
		} else if i := strings.IndexByte(s, ','); i >= 0 {
			s = s[i+1:]
		} else {
			s = ""
		}
		if candidate != "" {
			last = candidate
		}
	}
}

// parseDimension reads an integer pixel size from an attribute such as
// "120" or "120px". Anything else is unknown.
func parseDimension(v string) int {
	v = strings.TrimSuffix(strings.TrimSpace(v), "px")
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
