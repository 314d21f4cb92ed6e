package dom

import (
	"io"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Stylesheet is an external style sheet fetched for a page.
// URL must be the resolved address of the <link href> that loaded it.
type Stylesheet struct {
	URL  string
	Text string
}

// ParseOption configures Parse.
type ParseOption func(*parseConfig)

type parseConfig struct {
	sheets map[string]string
	logger *slog.Logger
}

// WithStylesheets provides the text of external style sheets. Sheets are
// applied at the position of the <link> element that references them.
func WithStylesheets(sheets ...Stylesheet) ParseOption {
	return func(c *parseConfig) {
		for _, s := range sheets {
			c.sheets[s.URL] = s.Text
		}
	}
}

// WithLogger sets the logger used to report skipped style sheets.
func WithLogger(logger *slog.Logger) ParseOption {
	return func(c *parseConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Parse builds a Document from HTML. pageURL is the address the HTML was
// loaded from and is used to resolve relative references; it may be empty.
// Style sheets that fail to parse are skipped.
func Parse(r io.Reader, pageURL string, opts ...ParseOption) (*Document, error) {
	cfg := &parseConfig{
		sheets: make(map[string]string),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	doc := &Document{URL: pageURL}
	if pageURL != "" {
		if u, err := url.Parse(pageURL); err == nil {
			doc.Base = u
		}
	}
	if href := findBaseHref(root); href != "" {
		if ref, err := url.Parse(href); err == nil {
			if doc.Base != nil {
				doc.Base = doc.Base.ResolveReference(ref)
			} else {
				doc.Base = ref
			}
		}
	}

	c := &cascade{base: doc.Base}
	c.rules = collectRules(root, doc.Base, cfg)

	docElem := documentElement(root)
	if docElem == nil {
		doc.Root = NewElement("html", nil)
		doc.Root.Style = rootStyle()
		return doc, nil
	}
	doc.Root = c.build(docElem, rootStyle())
	if title := doc.Find("title"); title != nil {
		doc.Title = strings.Join(strings.Fields(title.TextContent()), " ")
	}
	return doc, nil
}

// ParseString is Parse over a string.
func ParseString(s, pageURL string, opts ...ParseOption) (*Document, error) {
	return Parse(strings.NewReader(s), pageURL, opts...)
}

// build converts an element and its subtree, computing styles on the way.
func (c *cascade) build(n *html.Node, parent ComputedStyle) *Node {
	out := &Node{
		Type:  ElementNode,
		Tag:   strings.ToLower(n.Data),
		Attrs: make(map[string]string, len(n.Attr)),
	}
	for _, a := range n.Attr {
		key := strings.ToLower(a.Key)
		if a.Namespace != "" {
			key = a.Namespace + ":" + key
		}
		if _, dup := out.Attrs[key]; !dup {
			out.Attrs[key] = a.Val
		}
	}
	out.Style = c.compute(n, parent)

	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		switch ch.Type {
		case html.ElementNode:
			out.AppendChild(c.build(ch, out.Style))
		case html.TextNode:
			out.AppendChild(NewText(ch.Data))
		}
	}
	return out
}

// collectRules compiles <style> blocks and linked sheets in document order.
func collectRules(root *html.Node, base *url.URL, cfg *parseConfig) []rule {
	var (
		rules []rule
		order int
	)
	add := func(text string, sheetBase *url.URL, source string) {
		compiled, err := compileSheet(text, sheetBase, &order)
		if err != nil {
			cfg.logger.Debug("skipping unparsable style sheet", "source", source, "error", err)
			return
		}
		rules = append(rules, compiled...)
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "style":
				var b strings.Builder
				for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
					if ch.Type == html.TextNode {
						b.WriteString(ch.Data)
					}
				}
				add(b.String(), base, "inline <style>")
			case "link":
				if !IsStylesheetLink(getAttr(n, "rel")) {
					break
				}
				href := resolveAgainst(base, getAttr(n, "href"))
				if text, ok := cfg.sheets[href]; ok {
					sheetBase, err := url.Parse(href)
					if err != nil {
						sheetBase = base
					}
					add(text, sheetBase, href)
				}
			}
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(root)
	return rules
}

// IsStylesheetLink reports whether a rel attribute value names a style sheet.
func IsStylesheetLink(rel string) bool {
	for _, tok := range strings.Fields(strings.ToLower(rel)) {
		if tok == "stylesheet" {
			return true
		}
	}
	return false
}

func resolveAgainst(base *url.URL, raw string) string {
	raw = strings.TrimSpace(raw)
	ref, err := url.Parse(raw)
	if err != nil || base == nil {
		return raw
	}
	return base.ResolveReference(ref).String()
}

func findBaseHref(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "base" {
		if href := getAttr(n, "href"); href != "" {
			return strings.TrimSpace(href)
		}
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if href := findBaseHref(ch); href != "" {
			return href
		}
	}
	return ""
}

func documentElement(root *html.Node) *html.Node {
	for ch := root.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type == html.ElementNode {
			return ch
		}
	}
	return nil
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
