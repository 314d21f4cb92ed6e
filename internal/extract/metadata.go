package extract

import (
	"strings"

	"github.com/nao1215/brandsnap/internal/dom"
	"github.com/nao1215/brandsnap/internal/model"
	"github.com/nao1215/brandsnap/internal/urlnorm"
)

// ReadMetadata reads the title, description and favicon of doc.
// Absent values are empty strings.
func ReadMetadata(doc *dom.Document) model.Metadata {
	md := model.Metadata{Title: strings.TrimSpace(doc.Title)}

	var fallbackIcon string
	doc.Root.Walk(func(n *dom.Node) bool {
		switch {
		case n.IsElement("meta"):
			if md.Description == "" && strings.EqualFold(n.Attr("name"), "description") {
				md.Description = strings.TrimSpace(n.Attr("content"))
			}
		case n.IsElement("link"):
			href := strings.TrimSpace(n.Attr("href"))
			if href == "" || md.FaviconURL != "" {
				break
			}
			for _, rel := range strings.Fields(strings.ToLower(n.Attr("rel"))) {
				if rel == "icon" {
					md.FaviconURL = urlnorm.Resolve(doc.Base, href)
					break
				}
				if fallbackIcon == "" && strings.Contains(rel, "icon") {
					fallbackIcon = urlnorm.Resolve(doc.Base, href)
				}
			}
		}
		return true
	})
	if md.FaviconURL == "" {
		md.FaviconURL = fallbackIcon
	}
	return md
}
