package urlnorm

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

var (
	// dimensionSuffix matches "-800x600" or "_800x600".
	dimensionSuffix = regexp.MustCompile(`[-_]\d+x\d+$`)
	// densitySuffix matches "@2x" or "@1.5x".
	densitySuffix = regexp.MustCompile(`@\d+(\.\d+)?x$`)
	// sizeSuffix matches a width tag such as "-800", "_1024" or "-64w".
	// Two-digit numbers without "w" are sequence numbers, not sizes.
	sizeSuffix = regexp.MustCompile(`[-_](\d{2,4}w|\d{3,4})$`)
	// variantSuffix matches named size variants such as "-thumb" or "_large".
	variantSuffix = regexp.MustCompile(`(?i)[-_](thumb|thumbnail|small|medium|large|preview|scaled|original|full)$`)
)

// stemRules are applied once each, in this order, to the file stem.
var stemRules = []*regexp.Regexp{
	dimensionSuffix,
	densitySuffix,
	sizeSuffix,
	variantSuffix,
}

// Resolve converts raw to an absolute address using base.
// When either input cannot be parsed the raw string is returned unchanged.
func Resolve(base *url.URL, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

// ResolveString is Resolve with a textual base.
func ResolveString(base, raw string) string {
	b, err := url.Parse(base)
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return Resolve(b, raw)
}

// CanonicalKey reduces a resolved address to its deduplication key.
// The query string, fragment and trailing slashes are dropped, and size
// and variant suffixes are stripped from the file stem while the extension
// is kept.
func CanonicalKey(resolved string) string {
	key := resolved
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	key = strings.TrimRight(key, "/")

	pathStart := -1
	if i := strings.Index(key, "://"); i >= 0 {
		j := strings.Index(key[i+3:], "/")
		if j < 0 {
			// Host only, nothing to strip.
			return key
		}
		pathStart = i + 3 + j
	}

	slash := strings.LastIndex(key, "/")
	if slash < pathStart {
		return key
	}
	dir, file := key[:slash+1], key[slash+1:]
	if file == "" {
		return key
	}

	ext := path.Ext(file)
	stem := strings.TrimSuffix(file, ext)
	for _, rule := range stemRules {
		stem = rule.ReplaceAllStringFunc(stem, stripUnlessYear)
	}
	if stem == "" {
		// Never collapse a file name to nothing.
		return key
	}
	return dir + stem + ext
}

// stripUnlessYear drops a matched suffix, except a bare year such as "-2024"
// which names a different asset rather than a size.
func stripUnlessYear(suffix string) string {
	n := suffix[1:]
	if len(n) == 4 && (strings.HasPrefix(n, "19") || strings.HasPrefix(n, "20")) && isDigits(n) {
		return suffix
	}
	return ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// IsFetchable reports whether raw can be fetched over the network.
// Inline data, blob handles and script pseudo-URLs are rejected.
func IsFetchable(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	lower := strings.ToLower(raw)
	for _, prefix := range []string{"data:", "blob:", "javascript:", "about:"} {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	return true
}

// imageExtensions are the file extensions treated as images.
var imageExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".webp": {},
	".svg": {}, ".avif": {}, ".bmp": {}, ".ico": {}, ".tif": {}, ".tiff": {},
}

// HasImageExtension reports whether the path of raw ends in a known image
// file extension. Query strings and fragments are ignored.
func HasImageExtension(raw string) bool {
	p := raw
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	_, ok := imageExtensions[strings.ToLower(path.Ext(p))]
	return ok
}
