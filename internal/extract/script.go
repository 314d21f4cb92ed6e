package extract

import (
	"regexp"
	"strings"
)

// Script body size guards for ScanScriptURLs.
const (
	MinScriptBytes = 16
	MaxScriptBytes = 1 << 20
)

// scriptImageURL matches absolute or protocol-relative image addresses.
var scriptImageURL = regexp.MustCompile(
	`(?i)(?:https?:)?//[a-z0-9.-]+(?::\d+)?/[^\s"'<>()\\{}|^` + "`" + `]*?\.(?:png|jpe?g|gif|webp|svg|avif)(?:\?[^\s"'<>()\\{}|^` + "`" + `]*)?`,
)

// scriptUnescaper undoes the escaping JSON and JavaScript string literals
// apply to path separators.
var scriptUnescaper = strings.NewReplacer(`\/`, `/`, `\u002F`, `/`, `\u002f`, `/`)

// ScanScriptURLs returns the image addresses found in a script body, in
// order of appearance and without duplicates. Bodies shorter than
// MinScriptBytes or longer than MaxScriptBytes are not scanned.
// Protocol-relative addresses are returned with an https scheme.
func ScanScriptURLs(body string) []string {
	if len(body) < MinScriptBytes || len(body) > MaxScriptBytes {
		return nil
	}
	body = scriptUnescaper.Replace(body)

	var out []string
	seen := make(map[string]struct{})
	for _, m := range scriptImageURL.FindAllString(body, -1) {
		if strings.HasPrefix(m, "//") {
			m = "https:" + m
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
