package extract

import "github.com/tidwall/gjson"

// WalkStrings returns every string leaf of a JSON document that satisfies
// match, in document order. Invalid JSON yields nil.
func WalkStrings(json string, match func(string) bool) []string {
	if !gjson.Valid(json) {
		return nil
	}
	var out []string
	walkValue(gjson.Parse(json), match, &out)
	return out
}

func walkValue(v gjson.Result, match func(string) bool, out *[]string) {
	switch {
	case v.Type == gjson.String:
		if match(v.Str) {
			*out = append(*out, v.Str)
		}
	case v.IsArray() || v.IsObject():
		v.ForEach(func(_, child gjson.Result) bool {
			walkValue(child, match, out)
			return true
		})
	}
}
