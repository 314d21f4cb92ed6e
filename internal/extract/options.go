package extract

import "github.com/nao1215/brandsnap/internal/model"

// MaxColors is the number of ranked colors kept in a report.
const MaxColors = 20

// TextPolicy selects how the text of a matched element is read.
type TextPolicy int

const (
	// TextPolicyFull reads the full descendant text of every matched element.
	TextPolicyFull TextPolicy = iota
	// TextPolicyDirect reads full text for phrasing elements but only the
	// direct text and inline emphasis children of block containers, so a
	// paragraph does not repeat the text of its links.
	TextPolicyDirect
)

// String returns the policy name.
func (p TextPolicy) String() string {
	if p == TextPolicyDirect {
		return "direct"
	}
	return "full"
}

// Options holds the variant knobs of one extraction pass.
type Options struct {
	// ImageCap is the maximum number of images in the report.
	ImageCap int
	// MinImageSize rejects images whose known width or height is below it.
	// Zero disables the filter. Unknown dimensions never reject.
	MinImageSize int
	// TextCap is the maximum number of text blocks in the report.
	TextCap int
	// TextPolicy selects how element text is read.
	TextPolicy TextPolicy
}

// OptionsFor returns the knobs of a variant. Unknown variants get the
// simple configuration.
func OptionsFor(v model.Variant) Options {
	if v == model.VariantAdvanced {
		return Options{
			ImageCap:   500,
			TextCap:    200,
			TextPolicy: TextPolicyDirect,
		}
	}
	return Options{
		ImageCap:     20,
		MinImageSize: 50,
		TextCap:      100,
		TextPolicy:   TextPolicyFull,
	}
}
