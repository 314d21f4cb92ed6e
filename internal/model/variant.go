package model

// variantUnknownStr is the string representation for unknown values.
const variantUnknownStr = "unknown"

// Variant selects one of the two extraction configurations.
type Variant string

const (
	// VariantUnknown represents an unrecognized variant.
	VariantUnknown Variant = ""
	// VariantSimple favors a small, high-signal report: fewer images with a
	// minimum size filter and full element text.
	VariantSimple Variant = "simple"
	// VariantAdvanced favors recall: many images from every source and
	// direct-text extraction.
	VariantAdvanced Variant = "advanced"
)

// String returns the string representation of the Variant.
func (v Variant) String() string {
	if v == VariantUnknown {
		return variantUnknownStr
	}
	return string(v)
}

// IsValid returns true if this is a known variant.
func (v Variant) IsValid() bool {
	switch v {
	case VariantSimple, VariantAdvanced:
		return true
	default:
		return false
	}
}

// ParseVariant converts a string to Variant.
func ParseVariant(s string) Variant {
	switch s {
	case "simple", "basic":
		return VariantSimple
	case "advanced", "full":
		return VariantAdvanced
	default:
		return VariantUnknown
	}
}

// Mode names how a page was rendered before extraction.
type Mode string

const (
	// ModeStatic means the page was fetched and styled without a browser.
	ModeStatic Mode = "static"
	// ModeBrowser means the page was rendered by a headless browser.
	ModeBrowser Mode = "browser"
)

// String returns the string representation of the Mode.
func (m Mode) String() string {
	if m == "" {
		return variantUnknownStr
	}
	return string(m)
}
