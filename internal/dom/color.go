package dom

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Transparent is the computed form of a fully transparent color.
const Transparent = "rgba(0, 0, 0, 0)"

// RGBA is a color with 8-bit channels and a 0..1 alpha.
type RGBA struct {
	R, G, B uint8
	A       float64
}

// String serializes c the way browsers report computed colors.
func (c RGBA) String() string {
	if c.A >= 1 {
		return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, formatAlpha(c.A))
}

// formatAlpha prints alpha with two decimals when that round-trips to the
// same 8-bit value and three decimals otherwise.
func formatAlpha(a float64) string {
	if a <= 0 {
		return "0"
	}
	b := math.Round(a * 255)
	two := math.Round(a*100) / 100
	if math.Round(two*255) == b {
		return strconv.FormatFloat(two, 'f', -1, 64)
	}
	return strconv.FormatFloat(math.Round(a*1000)/1000, 'f', -1, 64)
}

// ParseColor parses a CSS color value. It understands hex notation,
// rgb(), rgba(), hsl(), hsla(), named colors and "transparent".
// Keywords that depend on context (currentcolor, inherit) are not colors
// and yield false.
func ParseColor(value string) (RGBA, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch {
	case v == "":
		return RGBA{}, false
	case v == "transparent":
		return RGBA{}, true
	case strings.HasPrefix(v, "#"):
		return parseHex(v[1:])
	case strings.HasPrefix(v, "rgb(") || strings.HasPrefix(v, "rgba("):
		return parseRGBFunc(v)
	case strings.HasPrefix(v, "hsl(") || strings.HasPrefix(v, "hsla("):
		return parseHSLFunc(v)
	}
	if c, ok := colornames.Map[v]; ok {
		return RGBA{R: c.R, G: c.G, B: c.B, A: 1}, true
	}
	return RGBA{}, false
}

// NormalizeColor returns the computed form of value, or false when value is
// not a color. currentcolor resolves to current.
func NormalizeColor(value, current string) (string, bool) {
	if strings.EqualFold(strings.TrimSpace(value), "currentcolor") {
		return current, current != ""
	}
	c, ok := ParseColor(value)
	if !ok {
		return "", false
	}
	return c.String(), true
}

// IsTransparent reports whether a computed color paints nothing.
func IsTransparent(color string) bool {
	return color == "" || color == "transparent" || color == Transparent
}

func parseHex(h string) (RGBA, bool) {
	for _, r := range h {
		if !isHexDigit(r) {
			return RGBA{}, false
		}
	}
	expand := func(s string) string {
		var b strings.Builder
		for _, r := range s {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		return b.String()
	}
	switch len(h) {
	case 3, 4:
		h = expand(h)
	case 6, 8:
	default:
		return RGBA{}, false
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGBA{}, false
	}
	if len(h) == 6 {
		return RGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 1}, true
	}
	return RGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: float64(uint8(n)) / 255}, true
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
}

// funcArgs splits the arguments of a color function. Both the legacy comma
// syntax and the space syntax with a "/" alpha separator are accepted.
func funcArgs(v string) ([]string, bool) {
	open := strings.IndexByte(v, '(')
	if open < 0 || !strings.HasSuffix(v, ")") {
		return nil, false
	}
	body := v[open+1 : len(v)-1]
	body = strings.NewReplacer(",", " ", "/", " ").Replace(body)
	args := strings.Fields(body)
	if len(args) != 3 && len(args) != 4 {
		return nil, false
	}
	return args, true
}

func parseRGBFunc(v string) (RGBA, bool) {
	args, ok := funcArgs(v)
	if !ok {
		return RGBA{}, false
	}
	var ch [3]uint8
	for i := range 3 {
		f, ok := parseChannel(args[i])
		if !ok {
			return RGBA{}, false
		}
		ch[i] = f
	}
	a := 1.0
	if len(args) == 4 {
		if a, ok = parseAlpha(args[3]); !ok {
			return RGBA{}, false
		}
	}
	return RGBA{R: ch[0], G: ch[1], B: ch[2], A: a}, true
}

func parseHSLFunc(v string) (RGBA, bool) {
	args, ok := funcArgs(v)
	if !ok {
		return RGBA{}, false
	}
	h, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "deg"), 64)
	if err != nil {
		return RGBA{}, false
	}
	s, ok1 := parsePercent(args[1])
	l, ok2 := parsePercent(args[2])
	if !ok1 || !ok2 {
		return RGBA{}, false
	}
	a := 1.0
	if len(args) == 4 {
		if a, ok = parseAlpha(args[3]); !ok {
			return RGBA{}, false
		}
	}
	r, g, b := hslToRGB(h, s, l)
	return RGBA{R: r, G: g, B: b, A: a}, true
}

func parseChannel(s string) (uint8, bool) {
	if strings.HasSuffix(s, "%") {
		p, ok := parsePercent(s)
		if !ok {
			return 0, false
		}
		return clampByte(p * 255), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return clampByte(f), true
}

func parseAlpha(s string) (float64, bool) {
	if strings.HasSuffix(s, "%") {
		p, ok := parsePercent(s)
		return clampUnit(p), ok
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return clampUnit(f), true
}

// parsePercent parses "50%" into 0.5.
func parsePercent(s string) (float64, bool) {
	if !strings.HasSuffix(s, "%") {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, false
	}
	return clampUnit(f / 100), true
}

func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return clampByte((r + m) * 255), clampByte((g + m) * 255), clampByte((b + m) * 255)
}

func clampByte(f float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(255, f))))
}

func clampUnit(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}
