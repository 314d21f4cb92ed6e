package report

import (
	"fmt"
	"math"

	"github.com/nao1215/brandsnap/internal/dom"
)

// HexColor converts a computed color token to #rrggbb, or #rrggbbaa when the
// color is translucent. Tokens that are not colors are returned unchanged.
func HexColor(token string) string {
	c, ok := dom.ParseColor(token)
	if !ok {
		return token
	}
	if c.A >= 1 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	alpha := uint8(math.Round(c.A * 255))
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, alpha)
}
