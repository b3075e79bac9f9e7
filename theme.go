package breathe

import (
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

type ColorScheme string

const (
	LightScheme ColorScheme = "light"
	DarkScheme  ColorScheme = "dark"
)

func ParseColorScheme(s string) (ColorScheme, error) {
	switch ColorScheme(strings.ToLower(strings.TrimSpace(s))) {
	case "", LightScheme:
		return LightScheme, nil
	case DarkScheme:
		return DarkScheme, nil
	default:
		return "", fmt.Errorf("unknown color scheme: %q", s)
	}
}

// Theme is what the host platform reports about its look.
type Theme struct {
	Scheme ColorScheme
	// Background is a hex color; empty means the host did not provide one.
	Background string
}

// Colors are the two display colors derived from a Theme.
type Colors struct {
	Background colorful.Color
	Foreground colorful.Color
}

var (
	defaultBackground = mustHex("#ffffff")
	lightForeground   = mustHex("#111111")
	darkForeground    = mustHex("#ffffff")
)

// DeriveColors falls back to a white background when the theme's is absent or malformed.
func DeriveColors(t Theme) Colors {
	bg := defaultBackground
	if t.Background != "" {
		if c, err := colorful.Hex(normalizeHex(t.Background)); err == nil {
			bg = c
		}
	}
	fg := lightForeground
	if t.Scheme == DarkScheme {
		fg = darkForeground
	}
	return Colors{Background: bg, Foreground: fg}
}

// RGB packs c as 0xRRGGBB.
func RGB(c colorful.Color) int {
	r, g, b := c.RGB255()
	return int(r)<<16 | int(g)<<8 | int(b)
}

func ValidateHexColor(s string) error {
	_, err := colorful.Hex(normalizeHex(s))
	return err
}

func normalizeHex(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	return strings.ToLower(s)
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}
