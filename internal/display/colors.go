package display

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Color identifies a terminal color independent of the rendering backend.
type Color int

const (
	ColorReset Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorBrightRed
	ColorBrightGreen
	ColorBrightYellow
	ColorBrightBlue
	ColorBrightCyan
)

// ColorTheme maps semantic roles to concrete colors.
type ColorTheme struct {
	Success   Color
	Warning   Color
	Error     Color
	Info      Color
	Muted     Color
	Highlight Color
}

// ColorSystem handles color application and terminal detection
type ColorSystem interface {
	Colorize(text string, clr Color) string
	Sprintf(clr Color, format string, args ...interface{}) string
	Success(text string) string
	Failure(text string) string
	Info(text string) string
	IsColorSupported() bool
}

type colorSystem struct {
	theme          ColorTheme
	colorSupported bool
	profile        termenv.Profile
	colorMap       map[Color]*color.Color
}

// NewColorSystem creates a new color system with terminal detection
func NewColorSystem(theme ColorTheme) ColorSystem {
	cs := &colorSystem{
		theme:          theme,
		colorSupported: detectColorSupport(),
		profile:        termenv.ColorProfile(),
	}
	cs.initializeColorMap()
	return cs
}

// detectColorSupport checks if the terminal supports colors
func detectColorSupport() bool {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return false
	}

	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}

	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}

	return true
}

func (cs *colorSystem) initializeColorMap() {
	cs.colorMap = map[Color]*color.Color{
		ColorReset:        color.New(color.Reset),
		ColorRed:          color.New(color.FgRed),
		ColorGreen:        color.New(color.FgGreen),
		ColorYellow:       color.New(color.FgYellow),
		ColorBlue:         color.New(color.FgBlue),
		ColorMagenta:      color.New(color.FgMagenta),
		ColorCyan:         color.New(color.FgCyan),
		ColorWhite:        color.New(color.FgWhite),
		ColorBrightRed:    color.New(color.FgHiRed),
		ColorBrightGreen:  color.New(color.FgHiGreen),
		ColorBrightYellow: color.New(color.FgHiYellow),
		ColorBrightBlue:   color.New(color.FgHiBlue),
		ColorBrightCyan:   color.New(color.FgHiCyan),
	}

	if !cs.colorSupported {
		color.NoColor = true
	}
}

// Colorize applies color to text if color is supported
func (cs *colorSystem) Colorize(text string, clr Color) string {
	if !cs.colorSupported {
		return text
	}

	if colorFunc, exists := cs.colorMap[clr]; exists {
		return colorFunc.Sprint(text)
	}

	return text
}

// Sprintf formats text with color using format string
func (cs *colorSystem) Sprintf(clr Color, format string, args ...interface{}) string {
	return cs.Colorize(fmt.Sprintf(format, args...), clr)
}

// Success renders text in the theme's success color
func (cs *colorSystem) Success(text string) string {
	return cs.Colorize(text, cs.theme.Success)
}

// Failure renders text in the theme's error color
func (cs *colorSystem) Failure(text string) string {
	return cs.Colorize(text, cs.theme.Error)
}

// Info renders text in the theme's info color
func (cs *colorSystem) Info(text string) string {
	return cs.Colorize(text, cs.theme.Info)
}

// IsColorSupported returns whether colors are supported
func (cs *colorSystem) IsColorSupported() bool {
	return cs.colorSupported
}

// DarkColorTheme returns a color theme optimized for dark terminals
func DarkColorTheme() ColorTheme {
	return ColorTheme{
		Success:   ColorBrightGreen,
		Warning:   ColorBrightYellow,
		Error:     ColorBrightRed,
		Info:      ColorCyan,
		Muted:     ColorWhite,
		Highlight: ColorBrightBlue,
	}
}

// LightColorTheme returns a color theme optimized for light terminals
func LightColorTheme() ColorTheme {
	return ColorTheme{
		Success:   ColorGreen,
		Warning:   ColorYellow,
		Error:     ColorRed,
		Info:      ColorCyan,
		Muted:     ColorMagenta,
		Highlight: ColorBlue,
	}
}

// PlainTextTheme returns a theme that uses no colors (fallback)
func PlainTextTheme() ColorTheme {
	return ColorTheme{
		Success:   ColorReset,
		Warning:   ColorReset,
		Error:     ColorReset,
		Info:      ColorReset,
		Muted:     ColorReset,
		Highlight: ColorReset,
	}
}

// GetThemeByName returns a color theme by name
func GetThemeByName(name string) ColorTheme {
	switch name {
	case "light":
		return LightColorTheme()
	case "plain", "none":
		return PlainTextTheme()
	default:
		return DarkColorTheme()
	}
}
