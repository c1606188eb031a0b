// Package styles provides shared lipgloss styles for CLI output.
package styles

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Palette defines a minimal semantic theme palette.
type Palette struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
}

// DefaultTheme is the name of the default theme.
const DefaultTheme = "tokyo-night"

// themes holds the built-in named palettes.
var themes = map[string]Palette{
	"tokyo-night": {
		Primary:    lipgloss.Color("#7aa2f7"),
		Secondary:  lipgloss.Color("#7dcfff"),
		Foreground: lipgloss.Color("#c0caf5"),
		Muted:      lipgloss.Color("#565f89"),
		Success:    lipgloss.Color("#9ece6a"),
		Warning:    lipgloss.Color("#e0af68"),
		Error:      lipgloss.Color("#f7768e"),
	},
	"gruvbox": {
		Primary:    lipgloss.Color("#83a598"),
		Secondary:  lipgloss.Color("#8ec07c"),
		Foreground: lipgloss.Color("#ebdbb2"),
		Muted:      lipgloss.Color("#665c54"),
		Success:    lipgloss.Color("#b8bb26"),
		Warning:    lipgloss.Color("#fabd2f"),
		Error:      lipgloss.Color("#fb4934"),
	},
	"plain": {},
}

// ThemeNames returns sorted names of all built-in themes.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPalette returns the palette for the given theme name.
func GetPalette(name string) (Palette, bool) {
	p, ok := themes[name]
	return p, ok
}

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Style exports.
var (
	HeaderStyle     lipgloss.Style
	DividerStyle    lipgloss.Style
	PathStyle       lipgloss.Style
	MutedStyle      lipgloss.Style
	UnresolvedBadge lipgloss.Style
	ResolvedBadge   lipgloss.Style
	DraftBadge      lipgloss.Style
	RobotBadge      lipgloss.Style
	EditingBadge    lipgloss.Style
)

func init() {
	p, _ := GetPalette(DefaultTheme)
	SetTheme(p)
}

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	HeaderStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	DividerStyle = lipgloss.NewStyle().Foreground(p.Muted)
	PathStyle = lipgloss.NewStyle().Foreground(p.Secondary)
	MutedStyle = lipgloss.NewStyle().Foreground(p.Muted)

	UnresolvedBadge = lipgloss.NewStyle().Foreground(p.Error).Bold(true)
	ResolvedBadge = lipgloss.NewStyle().Foreground(p.Success)
	DraftBadge = lipgloss.NewStyle().Foreground(p.Warning).Bold(true)
	RobotBadge = lipgloss.NewStyle().Foreground(p.Secondary)
	EditingBadge = lipgloss.NewStyle().Foreground(p.Foreground).Italic(true)
}
