package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines the color scheme. Ramp runs from sparse or slow particles to
// dense or fast ones.
type Theme struct {
	Name    string
	Ramp    []lipgloss.Color
	Grabbed lipgloss.Color
	Pointer lipgloss.Color
	Muted   lipgloss.Color
}

var (
	ThemeCyberpunk = Theme{
		Name:    "cyberpunk",
		Ramp:    []lipgloss.Color{"#3a3aff", "#00aaff", "#00ffff", "#ff00ff", "#ffff00"},
		Grabbed: lipgloss.Color("#ff4444"),
		Pointer: lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#666666"),
	}

	ThemeRetroGreen = Theme{
		Name:    "retro",
		Ramp:    []lipgloss.Color{"#005500", "#008800", "#00cc00", "#00ff00", "#88ff88"},
		Grabbed: lipgloss.Color("#ffff00"),
		Pointer: lipgloss.Color("#ccffcc"),
		Muted:   lipgloss.Color("#005500"),
	}

	ThemeOcean = Theme{
		Name:    "ocean",
		Ramp:    []lipgloss.Color{"#0a3d62", "#0077be", "#00a8cc", "#7fdbff", "#e0f0ff"},
		Grabbed: lipgloss.Color("#ffd700"),
		Pointer: lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#4488aa"),
	}

	ThemeSunset = Theme{
		Name:    "sunset",
		Ramp:    []lipgloss.Color{"#5b2c6f", "#8b6b8c", "#ff6b6b", "#ffc048", "#fff5f5"},
		Grabbed: lipgloss.Color("#5fd068"),
		Pointer: lipgloss.Color("#ff9ff3"),
		Muted:   lipgloss.Color("#8b6b8c"),
	}

	Themes = []Theme{
		ThemeCyberpunk,
		ThemeRetroGreen,
		ThemeOcean,
		ThemeSunset,
	}
)

// GetTheme returns a theme by name, falling back to the first one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeCyberpunk
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// Styles returns the canvas styles for t: one per ramp step, then grabbed,
// then pointer. Levels index this slice from 1.
func (t Theme) Styles() []lipgloss.Style {
	styles := make([]lipgloss.Style, 0, len(t.Ramp)+2)
	for _, c := range t.Ramp {
		styles = append(styles, lipgloss.NewStyle().Foreground(c))
	}
	styles = append(styles,
		lipgloss.NewStyle().Foreground(t.Grabbed).Bold(true),
		lipgloss.NewStyle().Foreground(t.Pointer),
	)
	return styles
}

// GrabbedLevel and PointerLevel are the canvas levels above the ramp.
func (t Theme) GrabbedLevel() uint8 { return uint8(len(t.Ramp) + 1) }
func (t Theme) PointerLevel() uint8 { return uint8(len(t.Ramp) + 2) }

// RampLevel maps v in [0, 1] onto a ramp level.
func (t Theme) RampLevel(v float64) uint8 {
	n := len(t.Ramp)
	if n == 0 {
		return 1
	}
	if v != v {
		v = 0
	}
	i := int(v * float64(n))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return uint8(i + 1)
}
