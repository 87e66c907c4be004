// Package styles contains Lip Gloss style definitions.
package styles

import (
	"fmt"
	"regexp"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Text hierarchy
	TextPrimaryColor     = lipgloss.AdaptiveColor{Light: "#1F2933", Dark: "#E4E7EB"}
	TextSecondaryColor   = lipgloss.AdaptiveColor{Light: "#52606D", Dark: "#BBBBBB"}
	TextMutedColor       = lipgloss.AdaptiveColor{Light: "#9AA5B1", Dark: "#696969"} // hints, footers
	TextPlaceholderColor = lipgloss.AdaptiveColor{Light: "#9AA5B1", Dark: "#777777"}

	// Borders
	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#CBD2D9", Dark: "#696969"}
	BorderFocusColor   = lipgloss.AdaptiveColor{Light: "#2B6CB0", Dark: "#54A0FF"}

	// Status
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#2F855A", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#B7791F", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#C53030", Dark: "#FF8787"}
	StatusInfoColor    = lipgloss.AdaptiveColor{Light: "#2B6CB0", Dark: "#54A0FF"}

	// Chat bubbles
	UserMessageColor      = lipgloss.AdaptiveColor{Light: "#2B6CB0", Dark: "#54A0FF"}
	AssistantMessageColor = lipgloss.AdaptiveColor{Light: "#2F855A", Dark: "#73F59F"}

	// Buttons
	ButtonTextColor      = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#FFFFFF"}
	ButtonPrimaryBgColor = lipgloss.AdaptiveColor{Light: "#1A5276", Dark: "#1A5276"}
	ButtonFocusBgColor   = lipgloss.AdaptiveColor{Light: "#3498DB", Dark: "#3498DB"}
	ButtonDangerBgColor  = lipgloss.AdaptiveColor{Light: "#922B21", Dark: "#922B21"}
	ButtonDangerFocusBg  = lipgloss.AdaptiveColor{Light: "#E74C3C", Dark: "#E74C3C"}

	// Diff lines in the events view
	DiffAddedColor   = lipgloss.AdaptiveColor{Light: "#2F855A", Dark: "#73F59F"}
	DiffRemovedColor = lipgloss.AdaptiveColor{Light: "#C53030", Dark: "#FF8787"}

	SpinnerColor = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#FFF"}
)

// Styles derived from the colors. Rebuilt by ApplyTheme.
var (
	TitleStyle          lipgloss.Style
	MutedStyle          lipgloss.Style
	ErrorStyle          lipgloss.Style
	SuccessStyle        lipgloss.Style
	WarningStyle        lipgloss.Style
	SelectedStyle       lipgloss.Style
	ActiveItemStyle     lipgloss.Style
	StatusBarStyle      lipgloss.Style
	UserLabelStyle      lipgloss.Style
	AssistantLabelStyle lipgloss.Style
	DiffAddedStyle      lipgloss.Style
	DiffRemovedStyle    lipgloss.Style
	PrimaryButtonStyle  lipgloss.Style
	FocusedButtonStyle  lipgloss.Style
	DangerButtonStyle   lipgloss.Style
	DangerFocusedStyle  lipgloss.Style
	PlaceholderStyle    lipgloss.Style
)

func init() {
	rebuild()
}

func rebuild() {
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(TextPrimaryColor)
	MutedStyle = lipgloss.NewStyle().Foreground(TextMutedColor)
	ErrorStyle = lipgloss.NewStyle().Foreground(StatusErrorColor).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(StatusSuccessColor)
	WarningStyle = lipgloss.NewStyle().Foreground(StatusWarningColor)
	SelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(BorderFocusColor)
	ActiveItemStyle = lipgloss.NewStyle().Bold(true).Foreground(StatusSuccessColor)
	StatusBarStyle = lipgloss.NewStyle().Foreground(TextSecondaryColor).Padding(0, 1)
	UserLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(UserMessageColor)
	AssistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(AssistantMessageColor)
	DiffAddedStyle = lipgloss.NewStyle().Foreground(DiffAddedColor)
	DiffRemovedStyle = lipgloss.NewStyle().Foreground(DiffRemovedColor)
	PlaceholderStyle = lipgloss.NewStyle().Foreground(TextPlaceholderColor).Italic(true)

	button := lipgloss.NewStyle().Padding(0, 2).Bold(true).Foreground(ButtonTextColor)
	PrimaryButtonStyle = button.Background(ButtonPrimaryBgColor)
	FocusedButtonStyle = button.Background(ButtonFocusBgColor).Underline(true).UnderlineSpaces(true)
	DangerButtonStyle = button.Background(ButtonDangerBgColor)
	DangerFocusedStyle = button.Background(ButtonDangerFocusBg).Underline(true).UnderlineSpaces(true)
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ApplyTheme overrides colors from configuration. Empty values keep the
// defaults. highlight drives focus borders and selection, subtle drives
// muted text and idle borders.
func ApplyTheme(highlight, subtle, errorColor, success string) error {
	for name, v := range map[string]string{
		"highlight": highlight, "subtle": subtle, "error": errorColor, "success": success,
	} {
		if v != "" && !hexColor.MatchString(v) {
			return fmt.Errorf("theme.%s: invalid hex color %q", name, v)
		}
	}

	if highlight != "" {
		BorderFocusColor = lipgloss.AdaptiveColor{Light: highlight, Dark: highlight}
		StatusInfoColor = BorderFocusColor
	}
	if subtle != "" {
		TextMutedColor = lipgloss.AdaptiveColor{Light: subtle, Dark: subtle}
		BorderDefaultColor = TextMutedColor
	}
	if errorColor != "" {
		StatusErrorColor = lipgloss.AdaptiveColor{Light: errorColor, Dark: errorColor}
	}
	if success != "" {
		StatusSuccessColor = lipgloss.AdaptiveColor{Light: success, Dark: success}
	}
	rebuild()
	return nil
}

// SetDarkMode forces the adaptive colors to one side.
func SetDarkMode(dark bool) {
	lipgloss.SetHasDarkBackground(dark)
}
