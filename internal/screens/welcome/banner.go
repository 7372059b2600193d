package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tensetrainer/internal/ui/theme"
)

const bannerArt = `
 ▀█▀ █▀▀ █▄ █ █▀ █▀▀   ▀█▀ █▀█ ▄▀█ █ █▄ █ █▀▀ █▀█
  █  ██▄ █ ▀█ ▄█ ██▄    █  █▀▄ █▀█ █ █ ▀█ ██▄ █▀▄`

const bannerCompact = "T E N S E   T R A I N E R"

// RenderBanner returns the product banner, or a single line on terminals
// narrower than 56 columns.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < 56 {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
