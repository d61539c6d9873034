package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/ui/theme"
)

const bannerArt = `
 ███╗   ██╗███████╗██╗   ██╗██████╗  ██████╗ ███╗   ███╗ █████╗ ████████╗██╗  ██╗
 ████╗  ██║██╔════╝██║   ██║██╔══██╗██╔═══██╗████╗ ████║██╔══██╗╚══██╔══╝██║  ██║
 ██╔██╗ ██║█████╗  ██║   ██║██████╔╝██║   ██║██╔████╔██║███████║   ██║   ███████║
 ██║╚██╗██║██╔══╝  ██║   ██║██╔══██╗██║   ██║██║╚██╔╝██║██╔══██║   ██║   ██╔══██║
 ██║ ╚████║███████╗╚██████╔╝██║  ██║╚██████╔╝██║ ╚═╝ ██║██║  ██║   ██║   ██║  ██║
 ╚═╝  ╚═══╝╚══════╝ ╚═════╝ ╚═╝  ╚═╝ ╚═════╝ ╚═╝     ╚═╝╚═╝  ╚═╝   ╚═╝   ╚═╝  ╚═╝`

const bannerCompact = "N E U R O M A T H"

// bannerMinWidth is the narrowest terminal that fits the full banner.
const bannerMinWidth = 84

// RenderBanner returns the banner in the primary color, or a one-line
// fallback on narrow terminals.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < bannerMinWidth {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
