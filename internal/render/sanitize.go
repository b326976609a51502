package render

import (
	"strings"
)

var (
	separatorReplacer = strings.NewReplacer(`\`, "-", "/", "-", ":", "-")
	reservedRemover   = strings.NewReplacer(
		"#", "", "^", "", "[", "", "]", "", "|", "", "<", "", ">", "",
		`"`, "", "?", "", "*", "", "!", "", ".", "", "`", "",
	)
)

// SanitizeTitle makes an issue title safe to use as a file name in a notes vault.
//
// Path separators and colons become "-"; characters reserved by note apps and
// Windows are dropped, as are control characters and anything outside ASCII
// (emoji included). Runs of spaces collapse to one and the result is trimmed.
// Sanitizing twice gives the same result as sanitizing once.
func SanitizeTitle(title string) string {
	title = separatorReplacer.Replace(title)
	title = reservedRemover.Replace(title)

	title = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || r > 0x7e {
			return -1
		}
		return r
	}, title)

	return strings.Join(strings.Fields(title), " ")
}
