// utils/text.go
package utils

import (
	"strings"

	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// AchievementKey normalizes a free-form achievement name into its stored key,
// e.g. "Games Veteran!" -> "games-veteran".
func AchievementKey(name string) string {
	return slug.Make(strings.TrimSpace(name))
}

// DisplayTitle turns a stored key back into something readable,
// e.g. "veteran-collector" -> "Veteran Collector".
func DisplayTitle(key string) string {
	words := strings.ReplaceAll(key, "-", " ")
	return cases.Title(language.English).String(words)
}

// Truncate cuts s to at most n runes, appending an ellipsis when it had to cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
