// Package lookup turns the current product list into a detail request and
// records each successful answer in the session's view history.
package lookup

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/thebtf/skinshelf/pkg/models"
)

// maxNameLen bounds a single product name inside the prompt.
const maxNameLen = 200

// BuildDetailPrompt builds the natural-language request for a product list.
func BuildDetailPrompt(products []models.Product) string {
	items := make([]string, len(products))
	for i, p := range products {
		items[i] = fmt.Sprintf("%s ($%s)", truncate(p.Name, maxNameLen), p.Price.StringFixed(2))
	}

	var sb strings.Builder
	sb.WriteString("Provide short descriptive details for the following skincare products: ")
	sb.WriteString(strings.Join(items, ", "))
	sb.WriteString(". Respond in short bullet points.")
	return sb.String()
}

// truncate cuts s to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "... (truncated)"
}
