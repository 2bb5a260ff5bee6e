// Package identity derives the stable deduplication key for content items.
package identity

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/okarpachev/promopulse/internal/article"
	"github.com/okarpachev/promopulse/internal/models"
)

// nameSentinel stands in for accounts whose name has fewer than three
// alphanumeric characters.
const nameSentinel = "XXX"

var (
	nonAlnum    = regexp.MustCompile(`[^A-Za-z0-9]`)
	whitespace  = regexp.MustCompile(`\s+`)
	nonKeyRunes = regexp.MustCompile(`[^A-Za-z0-9-]`)
)

// Key builds the dedup key "{platform}-{NAME3}-{article}". The key is a pure
// function of its inputs: re-ingesting the same record always lands on the
// same row. Keys stay human-legible so operators can eyeball the sheet.
func Key(platform models.Platform, accountName, art string) string {
	name := nonAlnum.ReplaceAllString(accountName, "")
	var prefix string
	if len(name) >= 3 {
		prefix = strings.ToUpper(name[:3])
	} else {
		prefix = nameSentinel
	}

	clean := strings.ReplaceAll(art, article.Separator, "-")
	clean = whitespace.ReplaceAllString(clean, "-")
	clean = nonKeyRunes.ReplaceAllString(clean, "")

	return fmt.Sprintf("%s-%s-%s", platform, prefix, clean)
}
