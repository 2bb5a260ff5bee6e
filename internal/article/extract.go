// Package article extracts marketplace article codes from free-form post
// text. Captions are noisy marketing copy and no single format is reliable,
// so extraction runs an ordered cascade of pattern families and unions every
// match. New code formats are added to the pattern table, not to the
// matching logic.
package article

import (
	"regexp"
	"strings"
)

// Separator joins multiple codes found in one text.
const Separator = ", "

// pattern is one declarative extraction rule. submatch selects which regex
// group carries the code (0 = whole match); accept can veto a candidate
// after matching.
type pattern struct {
	name     string
	re       *regexp.Regexp
	submatch int
	accept   func(code string) bool
}

var hasDigit = regexp.MustCompile(`\d`)

// patterns is evaluated in order; all matches across all families are
// merged into one uppercased set.
var patterns = []pattern{
	{
		// Labeled codes: "Артикул: 123456", "article WB99", "код- 445566".
		name:     "labeled",
		re:       regexp.MustCompile(`(?i)(?:артикул|арт|артикль|article|art|code|код|sku)[\s.:№#-]+([A-Za-z0-9]+)`),
		submatch: 1,
	},
	{
		// Recognized marketplace prefixes joined to a suffix: "WB-204512".
		name:     "prefixed",
		re:       regexp.MustCompile(`(?i)\b(?:WB|OZON|SKU|ART|АРТ)-[A-Za-z0-9]+\b`),
		submatch: 0,
	},
	{
		// Bare alphanumeric codes: 2-4 letters straight into 4+ digits.
		name:     "alphanumeric",
		re:       regexp.MustCompile(`\b[A-Za-z]{2,4}[0-9]{4,}\b`),
		submatch: 0,
	},
	{
		// Parenthesized codes: "(WB204512)".
		name:     "parenthesized",
		re:       regexp.MustCompile(`\(([A-Za-z0-9]{4,})\)`),
		submatch: 1,
	},
	{
		// Standalone digit runs of 6+, typical raw marketplace IDs.
		name:     "numeric",
		re:       regexp.MustCompile(`\b[0-9]{6,}\b`),
		submatch: 0,
	},
	{
		// Hashtag codes: "#wb204512". Requires a digit so plain topic
		// hashtags don't slip through.
		name:     "hashtag",
		re:       regexp.MustCompile(`#([A-Za-z0-9]{4,})`),
		submatch: 1,
		accept:   func(code string) bool { return hasDigit.MatchString(code) },
	},
}

// leadingToken is the last-resort rule: a caption that simply opens with the
// code, e.g. "WB204512 уже в продаже".
var leadingToken = regexp.MustCompile(`^([A-Za-z0-9]{4,})\s`)

// Extract pulls every article code out of text. All pattern families run
// over the whole input; matches are uppercased, deduplicated and joined with
// Separator in discovery order. ok is false when nothing was found.
func Extract(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	var codes []string
	seen := make(map[string]struct{})
	add := func(code string) {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			return
		}
		if _, dup := seen[code]; dup {
			return
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}

	for _, p := range patterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			code := m[p.submatch]
			if p.accept != nil && !p.accept(code) {
				continue
			}
			add(code)
		}
	}

	if len(codes) == 0 {
		if m := leadingToken.FindStringSubmatch(text); m != nil && hasDigit.MatchString(m[1]) {
			add(m[1])
		}
	}

	if len(codes) == 0 {
		return "", false
	}
	return strings.Join(codes, Separator), true
}

// Find tries the extractor on primary first, then on secondary. The usual
// callers pass the caption and the title.
func Find(primary, secondary string) (string, bool) {
	if code, ok := Extract(primary); ok {
		return code, true
	}
	return Extract(secondary)
}
