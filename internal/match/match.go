// Package match resolves whether a stored content item belongs to a tracked
// account. There is no foreign key between rows and accounts: upstream
// platforms report identity inconsistently (a handle, a display name, or
// only a username buried in the content URL), so matching is an ordered
// disjunction of named heuristics. The name of the heuristic that fired is
// surfaced for audit logging.
package match

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/okarpachev/promopulse/internal/models"
)

// usernameDomains are the eTLD+1 domains whose content URLs embed a
// username as an "@" path segment. Other platforms never produce a
// username token and so never match through that path.
var usernameDomains = map[string]bool{
	"tiktok.com":  true,
	"youtube.com": true,
}

// heuristic is one named matching rule.
type heuristic struct {
	name string
	fn   func(item *models.ContentItem, account *models.TrackedAccount) bool
}

// heuristics run in order; the first hit wins. Substring rules knowingly
// over-approximate across similar handles; tightening them is a product
// decision, not a bug fix.
var heuristics = []heuristic{
	{"exact-name", func(it *models.ContentItem, acc *models.TrackedAccount) bool {
		return acc.AccountName != "" && it.AccountName == acc.AccountName
	}},
	{"exact-url", func(it *models.ContentItem, acc *models.TrackedAccount) bool {
		return it.AccountName == acc.AccountURL
	}},
	{"label-contains-name", func(it *models.ContentItem, acc *models.TrackedAccount) bool {
		return acc.AccountName != "" && containsFold(it.AccountName, acc.AccountName)
	}},
	{"name-contains-label", func(it *models.ContentItem, acc *models.TrackedAccount) bool {
		return it.AccountName != "" && containsFold(acc.AccountName, it.AccountName)
	}},
	{"content-url-username", func(it *models.ContentItem, acc *models.TrackedAccount) bool {
		accUser := UsernameFromURL(acc.AccountURL)
		itemUser := usernameFromContentURL(it.ContentURL)
		return accUser != "" && itemUser != "" && strings.EqualFold(accUser, itemUser)
	}},
	{"label-contains-username", func(it *models.ContentItem, acc *models.TrackedAccount) bool {
		accUser := UsernameFromURL(acc.AccountURL)
		return accUser != "" && containsFold(it.AccountName, accUser)
	}},
}

// Match reports whether item belongs to account, and which heuristic
// decided it.
func Match(item *models.ContentItem, account *models.TrackedAccount) (string, bool) {
	for _, h := range heuristics {
		if h.fn(item, account) {
			return h.name, true
		}
	}
	return "", false
}

func containsFold(haystack, needle string) bool {
	if haystack == "" || needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// UsernameFromURL extracts the "@" username token from a profile or content
// URL: the text after the first "@" up to the next "/".
func UsernameFromURL(raw string) string {
	at := strings.Index(raw, "@")
	if at < 0 {
		return ""
	}
	user := raw[at+1:]
	if slash := strings.Index(user, "/"); slash >= 0 {
		user = user[:slash]
	}
	return user
}

// usernameFromContentURL extracts a username token only for domains known
// to embed one.
func usernameFromContentURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Hostname() == "" {
		return ""
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(parsed.Hostname())
	if err != nil {
		return ""
	}
	if !usernameDomains[domain] {
		return ""
	}
	return UsernameFromURL(raw)
}
