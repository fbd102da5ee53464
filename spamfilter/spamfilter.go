// Package spamfilter holds the pure decision helpers used to screen
// contact-form submissions: email syntax and domain checks plus the
// content heuristics.
package spamfilter

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/idna"
)

// Tunables for the content heuristics.
const (
	// Messages may contain at most this many http(s) links.
	maxLinks = 2
	// Share of uppercase characters above which a message is flagged.
	// The most permissive of the thresholds we've run in production;
	// anything lower flags short messages containing acronyms.
	maxUppercaseRatio = 0.6
)

// Keywords that flag a message as spam, matched case-insensitively.
var spamKeywords = []string{
	"viagra",
	"casino",
	"lottery",
	"jackpot",
	"bitcoin investment",
	"forex",
	"payday loan",
	"congratulations you",
	"click here",
	"free money",
	"make money fast",
	"work from home",
	"weight loss",
	"seo services",
	"limited time offer",
}

// Known throwaway email-provider domains. Kept static; additions land
// here when they show up in submissions.
var disposableDomains = map[string]struct{}{
	"10minutemail.com":  {},
	"dispostable.com":   {},
	"emailondeck.com":   {},
	"fakeinbox.com":     {},
	"getnada.com":       {},
	"guerrillamail.com": {},
	"maildrop.cc":       {},
	"mailinator.com":    {},
	"mintemail.com":     {},
	"mohmal.com":        {},
	"mytemp.email":      {},
	"sharklasers.com":   {},
	"spamgourmet.com":   {},
	"temp-mail.org":     {},
	"tempmail.com":      {},
	"throwawaymail.com": {},
	"trashmail.com":     {},
	"yopmail.com":       {},
}

var linkPattern = regexp.MustCompile(`https?://`)

// ValidEmail reports whether the string is a plausible bare address of
// the local@domain form. Display names and addresses without a dotted
// domain are rejected.
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	if at < 1 {
		return false
	}
	return strings.Contains(email[at+1:], ".")
}

// EmailDomain returns the lowercased, IDNA-normalized domain portion of
// an email address, or "" if there is none.
func EmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	domain := strings.ToLower(email[at+1:])
	ascii, err := idna.ToASCII(domain)
	if err != nil {
		return domain
	}
	return ascii
}

// IsDisposable reports whether the address belongs to a known throwaway
// email provider.
func IsDisposable(email string) bool {
	_, ok := disposableDomains[EmailDomain(email)]
	return ok
}

// IsSpam scores a message body against the content heuristics: known
// spam keywords, link count, and the share of uppercase characters.
// Any single heuristic tripping flags the message.
func IsSpam(message string) bool {
	lower := strings.ToLower(message)
	for _, keyword := range spamKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	if len(linkPattern.FindAllStringIndex(message, -1)) > maxLinks {
		return true
	}
	return uppercaseRatio(message) > maxUppercaseRatio
}

// uppercaseRatio returns the fraction of characters in the message that
// are uppercase letters.
func uppercaseRatio(message string) float64 {
	total := 0
	upper := 0
	for _, r := range message {
		total++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(upper) / float64(total)
}
