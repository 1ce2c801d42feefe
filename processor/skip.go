package processor

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

var emailPattern = regexp.MustCompile(`^[^\s@<>]+@[^\s@<>]+\.[^\s@<>]+$`)

// ShouldSkip reports whether a text value must not be sent to a provider:
// it is empty after entity decoding and trimming, numeric-only, a URL or an
// e-mail address.
func ShouldSkip(text string) bool {
	t := strings.TrimSpace(html.UnescapeString(text))
	if t == "" {
		return true
	}
	return isNumeric(t) || isURL(t) || isEmail(t)
}

// isNumeric accepts digits with the separators that appear in numbers,
// dates, times and percentages.
func isNumeric(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsSpace(r):
		case strings.ContainsRune(".,:;/%+-()#", r):
		default:
			return false
		}
	}
	return digits > 0
}

func isURL(s string) bool {
	if strings.ContainsAny(s, " \t\n") {
		return false
	}
	if strings.HasPrefix(strings.ToLower(s), "www.") && strings.Count(s, ".") >= 2 {
		return true
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "ftp":
		return u.Host != ""
	case "mailto":
		return u.Opaque != ""
	}
	return false
}

func isEmail(s string) bool {
	return emailPattern.MatchString(s)
}
