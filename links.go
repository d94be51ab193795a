package distill

import (
	"net/url"
	"regexp"
	"strings"
)

// MaxLinks caps the number of links harvested from a single text.
const MaxLinks = 100

var linkPattern = regexp.MustCompile(`(?i)https?://[^\s<>"'` + "`" + `\[\]{}|\\^]+`)

// HarvestLinks scans text for HTTP(S) URLs and returns them normalized and
// deduplicated in order of first occurrence, capped at MaxLinks.
//
// Harvesting is idempotent: feeding the returned links back in yields the
// same set.
func HarvestLinks(text string) []string {
	matches := linkPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	var links []string
	for _, m := range matches {
		// The fragment goes first so punctuation before a '#' is trimmed too.
		if i := strings.IndexByte(m, '#'); i >= 0 {
			m = m[:i]
		}
		u, ok := NormalizeURL(trimLinkPunctuation(m))
		if !ok {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		links = append(links, u)
		if len(links) >= MaxLinks {
			break
		}
	}
	return links
}

// NormalizeURL returns the canonical string form of an absolute HTTP(S) URL:
// lowercase scheme and host, default port dropped, fragment and empty query
// stripped, and an empty path replaced by "/". The bool result is false for anything else.
func NormalizeURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", false
	}
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		host = host + ":" + port
	}
	u.Host = host
	u.User = nil
	u.Fragment = ""
	u.RawFragment = ""
	u.ForceQuery = false
	if u.Path == "" && u.RawPath == "" {
		u.Path = "/"
	}
	return u.String(), true
}

// trimLinkPunctuation drops sentence punctuation captured at the end of a
// match. A closing parenthesis is kept when it balances one inside the URL.
func trimLinkPunctuation(s string) string {
	for len(s) > 0 {
		last := s[len(s)-1]
		switch last {
		case '.', ',', ';', ':', '!', '?', '*', '_', '~':
			s = s[:len(s)-1]
		case ')':
			if strings.Count(s, "(") >= strings.Count(s, ")") {
				return s
			}
			s = s[:len(s)-1]
		default:
			return s
		}
	}
	return s
}
