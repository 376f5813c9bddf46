package register

import (
	"net/url"
	"strings"
)

// DefaultRedirect is the target used when no redirect parameter is present.
const DefaultRedirect = "/"

// ResolveRedirect returns the redirect target carried by the "redirect" query parameter.
func ResolveRedirect(query url.Values) string {
	return SanitizeRedirect(query.Get("redirect"))
}

// ResolveRedirectURL is ResolveRedirect for a raw URL or request URI.
func ResolveRedirectURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return DefaultRedirect
	}
	return ResolveRedirect(u.Query())
}

// SanitizeRedirect accepts only local absolute paths. Anything else, including
// protocol-relative and absolute URLs, resolves to DefaultRedirect.
func SanitizeRedirect(target string) string {
	target = strings.TrimSpace(target)
	if target == "" || !strings.HasPrefix(target, "/") {
		return DefaultRedirect
	}
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return DefaultRedirect
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return DefaultRedirect
	}
	return target
}

// LoginLink returns the login page link that carries the redirect target along.
func LoginLink(redirect string) string {
	if redirect == "" {
		return "/login"
	}
	return "/login?" + url.Values{"redirect": {redirect}}.Encode()
}
