package protocol

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/matt0x6f/rocketchat-desktop/internal/logger"
)

const (
	// Scheme is the custom URI scheme the OS routes to this application
	Scheme = "rocketchat"

	schemePrefix = Scheme + "://"

	// insecureParam selects plain http when its value is exactly "true"
	insecureParam = "insecure"
)

// Registry accepts server origins resolved from activation links.
// Rejecting unusable origins is the registry's job, not the resolver's.
type Registry interface {
	AddServer(origin string)
}

// ServerLink is a parsed rocketchat:// activation link
type ServerLink struct {
	Host     string
	Path     string
	Insecure bool
}

// Origin returns the http(s) origin the link points at
func (l ServerLink) Origin() string {
	scheme := "https"
	if l.Insecure {
		scheme = "http"
	}
	return scheme + "://" + l.Host + l.Path
}

// Resolver turns activation arguments into server registrations
type Resolver struct {
	registry Registry
}

// NewResolver creates a resolver that forwards origins to registry
func NewResolver(registry Registry) *Resolver {
	return &Resolver{registry: registry}
}

// ActivateLinks resolves args and adds each resulting origin to the registry in order
func (r *Resolver) ActivateLinks(args []string) {
	for _, origin := range ResolveLinks(args) {
		logger.Log.Debug().Str("origin", origin).Msg("Activating server link")
		r.registry.AddServer(origin)
	}
}

// ResolveLinks converts activation arguments into server origins.
// Arguments that are not rocketchat:// links are skipped; the result keeps
// the relative order of the links and is never nil.
func ResolveLinks(args []string) []string {
	origins := make([]string, 0, len(args))
	for _, arg := range args {
		if !IsServerLink(arg) {
			continue
		}
		origins = append(origins, ParseServerLink(arg).Origin())
	}
	return origins
}

// IsServerLink reports whether arg is a rocketchat:// link with a non-empty
// remainder. The remainder may not start with a line terminator.
func IsServerLink(arg string) bool {
	rest, ok := strings.CutPrefix(arg, schemePrefix)
	if !ok || rest == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(rest)
	return !isLineTerminator(first)
}

func isLineTerminator(r rune) bool {
	switch r {
	case '\n', '\r', '\u2028', '\u2029':
		return true
	}
	return false
}

// ParseServerLink extracts host, path and the insecure flag from a link.
// Surrounding whitespace is ignored. It never fails: components that cannot
// be parsed come back empty.
func ParseServerLink(link string) ServerLink {
	link = strings.TrimSpace(link)
	u, err := url.Parse(link)
	if err != nil {
		return parseLoose(strings.TrimPrefix(link, schemePrefix))
	}
	return ServerLink{
		Host:     strings.ToLower(u.Hostname()),
		Path:     u.EscapedPath(),
		Insecure: insecureFlag(u.RawQuery),
	}
}

// parseLoose splits a link remainder by hand when net/url rejects it
// (bad escapes, non-numeric ports and the like).
func parseLoose(rest string) ServerLink {
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		rest = rest[:i]
	}

	var query string
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		rest, query = rest[:i], rest[i+1:]
	}

	authority, path := rest, ""
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		authority, path = rest[:i], rest[i:]
	}

	return ServerLink{
		Host:     strings.ToLower(hostname(authority)),
		Path:     path,
		Insecure: insecureFlag(query),
	}
}

// hostname drops userinfo and port from an authority component
func hostname(authority string) string {
	if i := strings.LastIndexByte(authority, '@'); i >= 0 {
		authority = authority[i+1:]
	}
	if strings.HasPrefix(authority, "[") {
		if i := strings.IndexByte(authority, ']'); i >= 0 {
			return authority[1:i]
		}
		return ""
	}
	if i := strings.IndexByte(authority, ':'); i >= 0 {
		return authority[:i]
	}
	return authority
}

func insecureFlag(rawQuery string) bool {
	// ParseQuery keeps every pair it managed to decode even when it reports an error
	values, _ := url.ParseQuery(rawQuery)
	// a repeated key is a list, never the literal "true"
	flag := values[insecureParam]
	return len(flag) == 1 && flag[0] == "true"
}
