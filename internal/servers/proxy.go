package servers

import (
	"crypto/tls"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/matt0x6f/rocketchat-desktop/internal/logger"
	"github.com/matt0x6f/rocketchat-desktop/internal/storage"
)

// ProxyPrefix is the local path under which server content is served
const ProxyPrefix = "/server/"

// ProxyPath returns the local path serving the server with the given id
func ProxyPath(id int64) string {
	return ProxyPrefix + strconv.FormatInt(id, 10) + "/"
}

// Lookup finds a stored server by id
type Lookup interface {
	GetServerByID(id int64) (*storage.Server, error)
}

// TLSConfigurer supplies the client TLS configuration used to reach host
type TLSConfigurer interface {
	TLSConfig(host string) *tls.Config
}

// Proxy forwards requests under ProxyPrefix to the matching server origin.
// Every https connection it opens is verified through the TLSConfigurer, so
// a certificate the user accepted is what lets the server load.
type Proxy struct {
	lookup Lookup
	tls    TLSConfigurer

	mu         sync.Mutex
	transports map[string]*http.Transport
}

// NewProxy creates a proxy resolving ids through lookup
func NewProxy(lookup Lookup, configurer TLSConfigurer) *Proxy {
	return &Proxy{
		lookup:     lookup,
		tls:        configurer,
		transports: make(map[string]*http.Transport),
	}
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, rest, ok := splitProxyPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	server, err := p.lookup.GetServerByID(id)
	if errors.Is(err, storage.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		logger.Log.Error().Err(err).Int64("id", id).Msg("Failed to look up server")
		http.Error(w, "failed to look up server", http.StatusInternalServerError)
		return
	}

	target, err := url.Parse(server.URL)
	if err != nil || target.Host == "" {
		logger.Log.Warn().Err(err).Str("url", server.URL).Msg("Stored server has an unusable origin")
		http.Error(w, "invalid server origin", http.StatusBadGateway)
		return
	}

	local := ProxyPath(id)
	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Path = rest
			pr.Out.URL.RawPath = ""
			pr.SetURL(target)
		},
		Transport: p.transport(target),
		ModifyResponse: func(resp *http.Response) error {
			// keep redirects within the server inside the proxy
			if location := resp.Header.Get("Location"); location != "" {
				resp.Header.Set("Location", rewriteLocation(location, target, local))
			}
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Log.Warn().Err(err).Str("url", server.URL).Str("path", rest).Msg("Server request failed")
			http.Error(w, "server unreachable", http.StatusBadGateway)
		},
	}
	proxy.ServeHTTP(w, r)
}

// transport returns the shared transport for target's host, creating it on first use
func (p *Proxy) transport(target *url.URL) *http.Transport {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := target.Scheme + "://" + target.Host
	if t, ok := p.transports[key]; ok {
		return t
	}
	t := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		TLSClientConfig:     p.tls.TLSConfig(target.Hostname()),
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 15 * time.Second,
	}
	p.transports[key] = t
	return t
}

// Forget drops pooled connections to host so the next request verifies its
// certificate again
func (p *Proxy) Forget(host string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for key, t := range p.transports {
		u, err := url.Parse(key)
		if err != nil || !strings.EqualFold(u.Hostname(), host) {
			continue
		}
		t.CloseIdleConnections()
		delete(p.transports, key)
	}
}

// Close releases all pooled connections
func (p *Proxy) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for key, t := range p.transports {
		t.CloseIdleConnections()
		delete(p.transports, key)
	}
}

// splitProxyPath turns "/server/12/api/info" into 12 and "/api/info"
func splitProxyPath(path string) (int64, string, bool) {
	rest, ok := strings.CutPrefix(path, ProxyPrefix)
	if !ok {
		return 0, "", false
	}
	idPart, rest, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return 0, "", false
	}
	return id, "/" + rest, true
}

func rewriteLocation(location string, target *url.URL, local string) string {
	u, err := url.Parse(location)
	if err != nil || u.Host == "" || !strings.EqualFold(u.Host, target.Host) || u.Scheme != target.Scheme {
		return location
	}
	path := strings.TrimPrefix(u.EscapedPath(), strings.TrimSuffix(target.EscapedPath(), "/"))
	rewritten := strings.TrimSuffix(local, "/") + "/" + strings.TrimPrefix(path, "/")
	if u.RawQuery != "" {
		rewritten += "?" + u.RawQuery
	}
	return rewritten
}
