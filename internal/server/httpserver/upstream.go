package httpserver

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/smartscan/admingate/internal/logging"
)

// newUpstream returns the handler for requests that passed the gate but are
// not served here. With a target URL it reverse-proxies to the dashboard
// front-end; without one it answers with a placeholder.
func newUpstream(target string, log logging.Logger) (http.Handler, error) {
	if target == "" {
		return http.HandlerFunc(placeholder), nil
	}

	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("upstream url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("upstream url: %q is not an absolute http(s) url", target)
	}

	proxy := httputil.NewSingleHostReverseProxy(u)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Error(r.Context(), "upstream request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadGateway, "Bad gateway")
	}
	return proxy, nil
}

func placeholder(w http.ResponseWriter, r *http.Request) {
	p := cleanPath(r.URL.Path)
	if hasSegmentPrefix(p, apiPrefix) {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	area := strings.SplitN(strings.TrimPrefix(p, "/"), "/", 2)[0]
	if area == "" {
		area = "home"
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "smartscan %s\n", area)
}
