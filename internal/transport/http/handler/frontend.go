package handler

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// NewFrontendProxy forwards page requests to the frontend server. With no
// target every page is a 404.
func NewFrontendProxy(target string) (http.Handler, error) {
	if target == "" {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusNotFound, "Not found")
		}), nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(u)
			pr.SetXForwarded()
			pr.Out.Host = pr.In.Host
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.ErrorContext(r.Context(), "frontend proxy", "path", r.URL.Path, "err", err)
			writeError(w, http.StatusBadGateway, "Frontend unavailable")
		},
	}, nil
}
