// Package router is a small method-aware HTTP router with wildcard path
// segments and per-request logging.
package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// HandlerFunc handles one request.
type HandlerFunc func(http.ResponseWriter, *http.Request)

// Router dispatches by method and path. Register paths with GET/POST/...;
// a "*" segment matches any single segment, a trailing "*" matches the
// rest of the path.
type Router struct {
	mux    *http.ServeMux
	routes map[string]HandlerFunc // key = METHOD:PATH
	paths  map[string]bool
	logger zerolog.Logger
}

// New creates a router logging requests through the given logger.
func New(logger zerolog.Logger) *Router {
	r := &Router{
		mux:    http.NewServeMux(),
		routes: make(map[string]HandlerFunc),
		paths:  make(map[string]bool),
		logger: logger.With().Str("component", "http").Logger(),
	}

	r.mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		key := req.Method + ":" + req.URL.Path
		if h, ok := r.routes[key]; ok {
			h(lrw, req)
		} else {
			found := false
			for routePath := range r.paths {
				if strings.Contains(routePath, "*") && matchWildcardRoute(req.URL.Path, routePath) {
					if h, ok := r.routes[req.Method+":"+routePath]; ok {
						h(lrw, req)
						found = true
						break
					}
				}
			}

			if !found {
				if r.paths[req.URL.Path] {
					http.Error(lrw, "Method Not Allowed", http.StatusMethodNotAllowed)
				} else {
					http.Error(lrw, "Not Found", http.StatusNotFound)
				}
			}
		}

		r.logger.Info().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Int("status", lrw.statusCode).
			Dur("duration", time.Since(start)).
			Msg("request")
	})

	return r
}

// matchWildcardRoute checks a request path against a wildcard pattern.
func matchWildcardRoute(requestPath, routePattern string) bool {
	requestSegments := strings.Split(strings.Trim(requestPath, "/"), "/")
	routeSegments := strings.Split(strings.Trim(routePattern, "/"), "/")

	// A trailing wildcard swallows any number of remaining segments.
	if len(routeSegments) > 0 && routeSegments[len(routeSegments)-1] == "*" {
		if len(requestSegments) < len(routeSegments)-1 {
			return false
		}
		for i := 0; i < len(routeSegments)-1; i++ {
			if requestSegments[i] != routeSegments[i] {
				return false
			}
		}
		return true
	}

	if len(requestSegments) != len(routeSegments) {
		return false
	}
	for i, routeSegment := range routeSegments {
		if routeSegment == "*" {
			continue
		}
		if requestSegments[i] != routeSegment {
			return false
		}
	}
	return true
}

func (r *Router) register(method, path string, handler HandlerFunc) {
	r.routes[method+":"+path] = handler
	r.paths[path] = true
}

func (r *Router) GET(path string, handler HandlerFunc)  { r.register(http.MethodGet, path, handler) }
func (r *Router) POST(path string, handler HandlerFunc) { r.register(http.MethodPost, path, handler) }
func (r *Router) PUT(path string, handler HandlerFunc)  { r.register(http.MethodPut, path, handler) }
func (r *Router) DELETE(path string, handler HandlerFunc) {
	r.register(http.MethodDelete, path, handler)
}

// Routes exposes the registered routes, mainly for tests.
func (r *Router) Routes() map[string]HandlerFunc {
	return r.routes
}

// Handler returns the root handler for mounting in an http.Server.
func (r *Router) Handler() http.Handler {
	return r.mux
}

// Start serves on addr until the listener fails.
func (r *Router) Start(addr string) error {
	r.logger.Info().Str("addr", addr).Msg("server started")
	return http.ListenAndServe(addr, r.mux)
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}
