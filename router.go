package rangeserve

import (
	"net/http"
	"strings"

	recorder "github.com/always-cache/rangeserve/pkg/response-recorder"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Mount serves a handler below a path prefix.
type Mount struct {
	Prefix  string
	Handler http.Handler
}

// NewRouter routes GET and HEAD requests to the mounts. The prefix is removed
// from the request path before calling the handler of a mount. Other methods
// are answered with 405, requests are logged to logger.
func NewRouter(logger zerolog.Logger, mounts ...Mount) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(recorder.AccessLog(logger))

	for _, mount := range mounts {
		prefix := strings.TrimSuffix(mount.Prefix, "/")
		if prefix != "" && !strings.HasPrefix(prefix, "/") {
			prefix = "/" + prefix
		}
		handler := mount.Handler.ServeHTTP
		if prefix != "" {
			handler = http.StripPrefix(prefix, mount.Handler).ServeHTTP
			r.Get(prefix, handler)
			r.Head(prefix, handler)
		}
		r.Get(prefix+"/*", handler)
		r.Head(prefix+"/*", handler)
	}
	return r
}
