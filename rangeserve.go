// Package rangeserve serves static representations over HTTP with full
// support for conditional and range requests.
package rangeserve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/always-cache/rangeserve/rfc9110"
	"github.com/always-cache/rangeserve/source"

	"github.com/jackc/puddle/v2"
	"github.com/rs/zerolog"
)

const (
	DefaultMaxStreams = 256
	DefaultBufferSize = 32 * 1024
)

type Config struct {
	// Source of the representations. Request paths are used as ids.
	Source source.Source
	// Logger to use. A console logger is used if nil.
	Logger *zerolog.Logger
	// Policy for requests asking for more than one range.
	MultipleRanges rfc9110.MultiRangePolicy
	// Clock for evaluating date preconditions. Defaults to time.Now.
	Now func() time.Time
	// Maximum number of responses streaming content at the same time.
	// Further responses wait for a free stream.
	MaxStreams int32
	// Size of the copy buffer of each stream.
	BufferSize int
}

// Server is an http.Handler serving GET and HEAD requests from a Source.
type Server struct {
	source    source.Source
	evaluator rfc9110.Evaluator
	log       zerolog.Logger
	buffers   *puddle.Pool[[]byte]
}

// New creates a server for the given config.
func New(config Config) (*Server, error) {
	// use console logger if not specified in config
	var logger zerolog.Logger
	if config.Logger == nil {
		logger = zerolog.New(zerolog.NewConsoleWriter())
	} else {
		logger = *config.Logger
	}

	maxStreams := config.MaxStreams
	if maxStreams <= 0 {
		maxStreams = DefaultMaxStreams
	}
	bufferSize := config.BufferSize
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	buffers, err := puddle.NewPool(&puddle.Config[[]byte]{
		Constructor: func(ctx context.Context) ([]byte, error) {
			return make([]byte, bufferSize), nil
		},
		Destructor: func([]byte) {},
		MaxSize:    maxStreams,
	})
	if err != nil {
		return nil, err
	}

	return &Server{
		source: config.Source,
		evaluator: rfc9110.Evaluator{
			Now:            config.Now,
			MultipleRanges: config.MultipleRanges,
		},
		log:     logger,
		buffers: buffers,
	}, nil
}

// Close releases the stream buffers. Responses still streaming are not
// interrupted; later responses with content get 503.
func (s *Server) Close() {
	s.buffers.Close()
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := s.log.With().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Logger()

	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log.WithLevel(zerolog.PanicLevel).Interface("panic", rec).Msg("Recovered from panic")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}()

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	handle, err := s.source.Open(r.Context(), r.URL.Path)
	if err != nil {
		s.sourceError(w, log, err)
		return
	}
	defer handle.Close()

	info, err := handle.Stat()
	if err != nil {
		s.sourceError(w, log, err)
		return
	}

	res := rfc9110.NewResource(info.Size, info.ModTime, info.ContentType)
	disposition := s.evaluator.Evaluate(res, rfc9110.RequestFromHTTP(r))
	log.Trace().
		Int("status", disposition.StatusCode).
		Stringer("precondition", disposition.Precondition).
		Str("range", r.Header.Get(rfc9110.HeaderRange)).
		Str("contentRange", disposition.Header.Get(rfc9110.HeaderContentRange)).
		Msg("Evaluated request")

	// get the content and a stream buffer before writing the status, so that
	// errors can be reported
	var body io.Reader
	var buffer *puddle.Resource[[]byte]
	if window := disposition.Body; window != nil && window.Length > 0 {
		if body, err = handle.ReadWindow(window.Start, window.Length); err != nil {
			s.sourceError(w, log, err)
			return
		}
		if buffer, err = s.buffers.Acquire(r.Context()); err != nil {
			if errors.Is(err, puddle.ErrClosedPool) {
				err = fmt.Errorf("%w: %w", source.ErrUnavailable, err)
			}
			s.sourceError(w, log, err)
			return
		}
		defer buffer.Release()
	}

	copyHeader(w.Header(), disposition.Header)
	w.WriteHeader(disposition.StatusCode)

	if body != nil {
		stream(w, body, disposition.Body.Length, buffer.Value(), log)
	}
}

// stream copies exactly length bytes from body to w.
func stream(w io.Writer, body io.Reader, length uint64, buffer []byte, log zerolog.Logger) {
	// hide io.ReaderFrom of w, so that the pooled buffer is used
	written, err := io.CopyBuffer(struct{ io.Writer }{w}, io.LimitReader(body, int64(length)), buffer)
	if err != nil {
		log.Debug().Err(err).Int64("written", written).Msg("Could not stream content")
		return
	}
	if uint64(written) != length {
		log.Error().Int64("written", written).Uint64("length", length).Msg("Content is shorter than announced")
	}
}

func (s *Server) sourceError(w http.ResponseWriter, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, source.ErrNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	case errors.Is(err, source.ErrUnavailable):
		log.Warn().Err(err).Msg("Source unavailable")
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
	case errors.Is(err, context.Canceled):
		log.Debug().Err(err).Msg("Request canceled")
	default:
		log.Error().Err(err).Msg("Could not read from source")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func copyHeader(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}
