// Package rfc9110 implements the conditional request (Section 13) and range
// request (Section 14) semantics of RFC 9110 for serving static
// representations, together with the field value grammar they rely on.
//
// The files of this package follow the sections of the RFC.
package rfc9110

import (
	"net/http"
	"time"
)

// Field names read and written by the evaluator.
const (
	HeaderIfMatch           = "If-Match"
	HeaderIfNoneMatch       = "If-None-Match"
	HeaderIfModifiedSince   = "If-Modified-Since"
	HeaderIfUnmodifiedSince = "If-Unmodified-Since"
	HeaderIfRange           = "If-Range"
	HeaderRange             = "Range"

	HeaderAcceptRanges  = "Accept-Ranges"
	HeaderConnection    = "Connection"
	HeaderContentLength = "Content-Length"
	HeaderContentRange  = "Content-Range"
	HeaderContentType   = "Content-Type"
	HeaderETag          = "ETag"
	HeaderLastModified  = "Last-Modified"
)

// Resource is the metadata of a selected representation, captured once per
// response. It is never modified after creation.
type Resource struct {
	Length       uint64
	LastModified time.Time
	ETag         EntityTag
	ContentType  string
}

// NewResource snapshots the metadata of a representation.
// The modification time is truncated to whole seconds, the precision of an
// HTTP-date, so that a Last-Modified value echoed back by a client compares
// equal. The entity tag is derived from the full precision time and the length.
func NewResource(length uint64, modTime time.Time, contentType string) Resource {
	return Resource{
		Length:       length,
		LastModified: modTime.UTC().Truncate(time.Second),
		ETag:         ResourceEntityTag(modTime, length),
		ContentType:  contentType,
	}
}

// Request holds the raw values of the fields taking part in evaluation.
// Multi-line fields keep every line.
type Request struct {
	Method            string
	IfMatch           []string
	IfNoneMatch       []string
	IfModifiedSince   string
	IfUnmodifiedSince string
	IfRange           string
	Range             []string
}

// RequestFromHTTP collects the conditional and range fields of r.
func RequestFromHTTP(r *http.Request) Request {
	return Request{
		Method:            r.Method,
		IfMatch:           r.Header.Values(HeaderIfMatch),
		IfNoneMatch:       r.Header.Values(HeaderIfNoneMatch),
		IfModifiedSince:   r.Header.Get(HeaderIfModifiedSince),
		IfUnmodifiedSince: r.Header.Get(HeaderIfUnmodifiedSince),
		IfRange:           r.Header.Get(HeaderIfRange),
		Range:             r.Header.Values(HeaderRange),
	}
}

// Window is a slice of representation data to send, Start and Length in bytes.
type Window struct {
	Start  uint64
	Length uint64
}

// Disposition is the outcome of evaluating a request against a Resource:
// the status code, the header fields to send and the part of the
// representation to transfer. Body is nil when no content is sent.
type Disposition struct {
	StatusCode   int
	Header       http.Header
	Body         *Window
	Precondition PreconditionState
}
