package rfc9110

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// §  13.2.  Evaluation of Preconditions
// §
// §  13.2.1.  When to Evaluate
// §
// §     Except when excluded below, a recipient cache or origin server MUST
// §     evaluate received request preconditions after it has successfully
// §     performed its normal request checks and just before it would process
// §     the request content (if any) or perform the action associated with
// §     the request method.  A server MUST ignore all received preconditions
// §     if its response to the same request without those conditions, prior
// §     to processing the request content, would have been a status code
// §     other than a 2xx (Successful) or 412 (Precondition Failed).

// PreconditionState is the outcome of evaluating one precondition.
// The outcome of a request is the highest ranked state of its preconditions.
type PreconditionState int

const (
	Unspecified PreconditionState = iota
	NotModified
	ShouldProcess
	PreconditionFailed
)

// preconditionRank orders the states when combining them:
// a failed precondition beats a processed one, which beats not modified.
var preconditionRank = map[PreconditionState]int{
	Unspecified:        0,
	NotModified:        1,
	ShouldProcess:      2,
	PreconditionFailed: 3,
}

func (s PreconditionState) rank() int {
	return preconditionRank[s]
}

func (s PreconditionState) String() string {
	switch s {
	case NotModified:
		return "not-modified"
	case ShouldProcess:
		return "should-process"
	case PreconditionFailed:
		return "precondition-failed"
	default:
		return "unspecified"
	}
}

// CombinePreconditions returns the highest ranked state.
func CombinePreconditions(states ...PreconditionState) PreconditionState {
	combined := Unspecified
	for _, state := range states {
		if state.rank() > combined.rank() {
			combined = state
		}
	}
	return combined
}

// MultiRangePolicy decides what happens to requests for more than one range.
// Multipart responses are never generated. Serving many small ranges to a
// client is expensive, so by default such a Range is ignored and the whole
// representation is sent.
type MultiRangePolicy int

const (
	// MultiRangeIgnore ignores the Range field when it asks for more than one
	// range or is sent on several field lines.
	MultiRangeIgnore MultiRangePolicy = iota
	// MultiRangeFirst honors the first range of a single Range field line.
	// Several Range field lines are still ignored.
	MultiRangeFirst
)

// ParseMultiRangePolicy parses "ignore" or "first".
func ParseMultiRangePolicy(s string) (MultiRangePolicy, bool) {
	switch strings.ToLower(s) {
	case "", "ignore":
		return MultiRangeIgnore, true
	case "first":
		return MultiRangeFirst, true
	}
	return MultiRangeIgnore, false
}

func (p MultiRangePolicy) String() string {
	if p == MultiRangeFirst {
		return "first"
	}
	return "ignore"
}

// Evaluator evaluates conditional and range requests against a Resource.
// The zero value is ready to use. An Evaluator has no mutable state and can
// be used from any number of goroutines.
type Evaluator struct {
	// Now returns the current time; time.Now is used if nil.
	Now func() time.Time
	// MultipleRanges is the policy for requests asking for several ranges.
	MultipleRanges MultiRangePolicy
}

// Evaluate evaluates req against res with a default Evaluator.
func Evaluate(res Resource, req Request) Disposition {
	return Evaluator{}.Evaluate(res, req)
}

type rangeKind int

const (
	rangeNone rangeKind = iota
	rangeSatisfiable
	rangeUnsatisfiable
)

// rangeOutcome is the range decision for a request. start and end are
// inclusive and only set for rangeSatisfiable.
type rangeOutcome struct {
	kind       rangeKind
	start, end uint64
}

// evaluation holds the state of a single evaluation; it is discarded once
// the Disposition has been built.
type evaluation struct {
	ifMatch           PreconditionState
	ifNoneMatch       PreconditionState
	ifModifiedSince   PreconditionState
	ifUnmodifiedSince PreconditionState
	rangeOutcome      rangeOutcome
}

func (e Evaluator) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Evaluate decides status code, header fields and content window of the
// response to req for the representation res. It does no I/O.
func (e Evaluator) Evaluate(res Resource, req Request) Disposition {
	var ev evaluation
	ev.ifMatch, ev.ifNoneMatch = evaluateEntityTags(res, req)
	ev.ifModifiedSince, ev.ifUnmodifiedSince = evaluateDates(res, req, e.now())
	ev.rangeOutcome = e.evaluateRange(res, req)
	if ev.rangeOutcome.kind != rangeNone {
		ev.rangeOutcome = evaluateIfRange(res, req, ev.rangeOutcome)
	}
	precondition := CombinePreconditions(
		ev.ifMatch, ev.ifNoneMatch, ev.ifModifiedSince, ev.ifUnmodifiedSince)
	return dispatch(res, req, precondition, ev.rangeOutcome)
}

// §  13.1.1.  If-Match
// §
// §     An origin server that receives an If-Match header field MUST evaluate
// §     the condition as per Section 13.2 prior to performing the method.
// §
// §     To evaluate a received If-Match header field:
// §
// §     1.  If the field value is "*", the condition is true if the origin
// §         server has a current representation for the target resource.
// §
// §     2.  If the field value is a list of entity tags, the condition is true
// §         if any of the listed tags match the entity tag of the selected
// §         representation.
// §
// §     3.  Otherwise, the condition is false.
// §
// §  13.1.2.  If-None-Match
// §
// §     To evaluate a received If-None-Match header field:
// §
// §     1.  If the field value is "*", the condition is false if the origin
// §         server has a current representation for the target resource.
// §
// §     2.  If the field value is a list of entity tags, the condition is
// §         false if one of the listed tags matches the entity tag of the
// §         selected representation.
// §
// §     3.  Otherwise, the condition is true.
//
// Both lists are compared with the strong comparison function.
func evaluateEntityTags(res Resource, req Request) (ifMatch, ifNoneMatch PreconditionState) {
	// a list without a single valid member counts as absent
	if etags := ParseEntityTagList(req.IfMatch); len(etags) > 0 {
		ifMatch = PreconditionFailed
		if anyEntityTagMatches(etags, res.ETag) {
			ifMatch = ShouldProcess
		}
	}
	if etags := ParseEntityTagList(req.IfNoneMatch); len(etags) > 0 {
		ifNoneMatch = ShouldProcess
		if anyEntityTagMatches(etags, res.ETag) {
			ifNoneMatch = NotModified
		}
	}
	return ifMatch, ifNoneMatch
}

func anyEntityTagMatches(etags []EntityTag, current EntityTag) bool {
	for _, etag := range etags {
		if etag.IsAny() || etag.Compare(current, true) {
			return true
		}
	}
	return false
}

func isPresent(lines []string) bool {
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			return true
		}
	}
	return false
}

// §  13.1.3.  If-Modified-Since
// §
// §     A recipient MUST ignore the If-Modified-Since header field if the
// §     received field value is not a valid HTTP-date, the field value has
// §     more than one member, or if the request method is neither GET nor
// §     HEAD.
// §
// §     An origin server that receives an If-Modified-Since header field
// §     SHOULD evaluate the condition as per Section 13.2 prior to performing
// §     the method.
// §
// §     To evaluate a received If-Modified-Since header field:
// §
// §     1.  If the selected representation's last modification date is
// §         earlier or equal to the date provided in the field value, the
// §         condition is false.
// §
// §     2.  Otherwise, the condition is true.
// §
// §  13.1.4.  If-Unmodified-Since
// §
// §     To evaluate a received If-Unmodified-Since header field:
// §
// §     1.  If the selected representation's last modification date is
// §         earlier than or equal to the date provided in the field value,
// §         the condition is true.
// §
// §     2.  Otherwise, the condition is false.
//
// A date in the future cannot be compared to a modification date in a
// meaningful way, so such a field is ignored.
func evaluateDates(res Resource, req Request, now time.Time) (ifModifiedSince, ifUnmodifiedSince PreconditionState) {
	if date, ok := pastHttpDate(req.IfModifiedSince, now); ok {
		if date.Before(res.LastModified) {
			ifModifiedSince = ShouldProcess
		} else {
			ifModifiedSince = NotModified
		}
	}
	if date, ok := pastHttpDate(req.IfUnmodifiedSince, now); ok {
		if !date.Before(res.LastModified) {
			ifUnmodifiedSince = ShouldProcess
		} else {
			ifUnmodifiedSince = PreconditionFailed
		}
	}
	return ifModifiedSince, ifUnmodifiedSince
}

func pastHttpDate(value string, now time.Time) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	date, err := HttpDate(value)
	if err != nil || date.After(now) {
		return time.Time{}, false
	}
	return date, true
}

// evaluateRange decides whether req is a range request and which bytes it
// selects. Only GET requests can be range requests. A Range value that
// cannot be parsed, or names an unknown unit, is ignored.
func (e Evaluator) evaluateRange(res Resource, req Request) rangeOutcome {
	if req.Method != http.MethodGet || !isPresent(req.Range) {
		return rangeOutcome{}
	}
	if len(req.Range) > 1 {
		return rangeOutcome{}
	}
	value := strings.TrimSpace(req.Range[0])
	multiple := strings.ContainsRune(value, ',')
	if multiple && e.MultipleRanges == MultiRangeIgnore {
		return rangeOutcome{}
	}
	rangeSet, ok := ParseRange(value)
	if !ok || !rangeSet.IsBytes() {
		return rangeOutcome{}
	}
	if len(rangeSet.Ranges) == 0 || res.Length == 0 {
		return rangeOutcome{kind: rangeUnsatisfiable}
	}
	start, end, ok := rangeSet.Ranges[0].Normalize(res.Length)
	if !ok {
		return rangeOutcome{kind: rangeUnsatisfiable}
	}
	return rangeOutcome{kind: rangeSatisfiable, start: start, end: end}
}

// evaluateIfRange turns a range request into a normal request if the If-Range
// condition does not hold. An If-Range value that cannot be parsed is ignored.
func evaluateIfRange(res Resource, req Request, outcome rangeOutcome) rangeOutcome {
	if req.IfRange == "" {
		return outcome
	}
	condition, ok := ParseRangeCondition(strings.TrimSpace(req.IfRange))
	if !ok {
		return outcome
	}
	if !condition.Holds(res) {
		return rangeOutcome{}
	}
	return outcome
}

// §  13.2.2.  Precedence of Preconditions
// §
// §     When more than one conditional request header field is present in a
// §     request, the order in which the fields are evaluated becomes
// §     important.  In practice, the fields defined in this document are
// §     consistently implemented in a single, logical order, since "lost
// §     update" preconditions have more strict requirements than cache
// §     validation, a validated cache is more efficient than a partial
// §     response, and entity tags are presumed to be more accurate than date
// §     validators.
func dispatch(res Resource, req Request, precondition PreconditionState, outcome rangeOutcome) Disposition {
	d := Disposition{
		Header:       make(http.Header),
		Precondition: precondition,
	}
	switch precondition {
	case PreconditionFailed:
		d.StatusCode = http.StatusPreconditionFailed
		return d
	case NotModified:
		d.StatusCode = http.StatusNotModified
		return d
	}

	switch {
	case req.Method == http.MethodHead:
		d.StatusCode = http.StatusOK
		setRepresentationHeaders(d.Header, res)
		d.Header.Set(HeaderContentLength, strconv.FormatUint(res.Length, 10))
	case outcome.kind == rangeSatisfiable:
		length := outcome.end - outcome.start + 1
		d.StatusCode = http.StatusPartialContent
		d.Header.Set(HeaderContentRange, NewContentRange(outcome.start, outcome.end, res.Length).String())
		d.Header.Set(HeaderContentLength, strconv.FormatUint(length, 10))
		setRepresentationHeaders(d.Header, res)
		d.Body = &Window{Start: outcome.start, Length: length}
	case outcome.kind == rangeUnsatisfiable:
		// §  A server that generates a 416 response to a byte-range request
		// §  SHOULD generate a Content-Range header field specifying the
		// §  current length of the selected representation (Section 14.4).
		d.StatusCode = http.StatusRequestedRangeNotSatisfiable
		d.Header.Set(HeaderContentRange, UnsatisfiedContentRange(res.Length).String())
		setRepresentationHeaders(d.Header, res)
	default:
		d.StatusCode = http.StatusOK
		setRepresentationHeaders(d.Header, res)
		d.Header.Set(HeaderContentLength, strconv.FormatUint(res.Length, 10))
		d.Body = &Window{Start: 0, Length: res.Length}
	}
	return d
}

// setRepresentationHeaders sets the validator and representation fields
// sent with 200, 206 and 416 responses.
func setRepresentationHeaders(h http.Header, res Resource) {
	if res.ContentType != "" {
		h.Set(HeaderContentType, res.ContentType)
	}
	h.Set(HeaderLastModified, ToHttpDate(res.LastModified))
	h.Set(HeaderETag, res.ETag.String())
	h.Set(HeaderAcceptRanges, BytesUnit)
	h.Set(HeaderConnection, "keep-alive")
}
