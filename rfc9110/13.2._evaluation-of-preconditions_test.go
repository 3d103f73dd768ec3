package rfc9110

import (
	"net/http"
	"strconv"
	"testing"
	"time"
)

var (
	testModified = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	testNow      = time.Date(2025, 6, 7, 8, 9, 10, 0, time.UTC)
)

func testResource() Resource {
	return NewResource(10, testModified, "text/plain")
}

func testEvaluator(policy MultiRangePolicy) Evaluator {
	return Evaluator{
		Now:            func() time.Time { return testNow },
		MultipleRanges: policy,
	}
}

func get() Request {
	return Request{Method: http.MethodGet}
}

func TestEvaluateNoConditions(t *testing.T) {
	for _, length := range []uint64{0, 1, 10, 1 << 40} {
		res := NewResource(length, testModified, "")
		d := testEvaluator(MultiRangeIgnore).Evaluate(res, get())
		if d.StatusCode != http.StatusOK {
			t.Fatalf("Status is %d", d.StatusCode)
		}
		if cl := d.Header.Get(HeaderContentLength); cl != strconv.FormatUint(length, 10) {
			t.Fatalf("Content-Length is %s for length %d", cl, length)
		}
		if cr := d.Header.Get(HeaderContentRange); cr != "" {
			t.Fatalf("Content-Range is %s", cr)
		}
		if d.Body == nil || d.Body.Start != 0 || d.Body.Length != length {
			t.Fatalf("Body is %v", d.Body)
		}
		if d.Header.Get(HeaderContentType) != "" {
			t.Fatalf("Unknown content type is sent")
		}
	}
}

func TestEvaluateSuccessHeaders(t *testing.T) {
	res := testResource()
	d := testEvaluator(MultiRangeIgnore).Evaluate(res, get())
	expected := map[string]string{
		HeaderContentType:  "text/plain",
		HeaderLastModified: "Tue, 02 Jan 2024 03:04:05 GMT",
		HeaderETag:         res.ETag.String(),
		HeaderAcceptRanges: "bytes",
		HeaderConnection:   "keep-alive",
	}
	for name, value := range expected {
		if v := d.Header.Get(name); v != value {
			t.Fatalf("%s is %s, expected %s", name, v, value)
		}
	}
}

func TestEvaluateRange(t *testing.T) {
	req := get()
	req.Range = []string{"bytes=2-5"}
	d := testEvaluator(MultiRangeIgnore).Evaluate(testResource(), req)
	if d.StatusCode != http.StatusPartialContent {
		t.Fatalf("Status is %d", d.StatusCode)
	}
	if cr := d.Header.Get(HeaderContentRange); cr != "bytes 2-5/10" {
		t.Fatalf("Content-Range is %s", cr)
	}
	if cl := d.Header.Get(HeaderContentLength); cl != "4" {
		t.Fatalf("Content-Length is %s", cl)
	}
	if d.Body == nil || d.Body.Start != 2 || d.Body.Length != 4 {
		t.Fatalf("Body is %v", d.Body)
	}
	if d.Header.Get(HeaderETag) == "" {
		t.Fatalf("ETag is missing from partial response")
	}
}

func TestEvaluateSuffixRange(t *testing.T) {
	req := get()
	req.Range = []string{"bytes=-3"}
	d := testEvaluator(MultiRangeIgnore).Evaluate(testResource(), req)
	if d.StatusCode != http.StatusPartialContent || d.Header.Get(HeaderContentRange) != "bytes 7-9/10" {
		t.Fatalf("Suffix range is %d %s", d.StatusCode, d.Header.Get(HeaderContentRange))
	}
}

func TestEvaluateUnsatisfiableRange(t *testing.T) {
	req := get()
	req.Range = []string{"bytes=15-20"}
	d := testEvaluator(MultiRangeIgnore).Evaluate(testResource(), req)
	if d.StatusCode != http.StatusRequestedRangeNotSatisfiable {
		t.Fatalf("Status is %d", d.StatusCode)
	}
	if cr := d.Header.Get(HeaderContentRange); cr != "bytes */10" {
		t.Fatalf("Content-Range is %s", cr)
	}
	if _, ok := d.Header[HeaderContentLength]; ok {
		t.Fatalf("Content-Length is %s", d.Header.Get(HeaderContentLength))
	}
	if d.Body != nil {
		t.Fatalf("Body is %v", d.Body)
	}
}

func TestEvaluateRangeOfEmptyResource(t *testing.T) {
	req := get()
	req.Range = []string{"bytes=0-"}
	d := testEvaluator(MultiRangeIgnore).Evaluate(NewResource(0, testModified, ""), req)
	if d.StatusCode != http.StatusRequestedRangeNotSatisfiable || d.Header.Get(HeaderContentRange) != "bytes */0" {
		t.Fatalf("Empty resource range is %d %s", d.StatusCode, d.Header.Get(HeaderContentRange))
	}
}

func TestEvaluateIgnoredRanges(t *testing.T) {
	tests := []struct {
		name   string
		method string
		lines  []string
	}{
		{"multiple lines", http.MethodGet, []string{"bytes=0-1", "bytes=15-20"}},
		{"multiple ranges", http.MethodGet, []string{"bytes=0-1,15-20"}},
		{"multiple unsatisfiable ranges", http.MethodGet, []string{"bytes=15-20, 30-40"}},
		{"malformed", http.MethodGet, []string{"bytes=abc"}},
		{"overflow", http.MethodGet, []string{"bytes=99999999999999999999-"}},
		{"other unit", http.MethodGet, []string{"items=0-1"}},
		{"empty", http.MethodGet, []string{""}},
		{"not GET", http.MethodPost, []string{"bytes=0-1"}},
	}
	for _, test := range tests {
		req := Request{Method: test.method, Range: test.lines}
		d := testEvaluator(MultiRangeIgnore).Evaluate(testResource(), req)
		if d.StatusCode != http.StatusOK {
			t.Fatalf("Status for %s is %d", test.name, d.StatusCode)
		}
		if d.Body == nil || d.Body.Length != 10 {
			t.Fatalf("Body for %s is %v", test.name, d.Body)
		}
	}
}

func TestEvaluateMultiRangeFirst(t *testing.T) {
	req := get()
	req.Range = []string{"bytes=0-1, 5-6"}
	d := testEvaluator(MultiRangeFirst).Evaluate(testResource(), req)
	if d.StatusCode != http.StatusPartialContent || d.Header.Get(HeaderContentRange) != "bytes 0-1/10" {
		t.Fatalf("First range is %d %s", d.StatusCode, d.Header.Get(HeaderContentRange))
	}
	req.Range = []string{"bytes=0-1", "bytes=5-6"}
	d = testEvaluator(MultiRangeFirst).Evaluate(testResource(), req)
	if d.StatusCode != http.StatusOK {
		t.Fatalf("Multiple Range lines give status %d", d.StatusCode)
	}
}

func TestEvaluateIfRange(t *testing.T) {
	res := testResource()
	tests := []struct {
		ifRange string
		status  int
	}{
		{res.ETag.String(), http.StatusPartialContent},
		{`"other"`, http.StatusOK},
		{"W/" + res.ETag.Tag, http.StatusOK},
		{ToHttpDate(testModified), http.StatusPartialContent},
		{ToHttpDate(testModified.Add(-time.Hour)), http.StatusOK},
		{"not a validator", http.StatusPartialContent},
	}
	for _, test := range tests {
		req := get()
		req.Range = []string{"bytes=0-3"}
		req.IfRange = test.ifRange
		d := testEvaluator(MultiRangeIgnore).Evaluate(res, req)
		if d.StatusCode != test.status {
			t.Fatalf("Status for If-Range %s is %d", test.ifRange, d.StatusCode)
		}
	}
}

func TestEvaluateIfRangeWithoutRange(t *testing.T) {
	req := get()
	req.IfRange = `"other"`
	if d := testEvaluator(MultiRangeIgnore).Evaluate(testResource(), req); d.StatusCode != http.StatusOK {
		t.Fatalf("Status is %d", d.StatusCode)
	}
}

func TestEvaluateIfMatch(t *testing.T) {
	res := testResource()
	tests := []struct {
		ifMatch []string
		status  int
	}{
		{[]string{"*"}, http.StatusOK},
		{[]string{res.ETag.String()}, http.StatusOK},
		{[]string{`"a", ` + res.ETag.String()}, http.StatusOK},
		{[]string{`"a"`, res.ETag.String()}, http.StatusOK},
		{[]string{`"a"`}, http.StatusPreconditionFailed},
		{[]string{"W/" + res.ETag.Tag}, http.StatusPreconditionFailed},
		{[]string{"garbage"}, http.StatusOK},
		{[]string{"W/"}, http.StatusOK},
		{[]string{", ,"}, http.StatusOK},
		{[]string{`"unterminated`}, http.StatusOK},
		{[]string{"garbage", `"a"`}, http.StatusPreconditionFailed},
		{[]string{""}, http.StatusOK},
	}
	for _, test := range tests {
		req := get()
		req.IfMatch = test.ifMatch
		d := testEvaluator(MultiRangeIgnore).Evaluate(res, req)
		if d.StatusCode != test.status {
			t.Fatalf("Status for If-Match %v is %d", test.ifMatch, d.StatusCode)
		}
	}
}

func TestEvaluateIfNoneMatch(t *testing.T) {
	res := testResource()
	req := get()
	req.IfNoneMatch = []string{res.ETag.String()}
	d := testEvaluator(MultiRangeIgnore).Evaluate(res, req)
	if d.StatusCode != http.StatusNotModified || d.Precondition != NotModified {
		t.Fatalf("Status is %d", d.StatusCode)
	}
	if len(d.Header) != 0 || d.Body != nil {
		t.Fatalf("Not modified response has header %v and body %v", d.Header, d.Body)
	}
	req.IfNoneMatch = []string{"*"}
	if d := testEvaluator(MultiRangeIgnore).Evaluate(res, req); d.StatusCode != http.StatusNotModified {
		t.Fatalf("Status for wildcard is %d", d.StatusCode)
	}
	req.IfNoneMatch = []string{`"other"`}
	if d := testEvaluator(MultiRangeIgnore).Evaluate(res, req); d.StatusCode != http.StatusOK || d.Precondition != ShouldProcess {
		t.Fatalf("Status for other tag is %d", d.StatusCode)
	}
	req.IfNoneMatch = []string{"garbage, W/"}
	if d := testEvaluator(MultiRangeIgnore).Evaluate(res, req); d.StatusCode != http.StatusOK || d.Precondition != Unspecified {
		t.Fatalf("Status for malformed list is %d (%v)", d.StatusCode, d.Precondition)
	}
}

func TestEvaluatePreconditionPrecedence(t *testing.T) {
	res := testResource()
	req := get()
	req.IfMatch = []string{`"other"`}
	req.IfNoneMatch = []string{res.ETag.String()}
	d := testEvaluator(MultiRangeIgnore).Evaluate(res, req)
	if d.StatusCode != http.StatusPreconditionFailed || d.Precondition != PreconditionFailed {
		t.Fatalf("Status is %d", d.StatusCode)
	}
	if len(d.Header) != 0 || d.Body != nil {
		t.Fatalf("Failed precondition response has header %v and body %v", d.Header, d.Body)
	}
}

func TestEvaluateNotModifiedBeatsRange(t *testing.T) {
	res := testResource()
	req := get()
	req.IfNoneMatch = []string{res.ETag.String()}
	req.Range = []string{"bytes=15-20"}
	if d := testEvaluator(MultiRangeIgnore).Evaluate(res, req); d.StatusCode != http.StatusNotModified {
		t.Fatalf("Status is %d", d.StatusCode)
	}
}

func TestEvaluateIfModifiedSince(t *testing.T) {
	tests := []struct {
		date   time.Time
		status int
		state  PreconditionState
	}{
		{testModified, http.StatusNotModified, NotModified},
		{testModified.Add(time.Hour), http.StatusNotModified, NotModified},
		{testModified.Add(-time.Second), http.StatusOK, ShouldProcess},
		{testNow.Add(time.Hour), http.StatusOK, Unspecified},
	}
	for _, test := range tests {
		req := get()
		req.IfModifiedSince = ToHttpDate(test.date)
		d := testEvaluator(MultiRangeIgnore).Evaluate(testResource(), req)
		if d.StatusCode != test.status || d.Precondition != test.state {
			t.Fatalf("If-Modified-Since %v gives %d %s", test.date, d.StatusCode, d.Precondition)
		}
	}
}

func TestEvaluateIfUnmodifiedSince(t *testing.T) {
	tests := []struct {
		value  string
		status int
		state  PreconditionState
	}{
		{ToHttpDate(testModified), http.StatusOK, ShouldProcess},
		{ToHttpDate(testModified.Add(-time.Second)), http.StatusPreconditionFailed, PreconditionFailed},
		{ToHttpDate(testNow.Add(24 * time.Hour)), http.StatusOK, Unspecified},
		{"garbage", http.StatusOK, Unspecified},
	}
	for _, test := range tests {
		req := get()
		req.IfUnmodifiedSince = test.value
		d := testEvaluator(MultiRangeIgnore).Evaluate(testResource(), req)
		if d.StatusCode != test.status || d.Precondition != test.state {
			t.Fatalf("If-Unmodified-Since %s gives %d %s", test.value, d.StatusCode, d.Precondition)
		}
	}
}

func TestEvaluateHead(t *testing.T) {
	req := Request{Method: http.MethodHead, Range: []string{"bytes=0-3"}}
	d := testEvaluator(MultiRangeIgnore).Evaluate(testResource(), req)
	if d.StatusCode != http.StatusOK || d.Body != nil {
		t.Fatalf("HEAD gives %d with body %v", d.StatusCode, d.Body)
	}
	if d.Header.Get(HeaderContentLength) != "10" || d.Header.Get(HeaderETag) == "" {
		t.Fatalf("HEAD header is %v", d.Header)
	}
}

func TestCombinePreconditions(t *testing.T) {
	if s := CombinePreconditions(); s != Unspecified {
		t.Fatalf("Empty combination is %s", s)
	}
	if s := CombinePreconditions(ShouldProcess, NotModified, Unspecified); s != ShouldProcess {
		t.Fatalf("Combination is %s", s)
	}
	if s := CombinePreconditions(NotModified, PreconditionFailed, ShouldProcess); s != PreconditionFailed {
		t.Fatalf("Combination is %s", s)
	}
}

func TestParseMultiRangePolicy(t *testing.T) {
	if p, ok := ParseMultiRangePolicy("First"); !ok || p != MultiRangeFirst {
		t.Fatalf("Policy is %s", p)
	}
	if p, ok := ParseMultiRangePolicy(""); !ok || p != MultiRangeIgnore {
		t.Fatalf("Default policy is %s", p)
	}
	if _, ok := ParseMultiRangePolicy("all"); ok {
		t.Fatalf("Unknown policy parsed")
	}
}

func TestRequestFromHTTP(t *testing.T) {
	r, _ := http.NewRequest(http.MethodGet, "http://localhost/file", nil)
	r.Header.Add(HeaderRange, "bytes=0-1")
	r.Header.Add(HeaderRange, "bytes=2-3")
	r.Header.Add(HeaderIfMatch, `"a"`)
	r.Header.Set(HeaderIfRange, `"b"`)
	req := RequestFromHTTP(r)
	if req.Method != http.MethodGet || len(req.Range) != 2 || len(req.IfMatch) != 1 || req.IfRange != `"b"` {
		t.Fatalf("Request is %v", req)
	}
}
