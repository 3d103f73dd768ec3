package rfc9110

import (
	"testing"
	"time"
)

func TestParseRangeCondition(t *testing.T) {
	condition, ok := ParseRangeCondition(`"abc"`)
	if etag, isETag := condition.EntityTag(); !ok || !isETag || etag.Tag != `"abc"` {
		t.Fatalf("If-Range entity tag is %v", condition)
	}
	condition, ok = ParseRangeCondition(`W/"abc"`)
	if etag, isETag := condition.EntityTag(); !ok || !isETag || !etag.IsWeak {
		t.Fatalf("If-Range weak entity tag is %v", condition)
	}
	condition, ok = ParseRangeCondition("Sun, 06 Nov 1994 08:49:37 GMT")
	date, isDate := condition.LastModified()
	if !ok || !isDate || !date.Equal(time.Date(1994, 11, 6, 8, 49, 37, 0, time.UTC)) {
		t.Fatalf("If-Range date is %v", condition)
	}
	if condition.String() != "Sun, 06 Nov 1994 08:49:37 GMT" {
		t.Fatalf("If-Range date string is %s", condition)
	}
	for _, invalid := range []string{``, `"`, `"a", "b"`, `"a" x`, `W/`, `yesterday`} {
		if condition, ok := ParseRangeCondition(invalid); ok {
			t.Fatalf("Invalid If-Range %q parsed as %v", invalid, condition)
		}
	}
}

func TestRangeConditionHolds(t *testing.T) {
	res := NewResource(10, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), "")
	if !NewEntityTagRangeCondition(res.ETag).Holds(res) {
		t.Fatalf("Current entity tag does not hold")
	}
	weak := res.ETag
	weak.IsWeak = true
	if NewEntityTagRangeCondition(weak).Holds(res) {
		t.Fatalf("Weak entity tag holds")
	}
	if NewEntityTagRangeCondition(NewEntityTag("other")).Holds(res) {
		t.Fatalf("Other entity tag holds")
	}
	if !NewDateRangeCondition(res.LastModified).Holds(res) {
		t.Fatalf("Last-Modified date does not hold")
	}
	if !NewDateRangeCondition(res.LastModified.Add(time.Hour)).Holds(res) {
		t.Fatalf("Later date does not hold")
	}
	if NewDateRangeCondition(res.LastModified.Add(-time.Second)).Holds(res) {
		t.Fatalf("Earlier date holds")
	}
}
