package rfc9110

import (
	"time"
)

// §  13.1.5.  If-Range
// §
// §     The "If-Range" header field provides a special conditional request
// §     mechanism that is similar to the If-Match and If-Unmodified-Since
// §     header fields but that instructs the recipient to ignore the Range
// §     header field if the validator doesn't match, resulting in transfer of
// §     the new selected representation instead of a 416 (Range Not
// §     Satisfiable) response.
// §
// §       If-Range = entity-tag / HTTP-date
// §
// §     A valid entity-tag can be distinguished from a valid HTTP-date by
// §     examining the first three characters for a DQUOTE.

type rangeConditionKind int

const (
	rangeConditionDate rangeConditionKind = iota
	rangeConditionETag
)

// RangeCondition is a parsed If-Range field value: either a date or an entity tag.
type RangeCondition struct {
	kind rangeConditionKind
	date time.Time
	etag EntityTag
}

// NewDateRangeCondition returns an If-Range condition on the modification date.
func NewDateRangeCondition(date time.Time) RangeCondition {
	return RangeCondition{kind: rangeConditionDate, date: date}
}

// NewEntityTagRangeCondition returns an If-Range condition on the entity tag.
func NewEntityTagRangeCondition(etag EntityTag) RangeCondition {
	return RangeCondition{kind: rangeConditionETag, etag: etag}
}

// LastModified returns the date of a date condition.
func (c RangeCondition) LastModified() (time.Time, bool) {
	return c.date, c.kind == rangeConditionDate
}

// EntityTag returns the entity tag of an entity tag condition.
func (c RangeCondition) EntityTag() (EntityTag, bool) {
	return c.etag, c.kind == rangeConditionETag
}

func (c RangeCondition) String() string {
	if c.kind == rangeConditionETag {
		return c.etag.String()
	}
	return ToHttpDate(c.date)
}

// ParseRangeCondition parses an If-Range value. A value starting with a quote
// or a weakness indicator must be a single entity tag, anything else must be
// an HTTP-date.
func ParseRangeCondition(value string) (RangeCondition, bool) {
	if len(value) < 2 {
		return RangeCondition{}, false
	}
	first, second := value[0], value[1]
	if first == '"' || ((first == 'W' || first == 'w') && second == '/') {
		etag, length := EntityTagLength(value, 0)
		// only a single entity tag is allowed, nothing may follow it
		if length == 0 || length != len(value) {
			return RangeCondition{}, false
		}
		return NewEntityTagRangeCondition(etag), true
	}
	date, err := HttpDate(value)
	if err != nil {
		return RangeCondition{}, false
	}
	return NewDateRangeCondition(date), true
}

// §     A server MUST ignore an If-Range header field received in a request
// §     that does not contain a Range header field.  An origin server MUST
// §     ignore an If-Range header field received in a request for a target
// §     resource that does not support Range requests.
// §
// §     When the validator presented in the If-Range header field is an
// §     HTTP-date, the condition is true if the HTTP-date is equal to or later
// §     than the Last-Modified value of the selected representation.
// §
// §     When the validator is an entity-tag, the condition is true if the
// §     entity tag matches the current entity tag of the selected
// §     representation, using the strong comparison function.

// Holds reports whether the condition is true for the given representation.
func (c RangeCondition) Holds(res Resource) bool {
	if etag, ok := c.EntityTag(); ok {
		return etag.Compare(res.ETag, true)
	}
	return !c.date.Before(res.LastModified)
}
