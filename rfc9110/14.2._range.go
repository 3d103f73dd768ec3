package rfc9110

import (
	"strings"
)

// §  14.2.  Range
// §
// §     The "Range" header field on a GET request modifies the method
// §     semantics to request transfer of only one or more subranges of the
// §     selected representation data (Section 8.1), rather than the entire
// §     selected representation.
// §
// §       Range = ranges-specifier
// §
// §     A server MAY ignore the Range header field.  However, origin servers
// §     and intermediate caches ought to support byte ranges when possible,
// §     since they support efficient recovery from partially failed transfers
// §     and partial retrieval of large representations.
// §
// §     A server MUST ignore a Range header field received with a request
// §     method that is unrecognized or for which range handling is not
// §     defined.  For this specification, GET is the only method for which
// §     range handling is defined.
// §
// §     An origin server MUST ignore a Range header field that contains a
// §     range unit it does not understand.

// RangeSet is a parsed Range field value.
type RangeSet struct {
	Unit   string
	Ranges []ByteRangeSpec
}

// IsBytes reports whether the range unit is "bytes".
func (r RangeSet) IsBytes() bool {
	return strings.EqualFold(r.Unit, BytesUnit)
}

func (r RangeSet) String() string {
	var b strings.Builder
	b.WriteString(r.Unit)
	b.WriteByte('=')
	for i, spec := range r.Ranges {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(spec.String())
	}
	return b.String()
}

// ParseRange parses "<unit> = <range-set>". Whitespace is allowed around the
// equals sign. The whole value has to be consumed; on any error ok is false
// and the caller must act as if there was no Range field at all.
func ParseRange(value string) (rangeSet RangeSet, ok bool) {
	unitLength := TokenLength(value, 0)
	if unitLength == 0 {
		return RangeSet{}, false
	}
	rangeSet.Unit = value[:unitLength]
	current := unitLength
	current += WhitespaceLength(value, current)
	if current >= len(value) || value[current] != '=' {
		return RangeSet{}, false
	}
	current++
	current += WhitespaceLength(value, current)

	ranges, rangesLength := ByteRangeSpecListLength(value, current)
	if rangesLength == 0 {
		return RangeSet{}, false
	}
	current += rangesLength
	if current != len(value) {
		return RangeSet{}, false
	}
	rangeSet.Ranges = ranges
	return rangeSet, true
}
