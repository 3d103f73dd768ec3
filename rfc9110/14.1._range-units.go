package rfc9110

import (
	"strconv"
)

// §  14.1.  Range Units
// §
// §     Representation data can be partitioned into subranges when there are
// §     addressable structural units inherent to that data's content coding
// §     or media type.  For example, octet (a.k.a. byte) boundaries are a
// §     structural unit common to all representation data, allowing
// §     partitions of the data to be identified as a range of bytes at some
// §     offset from the start or end of that data.
// §
// §       range-unit       = token
// §
// §     All range unit names are case-insensitive and ought to be registered
// §     within the "HTTP Range Unit Registry", as defined in Section 16.5.1.
const BytesUnit = "bytes"

// §  14.1.1.  Range Specifiers
// §
// §     Ranges are expressed in terms of a range unit paired with a set of
// §     range specifiers.  The range unit name determines what kinds of
// §     range-spec are applicable to its own specifiers.  Hence, the
// §     following grammar is generic: each range unit is expected to specify
// §     requirements on when int-range, suffix-range, and other-range are
// §     allowed.
// §
// §       ranges-specifier = range-unit "=" range-set
// §       range-set        = 1#range-spec
// §       range-spec       = int-range
// §                        / suffix-range
// §                        / other-range
// §
// §       int-range     = first-pos "-" [ last-pos ]
// §       first-pos     = 1*DIGIT
// §       last-pos      = 1*DIGIT
// §
// §       suffix-range  = "-" suffix-length
// §       suffix-length = 1*DIGIT

// ByteRangeSpec is a single int-range or suffix-range.
// A suffix-range has no From and keeps the suffix length in To.
type ByteRangeSpec struct {
	From    uint64
	To      uint64
	HasFrom bool
	HasTo   bool
}

// NewByteRange returns the int-range "from-to".
func NewByteRange(from, to uint64) ByteRangeSpec {
	return ByteRangeSpec{From: from, To: to, HasFrom: true, HasTo: true}
}

// NewOpenByteRange returns the int-range "from-".
func NewOpenByteRange(from uint64) ByteRangeSpec {
	return ByteRangeSpec{From: from, HasFrom: true}
}

// NewSuffixByteRange returns the suffix-range "-length".
func NewSuffixByteRange(length uint64) ByteRangeSpec {
	return ByteRangeSpec{To: length, HasTo: true}
}

func (b ByteRangeSpec) String() string {
	s := ""
	if b.HasFrom {
		s = strconv.FormatUint(b.From, 10)
	}
	s += "-"
	if b.HasTo {
		s += strconv.FormatUint(b.To, 10)
	}
	return s
}

// §  14.1.2.  Byte Ranges
// §
// §     A byte-range-spec is invalid if the last-pos value is present and
// §     less than the first-pos.
// §
// §     If the selected representation is shorter than the specified
// §     last-pos, the last-pos is taken to be equal to one less than the
// §     current length of the representation in bytes.  [...]
// §
// §     A client can request the last N bytes (N > 0) of the selected
// §     representation using a suffix-range.  If the selected representation
// §     is shorter than the specified suffix-length, the entire
// §     representation is used.
// §
// §     If a valid ranges-specifier contains at least one range-spec with a
// §     first-pos that is less than the current length of the
// §     representation, or at least one suffix-range with a non-zero
// §     suffix-length, then the range-set is satisfiable.

// Normalize resolves the range against a representation of the given length.
// It returns the inclusive bounds of the selected bytes, ok is false if the
// range is not satisfiable. The bounds always lie within [0, length).
func (b ByteRangeSpec) Normalize(length uint64) (start, end uint64, ok bool) {
	if length == 0 {
		return 0, 0, false
	}
	if b.HasFrom {
		if b.From >= length {
			return 0, 0, false
		}
		end = length - 1
		if b.HasTo && b.To < end {
			end = b.To
		}
		return b.From, end, true
	}
	if !b.HasTo || b.To == 0 {
		return 0, 0, false
	}
	n := b.To
	if n > length {
		n = length
	}
	start = length - n
	return start, start + n - 1, true
}

// ByteRangeSpecLength scans a single range-spec at start: "1-2", "1-" or
// "-2", with optional whitespace around the dash. It returns the number of
// characters consumed, trailing whitespace included, or 0 if there is no
// valid range-spec. Leading whitespace must be removed by the caller.
func ByteRangeSpecLength(input string, start int) (ByteRangeSpec, int) {
	if start < 0 || start >= len(input) || input[start] == sp || input[start] == tab {
		return ByteRangeSpec{}, 0
	}
	current := start

	fromStart := current
	fromLength := NumberLength(input, current, false)
	if fromLength > maxInt64Digits {
		return ByteRangeSpec{}, 0
	}
	current += fromLength
	current += WhitespaceLength(input, current)

	// the dash is the only thing that must be there
	if current >= len(input) || input[current] != '-' {
		return ByteRangeSpec{}, 0
	}
	current++
	current += WhitespaceLength(input, current)

	toStart := current
	toLength := 0
	if current < len(input) {
		toLength = NumberLength(input, current, false)
		if toLength > maxInt64Digits {
			return ByteRangeSpec{}, 0
		}
		current += toLength
		current += WhitespaceLength(input, current)
	}

	if fromLength == 0 && toLength == 0 {
		return ByteRangeSpec{}, 0
	}

	var spec ByteRangeSpec
	if fromLength > 0 {
		from, err := strconv.ParseUint(input[fromStart:fromStart+fromLength], 10, 64)
		if err != nil {
			return ByteRangeSpec{}, 0
		}
		spec.From, spec.HasFrom = from, true
	}
	if toLength > 0 {
		to, err := strconv.ParseUint(input[toStart:toStart+toLength], 10, 64)
		if err != nil {
			return ByteRangeSpec{}, 0
		}
		spec.To, spec.HasTo = to, true
	}
	if spec.HasFrom && spec.HasTo && spec.From > spec.To {
		return ByteRangeSpec{}, 0
	}
	return spec, current - start
}

// ByteRangeSpecListLength scans a range-set starting at start. Empty list
// elements (", ,") are tolerated. It returns the parsed specs in order and
// the number of characters consumed, or 0 if any element is invalid or the
// input has trailing garbage.
func ByteRangeSpecListLength(input string, start int) ([]ByteRangeSpec, int) {
	if start < 0 || start >= len(input) {
		return nil, 0
	}
	current, _ := nextListItemIndex(input, start, true)
	if current >= len(input) {
		return nil, 0
	}
	specs := make([]ByteRangeSpec, 0, 1)
	for {
		spec, length := ByteRangeSpecLength(input, current)
		if length == 0 {
			return nil, 0
		}
		specs = append(specs, spec)
		current += length
		next, separatorFound := nextListItemIndex(input, current, true)
		// if anything is left, it must follow a delimiter
		if next < len(input) && !separatorFound {
			return nil, 0
		}
		if next >= len(input) {
			return specs, next - start
		}
		current = next
	}
}
