package rfc9110

import (
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
)

// §  8.8.3.  ETag
// §
// §     The "ETag" field in a response provides the current entity tag for
// §     the selected representation, as determined at the conclusion of
// §     handling the request.  An entity tag is an opaque validator for
// §     differentiating between multiple representations of the same
// §     resource, regardless of whether those multiple representations are
// §     due to resource state changes over time, content negotiation
// §     resulting in multiple representations being valid at the same time,
// §     or both.  An entity tag consists of an opaque quoted string, possibly
// §     prefixed by a weakness indicator.
// §
// §       ETag       = entity-tag
// §
// §       entity-tag = [ weak ] opaque-tag
// §       weak       = %s"W/"
// §       opaque-tag = DQUOTE *etagc DQUOTE
// §       etagc      = %x21 / %x23-7E / obs-text
// §                  ; VCHAR except double quotes, plus obs-text

// EntityTag is a parsed entity-tag. Tag holds the opaque-tag including its
// quotes, or "*" for the wildcard used in If-Match and If-None-Match.
type EntityTag struct {
	Tag    string
	IsWeak bool
}

// AnyEntityTag is the "*" member of If-Match and If-None-Match. It is never weak.
var AnyEntityTag = EntityTag{Tag: "*"}

// NewEntityTag creates a strong entity tag from s.
// The value is wrapped in quotes unless it already is a quoted string;
// quotes and backslashes inside it are escaped.
func NewEntityTag(s string) EntityTag {
	if result, length := QuotedStringLength(s, 0); result == Parsed && length == len(s) {
		return EntityTag{Tag: s}
	}
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('"')
	return EntityTag{Tag: b.String()}
}

// ResourceEntityTag derives a strong entity tag from the modification time
// and the length of a representation. Two observations of the same size and
// modification time always give the same tag.
func ResourceEntityTag(modTime time.Time, length uint64) EntityTag {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[:8], uint64(modTime.UnixNano()))
	binary.LittleEndian.PutUint64(b[8:], length)
	return NewEntityTag(strconv.FormatUint(xxh3.Hash(b[:]), 16))
}

// IsAny reports whether e is the "*" wildcard.
func (e EntityTag) IsAny() bool {
	return e == AnyEntityTag
}

// String returns the entity tag in its field value form.
func (e EntityTag) String() string {
	if e.IsWeak {
		return "W/" + e.Tag
	}
	return e.Tag
}

// §  8.8.3.2.  Comparison
// §
// §     There are two entity tag comparison functions, depending on whether
// §     or not the comparison context allows the use of weak validators:
// §
// §     "Strong comparison":  two entity tags are equivalent if both are not
// §        weak and their opaque-tags match character-by-character.
// §
// §     "Weak comparison":  two entity tags are equivalent if their opaque-
// §        tags match character-by-character, regardless of either or both
// §        being tagged as "weak".

// Compare compares two entity tags using the strong or the weak comparison function.
func (e EntityTag) Compare(other EntityTag, useStrong bool) bool {
	if useStrong {
		return !e.IsWeak && !other.IsWeak && e.Tag == other.Tag
	}
	return e.Tag == other.Tag
}

// Equal is the weak comparison.
func (e EntityTag) Equal(other EntityTag) bool {
	return e.Compare(other, false)
}

// EntityTagLength scans an entity tag at start and returns it together with
// the number of characters consumed, trailing whitespace included.
// A length of 0 means no entity tag was found. Leading whitespace must be
// removed by the caller.
func EntityTagLength(input string, start int) (EntityTag, int) {
	if start < 0 || start >= len(input) {
		return EntityTag{}, 0
	}
	current := start
	var etag EntityTag
	if input[current] == '*' {
		etag = AnyEntityTag
		current++
	} else {
		isWeak := false
		// the weakness indicator is case-sensitive, lower case is accepted anyway
		if c := input[current]; c == 'W' || c == 'w' {
			current++
			// need at least a '/' followed by two quotes
			if current+2 >= len(input) || input[current] != '/' {
				return EntityTag{}, 0
			}
			isWeak = true
			current++
			current += WhitespaceLength(input, current)
		}
		result, tagLength := QuotedStringLength(input, current)
		if result != Parsed {
			return EntityTag{}, 0
		}
		etag = EntityTag{Tag: input[current : current+tagLength], IsWeak: isWeak}
		current += tagLength
	}
	current += WhitespaceLength(input, current)
	return etag, current - start
}

// ParseEntityTag parses a single entity tag. The whole value must be consumed.
func ParseEntityTag(value string) (EntityTag, bool) {
	start := WhitespaceLength(value, 0)
	etag, length := EntityTagLength(value, start)
	if length == 0 || start+length != len(value) {
		return EntityTag{}, false
	}
	return etag, true
}

// ParseEntityTagList parses the comma-separated entity tag lists of one or
// more field lines, as used by If-Match and If-None-Match.
// Members that cannot be parsed are skipped.
func ParseEntityTagList(lines []string) []EntityTag {
	etags := make([]EntityTag, 0)
	for _, line := range lines {
		current, _ := nextListItemIndex(line, 0, true)
		for current < len(line) {
			etag, length := EntityTagLength(line, current)
			if length > 0 {
				next, separatorFound := nextListItemIndex(line, current+length, true)
				if separatorFound || next == len(line) {
					etags = append(etags, etag)
					current = next
					continue
				}
			}
			// skip the broken member up to the next delimiter
			comma := strings.IndexByte(line[current:], ',')
			if comma < 0 {
				break
			}
			current, _ = nextListItemIndex(line, current+comma, true)
		}
	}
	return etags
}
