package rfc9110

import (
	"strconv"
)

// §  14.4.  Content-Range
// §
// §     The "Content-Range" header field is sent in a single part 206
// §     (Partial Content) response to indicate the partial range of the
// §     selected representation enclosed as the message content, sent in
// §     each part of a multipart 206 response to indicate the range enclosed
// §     within each body part (Section 14.6), and sent in 416 (Range Not
// §     Satisfiable) responses to provide information about the selected
// §     representation.
// §
// §       Content-Range       = range-unit SP
// §                             ( range-resp / unsatisfied-range )
// §
// §       range-resp          = incl-range "/" ( complete-length / "*" )
// §       incl-range          = first-pos "-" last-pos
// §       unsatisfied-range   = "*/" complete-length
// §
// §       complete-length     = 1*DIGIT

// ContentRange is the value of a Content-Range field in bytes.
type ContentRange struct {
	Start     uint64
	End       uint64
	Length    uint64
	Satisfied bool
}

// NewContentRange returns the range-resp "bytes start-end/length".
func NewContentRange(start, end, length uint64) ContentRange {
	return ContentRange{Start: start, End: end, Length: length, Satisfied: true}
}

// UnsatisfiedContentRange returns the unsatisfied-range "bytes */length".
func UnsatisfiedContentRange(length uint64) ContentRange {
	return ContentRange{Length: length}
}

func (c ContentRange) String() string {
	s := BytesUnit + " "
	if c.Satisfied {
		s += strconv.FormatUint(c.Start, 10) + "-" + strconv.FormatUint(c.End, 10)
	} else {
		s += "*"
	}
	return s + "/" + strconv.FormatUint(c.Length, 10)
}
