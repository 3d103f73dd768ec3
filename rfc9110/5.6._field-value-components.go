package rfc9110

// §  5.6.  Common Rules for Defining Field Values
// §
// §  5.6.1.  Lists (#rule ABNF Extension)
// §
// §     A #rule extension to the ABNF rules of [RFC5234] is used to improve
// §     readability in the definitions of some field values.
// §
// §     A construct "#" is defined, similar to "*", for defining comma-
// §     delimited lists of elements.
//
// All scanners below work on header values as byte strings. Field values are
// US-ASCII (obs-text is only allowed inside quoted strings), so there is no
// need to decode runes. A scanner never reads outside of the input: a start
// offset at or past the end of the input simply does not match.

// ParseResult is the outcome of scanning a delimited construct.
type ParseResult int

const (
	Parsed ParseResult = iota
	NotParsed
	InvalidFormat
)

func (p ParseResult) String() string {
	switch p {
	case Parsed:
		return "parsed"
	case NotParsed:
		return "not parsed"
	default:
		return "invalid format"
	}
}

const (
	cr  = '\r'
	lf  = '\n'
	sp  = ' '
	tab = '\t'
)

// maxInt64Digits caps a digit run, so that a value never wraps around.
const maxInt64Digits = 19

// §  5.6.2.  Tokens
// §
// §     Tokens are short textual identifiers that do not include whitespace
// §     or delimiters.
// §
// §       token          = 1*tchar
// §
// §       tchar          = "!" / "#" / "$" / "%" / "&" / "'" / "*"
// §                      / "+" / "-" / "." / "^" / "_" / "`" / "|" / "~"
// §                      / DIGIT / ALPHA
// §                      ; any VCHAR, except delimiters
// §
// §     Many HTTP field values are defined using common syntax components,
// §     separated by whitespace or specific delimiting characters.
// §     Delimiters are chosen from the set of US-ASCII visual characters not
// §     allowed in a token (DQUOTE and "(),/:;<=>?@[\]{}").
var tokenChars = func() (chars [128]bool) {
	for c := 33; c < 127; c++ {
		chars[c] = true
	}
	for _, c := range `()<>@,;:\"/[]?={}` {
		chars[c] = false
	}
	return chars
}()

func isTokenChar(c byte) bool {
	return c < 128 && tokenChars[c]
}

// TokenLength returns the number of consecutive token characters in input
// starting at start. It returns 0 if the first character is not a tchar.
func TokenLength(input string, start int) int {
	if start < 0 || start >= len(input) {
		return 0
	}
	current := start
	for current < len(input) && isTokenChar(input[current]) {
		current++
	}
	return current - start
}

// NumberLength returns the length of the digit run starting at start.
// If allowDecimal is set, a single dot is allowed after the first digit
// ("1." and "1.5" match, ".5" does not). Negative numbers are not part of
// any HTTP grammar, so a sign never matches.
func NumberLength(input string, start int, allowDecimal bool) int {
	if start < 0 || start >= len(input) || input[start] == '.' {
		return 0
	}
	// pretend a dot was already read if decimals are not allowed
	haveDot := !allowDecimal
	current := start
	for current < len(input) {
		c := input[current]
		if c >= '0' && c <= '9' {
			current++
		} else if !haveDot && c == '.' && current > start {
			haveDot = true
			current++
		} else {
			break
		}
	}
	return current - start
}

// §  5.6.3.  Whitespace
// §
// §     This specification uses three rules to denote the use of linear
// §     whitespace: OWS (optional whitespace), RWS (required whitespace), and
// §     BWS ("bad" whitespace).
// §
// §       OWS            = *( SP / HTAB )
// §                      ; optional whitespace
// §       RWS            = 1*( SP / HTAB )
// §                      ; required whitespace
// §       BWS            = OWS
// §                      ; "bad" whitespace
//
// Obsolete line folding (CRLF followed by SP or HTAB, RFC 7230 §3.2.4) is
// consumed as whitespace as well.

// WhitespaceLength returns the number of whitespace characters starting at
// start, possibly 0.
func WhitespaceLength(input string, start int) int {
	if start < 0 || start >= len(input) {
		return 0
	}
	current := start
	for current < len(input) {
		c := input[current]
		if c == sp || c == tab {
			current++
			continue
		}
		// a CR must be followed by LF and at least one SP or HTAB
		if c == cr && current+2 < len(input) && input[current+1] == lf {
			if next := input[current+2]; next == sp || next == tab {
				current += 3
				continue
			}
		}
		break
	}
	return current - start
}

// §  5.6.4.  Quoted Strings
// §
// §     A string of text is parsed as a single value if it is quoted using
// §     double-quote marks.
// §
// §       quoted-string  = DQUOTE *( qdtext / quoted-pair ) DQUOTE
// §       qdtext         = HTAB / SP / %x21 / %x23-5B / %x5D-7E / obs-text
// §
// §     The backslash octet ("\") can be used as a single-octet quoting
// §     mechanism within quoted-string and comment constructs.  Recipients
// §     that process the value of a quoted-string MUST handle a quoted-pair
// §     as if it were replaced by the octet following the backslash.
// §
// §       quoted-pair    = "\" ( HTAB / SP / VCHAR / obs-text )

// QuotedStringLength scans a quoted string starting at start.
// On success the returned length includes both quotes.
// NotParsed means input[start] is not a DQUOTE, InvalidFormat means the
// string is not terminated or contains an invalid quoted-pair.
func QuotedStringLength(input string, start int) (ParseResult, int) {
	return delimitedLength(input, start, '"', '"')
}

// delimitedLength scans a non-nesting expression between open and close.
func delimitedLength(input string, start int, open, close byte) (ParseResult, int) {
	if start < 0 || start >= len(input) || input[start] != open {
		return NotParsed, 0
	}
	current := start + 1
	for current < len(input) {
		if input[current] == '\\' {
			result, length := QuotedPairLength(input, current)
			if result != Parsed {
				return InvalidFormat, 0
			}
			current += length
			continue
		}
		if input[current] == close {
			return Parsed, current - start + 1
		}
		current++
	}
	return InvalidFormat, 0
}

// QuotedPairLength scans a two character quoted-pair ("\" CHAR) at start.
// CHAR is any US-ASCII octet (0-127).
func QuotedPairLength(input string, start int) (ParseResult, int) {
	if start < 0 || start >= len(input) || input[start] != '\\' {
		return NotParsed, 0
	}
	if start+2 > len(input) || input[start+1] > 127 {
		return InvalidFormat, 0
	}
	return Parsed, 2
}

// nextListItemIndex skips whitespace and, if present, a list delimiter and the
// whitespace following it. With skipEmpty, runs of empty list elements
// (e.g. ", ,") are skipped as well. separatorFound reports whether at least
// one delimiter was consumed.
func nextListItemIndex(input string, start int, skipEmpty bool) (current int, separatorFound bool) {
	current = start + WhitespaceLength(input, start)
	if current >= len(input) || input[current] != ',' {
		return current, false
	}
	current++
	current += WhitespaceLength(input, current)
	if skipEmpty {
		for current < len(input) && input[current] == ',' {
			current++
			current += WhitespaceLength(input, current)
		}
	}
	return current, true
}
