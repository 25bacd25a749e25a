package reference

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Segmentation is layered: the well-formed convention separates fields with
// commas, so comma-splitting is attempted first. An entry qualifies for comma
// mode if it has at least two commas at top level, i.e. outside quoted-title
// and angle-bracketed-URL spans (a comma inside a title or URL must not
// fragment it). Entries punctuated with periods and spaces instead fall back
// to sentence-like units. An entry with no usable delimiter at all becomes a
// single segment.

// quoteClosers maps an opening quote to its closing quote.
var quoteClosers = map[rune]rune{
	'"': '"',
	'“': '”', // Curly double quotes.
}

// split segments normalized entry text into ordered segments, all with
// RoleUnknown.
func split(text string) []Segment {
	if text == "" {
		return nil
	}
	commas := topLevelCommas(text)
	var segs []Segment
	if len(commas) >= 2 {
		segs = commaSegments(text, commas)
	} else {
		segs = periodSegments(text)
	}
	return joinNameParts(segs)
}

// topLevelCommas returns the byte offsets of commas outside quoted and
// angle-bracketed spans.
func topLevelCommas(text string) []int {
	var offsets []int
	var closer rune // Expected closing quote, 0 when not inside quotes.
	angle := 0
	for i, c := range text {
		switch {
		case closer != 0:
			if c == closer {
				closer = 0
			}
		case c == '<':
			angle++
		case c == '>':
			if angle > 0 {
				angle--
			}
		case angle > 0:
		default:
			if cl, ok := quoteClosers[c]; ok {
				closer = cl
			} else if c == ',' {
				offsets = append(offsets, i)
			}
		}
	}
	return offsets
}

// commaSegments cuts text at the given comma offsets.
func commaSegments(text string, commas []int) []Segment {
	var segs []Segment
	start := 0
	cut := func(end int) {
		if s, ok := makeSegment(text, start, end); ok {
			segs = append(segs, s)
		}
	}
	for _, o := range commas {
		cut(o)
		start = o + 1
	}
	cut(len(text))
	return segs
}

// periodSegments is the fallback for entries that do not use the comma
// convention: each sentence-like unit, text ending in "." followed by
// whitespace and a capital letter or by end of text, is one segment. Quoted
// and angle-bracketed spans are emitted as their own segments so a title or
// URL containing periods stays whole.
func periodSegments(text string) []Segment {
	var segs []Segment
	start := 0
	flush := func(end int) {
		if s, ok := makeSegment(text, start, end); ok {
			segs = append(segs, s)
		}
		start = end
	}
	i := 0
	for i < len(text) {
		c, size := utf8.DecodeRuneInString(text[i:])
		if cl, ok := quoteClosers[c]; ok && spanStart(text, i) {
			flush(i)
			end := spanEnd(text[i+size:], cl)
			if end < 0 {
				break // Unterminated quote, remainder is one segment.
			}
			flush(i + size + end)
			i = start
			continue
		}
		if c == '<' && spanStart(text, i) {
			flush(i)
			end := strings.IndexByte(text[i:], '>')
			if end < 0 {
				break
			}
			flush(i + end + 1)
			i = start
			continue
		}
		if c == '.' && sentenceBoundary(text, i) {
			flush(i + 1)
			i = start
			continue
		}
		i += size
	}
	flush(len(text))
	return segs
}

// spanStart returns whether offset i is a position where a quoted or
// bracketed span can open: at the start of the text or after whitespace or
// punctuation.
func spanStart(text string, i int) bool {
	if i == 0 {
		return true
	}
	c, _ := utf8.DecodeLastRuneInString(text[:i])
	return unicode.IsSpace(c) || c == '(' || c == ',' || c == '.'
}

// spanEnd returns the byte offset just past the closing rune in s, or -1.
func spanEnd(s string, closer rune) int {
	o := strings.IndexRune(s, closer)
	if o < 0 {
		return -1
	}
	return o + utf8.RuneLen(closer)
}

// sentenceBoundary returns whether the period at offset i ends a
// sentence-like unit: followed by whitespace and a capital letter (or end of
// text), and not part of a name initial like the "J." in "J. Smith".
func sentenceBoundary(text string, i int) bool {
	rest := strings.TrimLeft(text[i+1:], " ")
	if rest == text[i+1:] && rest != "" {
		return false // No whitespace after the period.
	}
	if rest == "" {
		return true
	}
	c, _ := utf8.DecodeRuneInString(rest)
	if !unicode.IsUpper(c) {
		return false
	}
	// A single capital letter before the period is an initial, not a sentence end.
	before := text[:i]
	if j := strings.LastIndexByte(before, ' '); j >= 0 {
		before = before[j+1:]
	}
	return !initialWordRe.MatchString(before)
}

var initialWordRe = regexp.MustCompile(`^(?:[A-Z]\.)*[A-Z]$`)

// makeSegment trims the text between start and end and returns the segment,
// with ok false for slices holding no content. Stray delimiter punctuation at
// the start, left over from a span cut, is dropped.
func makeSegment(text string, start, end int) (Segment, bool) {
	for start < end {
		c, size := utf8.DecodeRuneInString(text[start:end])
		if !unicode.IsSpace(c) && c != ',' && c != ';' && c != '.' {
			break
		}
		start += size
	}
	for end > start {
		c, size := utf8.DecodeLastRuneInString(text[start:end])
		if !unicode.IsSpace(c) {
			break
		}
		end -= size
	}
	if start >= end {
		return Segment{}, false
	}
	return Segment{Text: text[start:end], Start: start, End: end, Role: RoleUnknown}, true
}

var (
	initialsRe    = regexp.MustCompile(`^(?:[A-Z]\.)+(?:[ -](?:[A-Z]\.)+)*$`)
	editorRe      = regexp.MustCompile(`^\(?Eds?\.\)?$`)
	initialsAndRe = regexp.MustCompile(`^(?:[A-Z]\.)+(?:[ -](?:[A-Z]\.)+)* and `)
	andInitialsRe = regexp.MustCompile(`^and (?:[A-Z]\.)`)
)

// joinNameParts repairs over-splitting by the comma convention: the name
// "Surname, I." is two comma-separated segments, and "Ed." markers and "and
// I. Surname" conjunctions get their own segment too. Such a segment is
// re-joined to its predecessor. This is still tokenization, repairing
// over-splitting, not classification.
func joinNameParts(segs []Segment) []Segment {
	var r []Segment
	for _, s := range segs {
		if len(r) > 0 && (initialsRe.MatchString(s.Text) || editorRe.MatchString(s.Text) || initialsAndRe.MatchString(s.Text) || andInitialsRe.MatchString(s.Text)) {
			p := &r[len(r)-1]
			p.Text += ", " + s.Text
			p.End = s.End
			continue
		}
		r = append(r, s)
	}
	return r
}
