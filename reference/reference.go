// Package reference parses unstructured bibliography entries, as found in the
// references sections of text-format RFCs and Internet-Drafts, into structured
// citation records.
//
// Parsing is tolerant by design. Entries follow an informal convention
// (author names, quoted title, venue, date, locator between angle brackets,
// separated by commas) that decades of documents apply inconsistently. A
// malformed entry never fails: text that cannot be classified ends up in an
// unstructured payload and the record is marked degraded, so a document
// conversion always has schema-valid output for every entry.
package reference

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Role is the semantic role of a segment or classified field.
type Role int

const (
	RoleUnknown Role = iota
	RoleAuthor
	RoleTitle
	RoleVenue
	RoleDate
	RoleLocator
	RoleSeries
	RoleUnstructured
)

var roleStrings = map[Role]string{
	RoleUnknown:      "unknown",
	RoleAuthor:       "author",
	RoleTitle:        "title",
	RoleVenue:        "venue",
	RoleDate:         "date",
	RoleLocator:      "locator",
	RoleSeries:       "series",
	RoleUnstructured: "unstructured",
}

func (r Role) String() string {
	return roleStrings[r]
}

// Segment is a slice of the normalized entry text, produced by segmentation.
// Order is left to right and semantically meaningful: by convention authors
// precede the title, the title precedes the venue, and so on, though real
// input violates this.
type Segment struct {
	Text  string
	Start int // Offset in the normalized text.
	End   int
	Role  Role // RoleUnknown until classified.
}

// Field is a classified segment: a role with normalized text.
type Field struct {
	Role Role
	Text string
}

// Author is one author of a cited work. Surname and Initials are set when the
// name had a recognizable "Surname, I." or "I. Surname" shape, otherwise only
// Fullname is set.
type Author struct {
	Fullname string
	Surname  string
	Initials string
	Editor   bool // Name was marked "Ed.".
}

// Date is a publication date. Month is a full English month name. Day and
// Year are 0 when absent.
type Date struct {
	Day   int
	Month string
	Year  int
}

// IsZero returns whether no date component is set.
func (d Date) IsZero() bool {
	return d.Day == 0 && d.Month == "" && d.Year == 0
}

// Series is series information of a cited work, e.g. {"RFC", "2119"} or
// {"DOI", "10.17487/RFC2119"}.
type Series struct {
	Name  string
	Value string
}

// Reference is the structured record for one bibliography entry.
type Reference struct {
	Anchor       string // Citation anchor, without brackets, e.g. "RFC2119". Always non-empty.
	Authors      []Author
	Title        string
	Venue        string // Journal/proceedings/publisher text. Empty if unknown.
	Date         Date
	Target       string // URL.
	Series       []Series
	Unstructured string // Text that could not be classified.
	Degraded     bool   // Set when classification was incomplete and fallback handling applied.
}

// Outcome is the result of parsing one entry. Parsing always yields exactly
// one outcome and never an error: Fallback is set when the record needed
// degraded handling, and Warnings explain what was wrong, for logging with
// the anchor.
type Outcome struct {
	Reference Reference
	Fallback  bool
	Warnings  []string
}

// Parse parses the raw text of one bibliography entry into an Outcome. The
// anchor is the entry's citation label without brackets and must be non-empty;
// uniqueness of anchors across a document is the caller's responsibility.
func Parse(anchor, text string) Outcome {
	ntext := Normalize(text)
	segs := split(ntext)
	fields := classify(segs)
	rec, warnings := build(anchor, ntext, fields)
	return validate(rec, warnings)
}

// Normalize unfolds line continuations, collapses whitespace runs to single
// spaces and applies unicode NFC normalization.
func Normalize(text string) string {
	return norm.NFC.String(strings.Join(strings.Fields(text), " "))
}
