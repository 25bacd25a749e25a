// Package bibxml reads and writes xml2rfc citation markup: the <reference>
// grammar shared by RFC 7749 (v2) and RFC 7991 (v3), and the <references>
// sections and document wrapper around it.
//
// Writing never fails for records produced by the reference package: text is
// sanitized of XML-invalid characters and escaping is left to encoding/xml,
// exactly once.
package bibxml

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/mjl-/refxml/reference"
)

// Schema selects the output grammar.
type Schema string

const (
	SchemaV2 Schema = "v2" // RFC 7749
	SchemaV3 Schema = "v3" // RFC 7991
)

// Reference is one <reference> element.
type Reference struct {
	XMLName     xml.Name     `xml:"reference"`
	Anchor      string       `xml:"anchor,attr"`
	Target      string       `xml:"target,attr,omitempty"`
	Front       Front        `xml:"front"`
	Series      []SeriesInfo `xml:"seriesInfo"`
	RefContent  string       `xml:"refcontent,omitempty"` // v3 only, venue text.
	Annotations []string     `xml:"annotation"`
}

// Front is the <front> element of a reference. The grammar requires a title,
// at least one author and a date, so all three are always emitted, empty if
// unknown.
type Front struct {
	Title   string   `xml:"title"`
	Authors []Author `xml:"author"`
	Date    *Date    `xml:"date"`
}

type Author struct {
	Fullname     string  `xml:"fullname,attr,omitempty"`
	Initials     string  `xml:"initials,attr,omitempty"`
	Surname      string  `xml:"surname,attr,omitempty"`
	Role         string  `xml:"role,attr,omitempty"`
	Organization *string `xml:"organization"`
}

// Date attributes are strings: an absent component is an absent attribute,
// not a zero.
type Date struct {
	Day   string `xml:"day,attr,omitempty"`
	Month string `xml:"month,attr,omitempty"`
	Year  string `xml:"year,attr,omitempty"`
}

type SeriesInfo struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// References is one <references> section, e.g. "Normative References".
type References struct {
	XMLName    xml.Name    `xml:"references"`
	Title      string      `xml:"title,attr,omitempty"`
	References []Reference `xml:"reference"`
}

// Record converts parsed markup back into a reference record, the inverse of
// FromOutcome. Used for citation library imports and round-trip tests.
func (r Reference) Record() reference.Reference {
	rec := reference.Reference{
		Anchor: r.Anchor,
		Title:  r.Front.Title,
		Target: r.Target,
		Venue:  r.RefContent,
	}
	for _, a := range r.Front.Authors {
		if a.Fullname == "" && a.Surname == "" && a.Initials == "" {
			continue // Placeholder author.
		}
		rec.Authors = append(rec.Authors, reference.Author{
			Fullname: a.Fullname,
			Surname:  a.Surname,
			Initials: a.Initials,
			Editor:   a.Role == "editor",
		})
	}
	if d := r.Front.Date; d != nil {
		rec.Date.Month = d.Month
		rec.Date.Day, _ = strconv.Atoi(d.Day)
		rec.Date.Year, _ = strconv.Atoi(d.Year)
	}
	for _, s := range r.Series {
		rec.Series = append(rec.Series, reference.Series{Name: s.Name, Value: s.Value})
	}
	if len(r.Annotations) > 0 {
		rec.Unstructured = strings.Join(r.Annotations, " ")
	}
	return rec
}
