package bibxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mjl-/refxml/reference"
)

// FromOutcome converts a parse outcome into its XML form. Venue text has no
// element of its own in the v2 grammar and becomes a trailing annotation; v3
// has <refcontent> for it. The unstructured payload of a degraded entry
// always becomes an annotation, so no text is lost even when structure could
// not be recovered.
func FromOutcome(o reference.Outcome, schema Schema) Reference {
	rec := o.Reference
	r := Reference{
		Anchor: sanitize(rec.Anchor),
		Target: sanitize(rec.Target),
	}
	r.Front.Title = sanitize(rec.Title)
	for _, a := range rec.Authors {
		xa := Author{
			Fullname: sanitize(a.Fullname),
			Initials: sanitize(a.Initials),
			Surname:  sanitize(a.Surname),
		}
		if a.Editor {
			xa.Role = "editor"
		}
		r.Front.Authors = append(r.Front.Authors, xa)
	}
	if len(r.Front.Authors) == 0 {
		// The grammar requires author+, emit an organization placeholder.
		org := ""
		r.Front.Authors = []Author{{Organization: &org}}
	}
	var d Date
	if rec.Date.Day > 0 {
		d.Day = strconv.Itoa(rec.Date.Day)
	}
	d.Month = sanitize(rec.Date.Month)
	if rec.Date.Year > 0 {
		d.Year = strconv.Itoa(rec.Date.Year)
	}
	r.Front.Date = &d
	for _, s := range rec.Series {
		r.Series = append(r.Series, SeriesInfo{Name: sanitize(s.Name), Value: sanitize(s.Value)})
	}
	if rec.Venue != "" {
		if schema == SchemaV3 {
			r.RefContent = sanitize(rec.Venue)
		} else {
			r.Annotations = append(r.Annotations, sanitize(rec.Venue))
		}
	}
	if rec.Unstructured != "" {
		r.Annotations = append(r.Annotations, sanitize(rec.Unstructured))
	}
	return r
}

// Fragment renders the reference as an indented XML fragment.
func (r Reference) Fragment() string {
	return marshal(r)
}

// Fragment renders the references section as an indented XML fragment.
func (s References) Fragment() string {
	return marshal(s)
}

func marshal(v any) string {
	buf, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		// Cannot happen: the types marshalled here hold only sanitized strings.
		panic(fmt.Sprintf("marshal reference xml: %v", err))
	}
	return string(buf)
}

// sanitize drops characters that are not valid in XML character data, so
// marshalling cannot fail and output is well-formed. Escaping of markup
// characters is done by encoding/xml.
func sanitize(s string) string {
	clean := func(r rune) bool {
		return r == '\t' || r == '\n' || r == '\r' || r >= 0x20 && r != 0x7f && r != 0xfffe && r != 0xffff
	}
	if strings.IndexFunc(s, func(r rune) bool { return !clean(r) }) < 0 {
		return s
	}
	return strings.Map(func(r rune) rune {
		if clean(r) {
			return r
		}
		return -1
	}, s)
}

// DocMeta is document-level metadata for a standalone document. The
// reference parser does not determine any of it, the caller does.
type DocMeta struct {
	Title     string
	IPR       string // e.g. "trust200902".
	Stream    string // e.g. "IETF".
	Consensus string // "yes" or "no".
	Schema    Schema
}

type backElem struct {
	XMLName  xml.Name     `xml:"back"`
	Sections []References `xml:"references"`
}

type docElem struct {
	XMLName        xml.Name  `xml:"rfc"`
	Version        string    `xml:"version,attr,omitempty"` // "3" for the v3 grammar.
	IPR            string    `xml:"ipr,attr,omitempty"`
	SubmissionType string    `xml:"submissionType,attr,omitempty"`
	Consensus      string    `xml:"consensus,attr,omitempty"`
	Front          docFront  `xml:"front"`
	Middle         docMiddle `xml:"middle"`
	Back           backElem  `xml:"back"`
}

type docFront struct {
	Title   string   `xml:"title"`
	Authors []Author `xml:"author"`
	Date    *Date    `xml:"date"`
}

type docMiddle struct {
	Sections []docSection `xml:"section"`
}

type docSection struct {
	Title string   `xml:"title,attr"`
	T     []string `xml:"t"`
}

// WriteBack writes the references sections wrapped in a <back> element,
// directly includable in an xml2rfc document.
func WriteBack(w io.Writer, secs []References) error {
	if _, err := io.WriteString(w, marshal(backElem{Sections: secs})+"\n"); err != nil {
		return fmt.Errorf("writing back element: %w", err)
	}
	return nil
}

// WriteDocument writes a minimal complete xml2rfc document holding the
// references sections. The middle part gets one placeholder section because
// the grammar requires a non-empty middle.
func WriteDocument(w io.Writer, meta DocMeta, secs []References) error {
	org := ""
	doc := docElem{
		IPR:            meta.IPR,
		SubmissionType: meta.Stream,
		Consensus:      meta.Consensus,
		Front: docFront{
			Title:   sanitize(meta.Title),
			Authors: []Author{{Organization: &org}},
			Date:    &Date{},
		},
		Middle: docMiddle{Sections: []docSection{{Title: "Introduction", T: []string{""}}}},
		Back:   backElem{Sections: secs},
	}
	if meta.Schema == SchemaV3 {
		doc.Version = "3"
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	if _, err := io.WriteString(w, marshal(doc)+"\n"); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}
