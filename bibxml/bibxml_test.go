package bibxml

import (
	"reflect"
	"strings"
	"testing"

	"github.com/mjl-/refxml/reference"
)

func TestRoundTrip(t *testing.T) {
	// Serializing an accepted record and parsing the markup back must yield
	// the same normalized title, authors and date.
	check := func(text string) {
		t.Helper()
		o := reference.Parse("A1", text)
		if o.Fallback {
			t.Fatalf("unexpected fallback for %q: %v", text, o.Warnings)
		}
		frag := FromOutcome(o, SchemaV2).Fragment()
		ref, err := ParseOne(strings.NewReader(frag))
		if err != nil {
			t.Fatalf("parsing emitted fragment: %v, fragment:\n%s", err, frag)
		}
		rec := ref.Record()
		orig := o.Reference
		if rec.Title != orig.Title {
			t.Fatalf("title changed in round trip: %q != %q", rec.Title, orig.Title)
		}
		if !reflect.DeepEqual(rec.Authors, orig.Authors) {
			t.Fatalf("authors changed in round trip: %#v != %#v", rec.Authors, orig.Authors)
		}
		if rec.Date != orig.Date {
			t.Fatalf("date changed in round trip: %#v != %#v", rec.Date, orig.Date)
		}
		if !reflect.DeepEqual(rec.Series, orig.Series) {
			t.Fatalf("series changed in round trip: %#v != %#v", rec.Series, orig.Series)
		}
	}

	check(`Smith, J., "A Study of X", Journal of Y, March 2001, <http://example.org/x>.`)
	check(`Bradner, S., Ed., "Key words for use in RFCs to Indicate Requirement Levels", BCP 14, RFC 2119, March 1997, <https://www.rfc-editor.org/info/rfc2119>.`)
	check(`Mockapetris, P., "Domain names - concepts and facilities", STD 13, RFC 1034, November 1987.`)
}

func TestDegraded(t *testing.T) {
	// A degraded entry keeps its full text in an annotation and still has
	// the required title and author elements.
	text := "some prose without citation structure whatsoever"
	o := reference.Parse("X", text)
	if !o.Fallback {
		t.Fatalf("expected fallback outcome")
	}
	frag := FromOutcome(o, SchemaV2).Fragment()
	if !strings.Contains(frag, "<annotation>"+text+"</annotation>") {
		t.Fatalf("annotation with raw text missing in fragment:\n%s", frag)
	}
	if !strings.Contains(frag, "<title></title>") {
		t.Fatalf("empty placeholder title missing in fragment:\n%s", frag)
	}
	if !strings.Contains(frag, "<organization></organization>") {
		t.Fatalf("placeholder author organization missing in fragment:\n%s", frag)
	}

	// Even an empty entry serializes to valid non-empty markup.
	frag = FromOutcome(reference.Parse("E", ""), SchemaV2).Fragment()
	if _, err := ParseOne(strings.NewReader(frag)); err != nil {
		t.Fatalf("emitted stub does not parse: %v, fragment:\n%s", err, frag)
	}
}

func TestVenue(t *testing.T) {
	o := reference.Parse("V", `Smith, J., "T", Journal of Y, March 2001.`)
	if o.Reference.Venue != "Journal of Y" {
		t.Fatalf("venue not classified: %#v", o.Reference)
	}
	// v2 has no element for venue text, it becomes an annotation.
	if frag := FromOutcome(o, SchemaV2).Fragment(); !strings.Contains(frag, "<annotation>Journal of Y</annotation>") {
		t.Fatalf("v2 venue annotation missing:\n%s", frag)
	}
	// v3 has refcontent.
	if frag := FromOutcome(o, SchemaV3).Fragment(); !strings.Contains(frag, "<refcontent>Journal of Y</refcontent>") {
		t.Fatalf("v3 refcontent missing:\n%s", frag)
	}
}

func TestSanitize(t *testing.T) {
	o := reference.Parse("S", "control\x01char \x7f entry text")
	frag := FromOutcome(o, SchemaV2).Fragment()
	if strings.ContainsAny(frag, "\x01\x7f") {
		t.Fatalf("control characters in output:\n%q", frag)
	}
	// Markup characters are escaped by encoding/xml, not dropped.
	o = reference.Parse("S2", `Smith, J., "a <title> & more", March 2001.`)
	frag = FromOutcome(o, SchemaV2).Fragment()
	if !strings.Contains(frag, "&lt;title&gt; &amp; more") {
		t.Fatalf("markup characters not escaped:\n%s", frag)
	}
}

func TestDocument(t *testing.T) {
	secs := []References{
		{Title: "Normative References", References: []Reference{FromOutcome(reference.Parse("RFC2119", `Bradner, S., "Key words", BCP 14, RFC 2119, March 1997.`), SchemaV2)}},
		{Title: "Informative References"},
	}
	var back strings.Builder
	if err := WriteBack(&back, secs); err != nil {
		t.Fatalf("write back: %v", err)
	}
	if !strings.Contains(back.String(), `<references title="Normative References">`) {
		t.Fatalf("references section missing:\n%s", back.String())
	}

	var doc strings.Builder
	err := WriteDocument(&doc, DocMeta{Title: "A Draft", IPR: "trust200902", Schema: SchemaV2}, secs)
	if err != nil {
		t.Fatalf("write document: %v", err)
	}
	s := doc.String()
	for _, want := range []string{`<rfc ipr="trust200902">`, "<middle>", `<references title="Normative References">`, `anchor="RFC2119"`} {
		if !strings.Contains(s, want) {
			t.Fatalf("missing %q in document:\n%s", want, s)
		}
	}
	refs, err := Parse(strings.NewReader(s))
	if err != nil || len(refs) != 1 {
		t.Fatalf("re-parsing document: %v, %d references", err, len(refs))
	}
}
