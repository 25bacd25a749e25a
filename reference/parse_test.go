package reference

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	check := func(anchor, text string, exp Reference) {
		t.Helper()
		o := Parse(anchor, text)
		if !reflect.DeepEqual(o.Reference, exp) {
			t.Fatalf("parse %q:\ngot  %#v\nwant %#v", text, o.Reference, exp)
		}
		if o.Fallback != exp.Degraded {
			t.Fatalf("parse %q: fallback %v, want %v", text, o.Fallback, exp.Degraded)
		}
	}

	// The well-formed comma convention.
	check("X1", `Smith, J., "A Study of X", Journal of Y, March 2001, <http://example.org/x>.`, Reference{
		Anchor:  "X1",
		Authors: []Author{{Fullname: "J. Smith", Surname: "Smith", Initials: "J."}},
		Title:   "A Study of X",
		Venue:   "Journal of Y",
		Date:    Date{Month: "March", Year: 2001},
		Target:  "http://example.org/x",
	})

	// Commas inside the quoted title and inside the venue location text must
	// not fragment the title or misclassify it.
	check("IPv6", `Broersma, R., "IPv6 Everywhere: Living with a Fully IPv6-enabled environment", Australian IPv6 Summit 2010, Melbourne, VIC Australia, October 2010, <http://meetings.example.net/Ron_Broersma.pdf>.`, Reference{
		Anchor:  "IPv6",
		Authors: []Author{{Fullname: "R. Broersma", Surname: "Broersma", Initials: "R."}},
		Title:   "IPv6 Everywhere: Living with a Fully IPv6-enabled environment",
		Venue:   "Australian IPv6 Summit 2010, Melbourne, VIC Australia",
		Date:    Date{Month: "October", Year: 2010},
		Target:  "http://meetings.example.net/Ron_Broersma.pdf",
	})

	// Period/space convention, the motivating failure: too few top-level
	// commas for comma mode, title and locator must still classify through
	// quote and bracket detection under fallback segmentation.
	check("IPv6", `Broersma, R. "IPv6 Everywhere". Australian IPv6 Summit 2010. October 2010. <http://meetings.example.net/Ron_Broersma.pdf>.`, Reference{
		Anchor:  "IPv6",
		Authors: []Author{{Fullname: "R. Broersma", Surname: "Broersma", Initials: "R."}},
		Title:   "IPv6 Everywhere",
		Venue:   "Australian IPv6 Summit 2010",
		Date:    Date{Month: "October", Year: 2010},
		Target:  "http://meetings.example.net/Ron_Broersma.pdf",
	})

	// RFC series entry with seriesInfo values and editor marker.
	check("RFC2119", `Bradner, S., Ed., "Key words for use in RFCs to Indicate Requirement Levels", BCP 14, RFC 2119, DOI 10.17487/RFC2119, March 1997, <https://www.rfc-editor.org/info/rfc2119>.`, Reference{
		Anchor:  "RFC2119",
		Authors: []Author{{Fullname: "S. Bradner", Surname: "Bradner", Initials: "S.", Editor: true}},
		Title:   "Key words for use in RFCs to Indicate Requirement Levels",
		Series:  []Series{{"BCP", "14"}, {"RFC", "2119"}, {"DOI", "10.17487/RFC2119"}},
		Date:    Date{Month: "March", Year: 1997},
		Target:  "https://www.rfc-editor.org/info/rfc2119",
	})

	// Multiple authors joined with "and".
	check("M", `Smith, J. and K. Jones, "Titles", March 2001.`, Reference{
		Anchor: "M",
		Authors: []Author{
			{Fullname: "J. Smith", Surname: "Smith", Initials: "J."},
			{Fullname: "K. Jones", Surname: "Jones", Initials: "K."},
		},
		Title: "Titles",
		Date:  Date{Month: "March", Year: 2001},
	})

	// Multi-line input is unfolded before segmentation.
	check("W", "Smith, J.,\n     \"A Study\n     of X\", Journal of Y,\n     March 2001.", Reference{
		Anchor:  "W",
		Authors: []Author{{Fullname: "J. Smith", Surname: "Smith", Initials: "J."}},
		Title:   "A Study of X",
		Venue:   "Journal of Y",
		Date:    Date{Month: "March", Year: 2001},
	})

	// No recognizable structure at all: whole text becomes the unstructured
	// payload and the record is degraded, never dropped.
	prose := "National Institute of Standards and Technology publication without any recognizable shape"
	check("P", prose, Reference{
		Anchor:       "P",
		Unstructured: prose,
		Degraded:     true,
	})

	// Empty entry: still one outcome, degraded stub.
	check("E", "", Reference{Anchor: "E", Degraded: true})
	check("E2", "   \n\t ", Reference{Anchor: "E2", Degraded: true})
}

func TestParseWarnings(t *testing.T) {
	o := Parse("X", "just some words, more words here, and nothing recognizable, at all")
	if !o.Fallback || !o.Reference.Degraded {
		t.Fatalf("expected fallback for unclassifiable entry, got %#v", o)
	}
	if len(o.Warnings) == 0 {
		t.Fatalf("expected warnings for degraded entry")
	}
	if o.Reference.Unstructured == "" {
		t.Fatalf("expected unstructured payload")
	}

	if o := Parse("Y", `"T1", "T2", March 2001.`); o.Reference.Title != "T1" || o.Reference.Venue != "T2" {
		t.Fatalf("second quoted span not demoted to venue: %#v", o.Reference)
	}
}

func TestSegment(t *testing.T) {
	texts := func(segs []Segment) []string {
		var l []string
		for _, s := range segs {
			l = append(l, s.Text)
		}
		return l
	}
	check := func(text string, exp []string) {
		t.Helper()
		got := texts(split(Normalize(text)))
		if !reflect.DeepEqual(got, exp) {
			t.Fatalf("split %q:\ngot  %q\nwant %q", text, got, exp)
		}
	}

	check("", nil)
	check("one two three", []string{"one two three"})
	check(`a, b, c`, []string{"a", "b", "c"})
	check(`Smith, J., "a, quoted, title", <http://x/y,z>`, []string{"Smith, J.", `"a, quoted, title"`, "<http://x/y,z>"})
	check(`First sentence. Second sentence. and not this`, []string{"First sentence.", "Second sentence. and not this"})
	check(`J. Smith. "Quoted." <http://x>.`, []string{"J. Smith.", `"Quoted."`, "<http://x>"})
}

func TestDate(t *testing.T) {
	check := func(s string, exp Date, expOK bool) {
		t.Helper()
		d, ok := parseDate(s)
		if ok != expOK || d != exp {
			t.Fatalf("parseDate %q: got %v %v, want %v %v", s, d, ok, exp, expOK)
		}
	}
	check("March 2001", Date{Month: "March", Year: 2001}, true)
	check("march 2001.", Date{Month: "March", Year: 2001}, true)
	check("Mar 2001", Date{Month: "March", Year: 2001}, true)
	check("26 November 2001", Date{Day: 26, Month: "November", Year: 2001}, true)
	check("November 26, 2001", Date{Day: 26, Month: "November", Year: 2001}, true)
	check("2001-11-26", Date{Day: 26, Month: "November", Year: 2001}, true)
	check("1997", Date{Year: 1997}, true)
	check("Summit 2010", Date{}, false)
	check("2010 Summit", Date{}, false)
	check("12345", Date{}, false)
	check("", Date{}, false)
}
