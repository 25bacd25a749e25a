package draft

import (
	"errors"
	"os"
	"strings"
	"testing"
)

func TestStrip(t *testing.T) {
	buf, err := os.ReadFile("testdata/sample.txt")
	if err != nil {
		t.Fatalf("reading testdata: %v", err)
	}
	s := Strip(string(buf))
	if strings.ContainsRune(s, '\f') {
		t.Fatalf("form feed left in stripped text")
	}
	if strings.Contains(s, "[Page 1]") {
		t.Fatalf("page footer left in stripped text")
	}
	if strings.Contains(s, "An Example Draft                  March 2017") {
		t.Fatalf("page header left in stripped text")
	}
	if !strings.Contains(s, "3.  References") || !strings.Contains(s, "Requirement Levels") {
		t.Fatalf("content lost while stripping:\n%s", s)
	}

	// Text without page formatting passes through unchanged, and stripping
	// is idempotent.
	plain := "line one\n   indented\n\nlast"
	if got := Strip(plain); got != plain {
		t.Fatalf("stripped plain text changed: %q", got)
	}
	if again := Strip(s); again != s {
		t.Fatalf("strip not idempotent")
	}
}

func TestReferences(t *testing.T) {
	buf, err := os.ReadFile("testdata/sample.txt")
	if err != nil {
		t.Fatalf("reading testdata: %v", err)
	}
	secs, err := References(string(buf))
	if err != nil {
		t.Fatalf("extracting references: %v", err)
	}
	var normative, informative *Section
	for i := range secs {
		switch secs[i].Title {
		case "Normative References":
			normative = &secs[i]
		case "Informative References":
			informative = &secs[i]
		}
	}
	if normative == nil || len(normative.Blocks) != 2 {
		t.Fatalf("expected 2 normative blocks, got %#v", secs)
	}
	if informative == nil || len(informative.Blocks) != 1 {
		t.Fatalf("expected 1 informative block, got %#v", secs)
	}
	if b := normative.Blocks[0]; b.Anchor != "RFC2119" || !strings.Contains(b.Text, "Key words for use in RFCs") || !strings.Contains(b.Text, "rfc-editor.org/info/rfc2119") {
		t.Fatalf("bad first block: %#v", b)
	}
	// Continuation lines are folded into the block, one entry per block.
	if b := informative.Blocks[0]; b.Anchor != "EX1" || !strings.Contains(b.Text, "Ron_Broersma.pdf") || strings.Contains(b.Text, "[") {
		t.Fatalf("bad informative block: %#v", b)
	}
}

func TestEntryAcrossPageBreak(t *testing.T) {
	// An entry continuing on the next page must keep its continuation lines:
	// Strip joins the pages with a blank line and the date and locator
	// typically follow the break.
	text := "References\n" +
		"\n" +
		"   [X1]  Smith, J., \"A Study of X\", Journal of Y,\n" +
		"\n" +
		"Smith                   Expires September 2, 2017               [Page 1]\n" +
		"\f\n" +
		"Internet-Draft              An Example Draft                  March 2017\n" +
		"\n" +
		"         March 2001, <http://example.org/x>.\n" +
		"\n" +
		"   [X2]  Jones, K., \"Two\", April 2002.\n" +
		"\n" +
		"Authors' Addresses\n"
	secs, err := References(text)
	if err != nil {
		t.Fatalf("extracting references: %v", err)
	}
	if len(secs) != 1 || len(secs[0].Blocks) != 2 {
		t.Fatalf("expected 1 section with 2 blocks, got %#v", secs)
	}
	b := secs[0].Blocks[0]
	if b.Anchor != "X1" || !strings.Contains(b.Text, "Journal of Y") || !strings.Contains(b.Text, "<http://example.org/x>") {
		t.Fatalf("continuation after page break lost: %#v", b)
	}
	if b := secs[0].Blocks[1]; b.Anchor != "X2" || strings.Contains(b.Text, "example.org") {
		t.Fatalf("blocks not separated: %#v", b)
	}
}

func TestNoReferences(t *testing.T) {
	_, err := References("1. Introduction\n\n   Hello.\n")
	if !errors.Is(err, ErrNoReferences) {
		t.Fatalf("got %v, expected ErrNoReferences", err)
	}
}

func TestDuplicateAnchor(t *testing.T) {
	text := `References

   [X]  Smith, J., "One", March 2001.

   [X]  Jones, K., "Two", April 2002.
`
	_, err := References(text)
	var dup DuplicateAnchorError
	if !errors.As(err, &dup) || dup.Anchor != "X" {
		t.Fatalf("got %v, expected DuplicateAnchorError for X", err)
	}

	// Same anchor in different sections is also a duplicate: uniqueness is a
	// document invariant. Anchors are case-sensitive, so mere case variants
	// are not duplicates.
	text = "Normative References\n\n   [a]  Smith, J., \"One\", March 2001.\n\nInformative References\n\n   [A]  Jones, K., \"Two\", April 2002.\n"
	if secs, err := References(text); err != nil || len(secs) != 2 {
		t.Fatalf("case-variant anchors rejected: %v %#v", err, secs)
	}
}
