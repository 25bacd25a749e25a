package reflib

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mjl-/refxml/bibxml"
	"github.com/mjl-/refxml/reference"
)

func tcheck(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %s", msg, err)
	}
}

func TestLib(t *testing.T) {
	ctxbg := context.Background()
	db, err := Open(ctxbg, filepath.Join(t.TempDir(), "reflib.db"))
	tcheck(t, err, "open")
	defer db.Close()

	ref := bibxml.FromOutcome(reference.Parse("RFC2119", `Bradner, S., "Key words for use in RFCs to Indicate Requirement Levels", BCP 14, RFC 2119, March 1997.`), bibxml.SchemaV2)
	tcheck(t, db.Add(ctxbg, ref), "add")
	if err := db.Add(ctxbg, ref); !errors.Is(err, ErrExists) {
		t.Fatalf("adding duplicate anchor: got %v, expected ErrExists", err)
	}

	got, err := db.Lookup(ctxbg, "RFC2119")
	tcheck(t, err, "lookup")
	if got.Front.Title != "Key words for use in RFCs to Indicate Requirement Levels" {
		t.Fatalf("lookup returned wrong reference: %#v", got)
	}
	if _, err := db.Lookup(ctxbg, "RFC9999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("lookup of absent anchor: got %v, expected ErrNotFound", err)
	}

	// Put replaces.
	ref.Front.Title = "Key words"
	tcheck(t, db.Put(ctxbg, ref), "put")
	got, err = db.Lookup(ctxbg, "RFC2119")
	tcheck(t, err, "lookup after put")
	if got.Front.Title != "Key words" {
		t.Fatalf("put did not replace: %#v", got)
	}

	// Import from a references section.
	sec := bibxml.References{Title: "Normative References", References: []bibxml.Reference{
		bibxml.FromOutcome(reference.Parse("RFC1034", `Mockapetris, P., "Domain names - concepts and facilities", STD 13, RFC 1034, November 1987.`), bibxml.SchemaV2),
		bibxml.FromOutcome(reference.Parse("RFC1035", `Mockapetris, P., "Domain names - implementation and specification", STD 13, RFC 1035, November 1987.`), bibxml.SchemaV2),
	}}
	n, err := db.Import(ctxbg, strings.NewReader(sec.Fragment()))
	tcheck(t, err, "import")
	if n != 2 {
		t.Fatalf("imported %d references, expected 2", n)
	}

	l, err := db.List(ctxbg)
	tcheck(t, err, "list")
	if len(l) != 3 || l[0].Anchor != "RFC1034" || l[2].Anchor != "RFC2119" {
		t.Fatalf("bad list: %#v", l)
	}

	tcheck(t, db.Remove(ctxbg, "RFC1035"), "remove")
	if err := db.Remove(ctxbg, "RFC1035"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("removing absent anchor: got %v, expected ErrNotFound", err)
	}
}
