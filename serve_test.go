package main

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mjl-/sherpa"
)

func TestAPIConvertDuplicateAnchor(t *testing.T) {
	text := "References\n" +
		"\n" +
		"   [X]  Smith, J., \"One\", March 2001.\n" +
		"\n" +
		"   [X]  Jones, K., \"Two\", April 2002.\n"

	before := testutil.ToFloat64(metricDuplicateAnchor)
	defer func() {
		x := recover()
		serr, ok := x.(*sherpa.Error)
		if !ok {
			t.Fatalf("expected *sherpa.Error, got %v", x)
		}
		if serr.Code != "user:error" || !strings.Contains(serr.Message, `"X"`) {
			t.Fatalf("expected user error naming the duplicate anchor, got %#v", serr)
		}
		if got := testutil.ToFloat64(metricDuplicateAnchor); got != before+1 {
			t.Fatalf("duplicate anchor metric went from %v to %v, expected one increment", before, got)
		}
	}()
	API{}.Convert(ctxbg, text, "v2", false)
	t.Fatalf("convert with duplicate anchor did not fail")
}

func TestAPIParse(t *testing.T) {
	r := API{}.Parse(ctxbg, "RFC2119", `Bradner, S., "Key words for use in RFCs to Indicate Requirement Levels", BCP 14, RFC 2119, March 1997.`, "v2")
	if r.Degraded || !strings.Contains(r.XML, `anchor="RFC2119"`) || !strings.Contains(r.XML, "Key words") {
		t.Fatalf("unexpected parse result: %#v", r)
	}

	r = API{}.Parse(ctxbg, "", "prose without any structure to speak of", "")
	if !r.Degraded || len(r.Warnings) == 0 {
		t.Fatalf("expected degraded result with warnings: %#v", r)
	}
}
