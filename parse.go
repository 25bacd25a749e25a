package main

import (
	"io"
	"log"
	"os"
	"strings"

	"github.com/mjl-/refxml/bibxml"
	"github.com/mjl-/refxml/mlog"
	"github.com/mjl-/refxml/reference"
)

func cmdParse(c *cmd) {
	c.params = "[options] [entry-text]"
	c.help = `Parse a single reference entry into citation markup.

The entry text is given as an argument, or read from stdin when absent. The
rendered <reference> fragment is written to stdout. Degraded entries are still
rendered, with the raw text as annotation, and a warning logged per problem.
`
	var v2, v3 bool
	var anchor string
	c.flag.BoolVar(&v2, "2", false, "output v2 (RFC 7749) schema, the default")
	c.flag.BoolVar(&v3, "3", false, "output v3 (RFC 7991) schema")
	c.flag.StringVar(&anchor, "anchor", "REF1", "anchor attribute for the reference")
	args := c.Parse()
	if len(args) > 1 {
		c.Usage()
	}
	if v2 && v3 {
		log.Fatalf("-2 and -3 are mutually exclusive")
	}

	var text string
	if len(args) == 1 {
		text = args[0]
	} else {
		buf, err := io.ReadAll(os.Stdin)
		xcheckf(err, "reading stdin")
		text = string(buf)
	}
	if strings.TrimSpace(text) == "" {
		log.Fatalf("empty entry text")
	}

	o := reference.Parse(anchor, text)
	countOutcome(o.Fallback)
	for _, warning := range o.Warnings {
		c.log.Warn("reference entry degraded", mlog.Field("anchor", anchor), mlog.Field("reason", warning))
	}
	ref := bibxml.FromOutcome(o, xschema(v2, v3))
	os.Stdout.WriteString(ref.Fragment() + "\n")
}
