package main

import (
	"os"

	"github.com/mjl-/refxml/draft"
)

func cmdStrip(c *cmd) {
	c.params = "[-o file] draft.txt ..."
	c.help = `Strip page furniture from text-format RFCs or Internet-Drafts.

Form feeds, footer lines with page numbers and the repeated page headers are
removed and the page breaks joined, leaving continuous text. The result is
written next to the input with a .raw suffix unless -o is given; an implied
output file is never overwritten. Stripping already-stripped text is a no-op.
`
	var output string
	c.flag.StringVar(&output, "o", "", "output file, - for stdout; only with a single input file")
	args := c.Parse()
	if len(args) == 0 {
		c.Usage()
	}
	if output != "" && output != "-" && len(args) > 1 {
		c.Usage()
	}

	for _, arg := range args {
		buf, err := os.ReadFile(arg)
		xcheckf(err, "reading %s", arg)
		xwriteOutput(arg, output, "", ".raw", draft.Strip(string(buf)))
	}
}
