package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/mjl-/refxml/bibxml"
	"github.com/mjl-/refxml/reference"
	"github.com/mjl-/refxml/reflib"
)

// xlib opens the citation library for the lib subcommands, requiring that one
// is configured.
func xlib(ctx context.Context, library string) *reflib.DB {
	lib := xopenLibrary(ctx, library)
	if lib == nil {
		log.Fatalf("no citation library configured, set Library in the config file or pass -library")
	}
	return lib
}

func cmdLibAdd(c *cmd) {
	c.params = "[-library file] anchor entry-text"
	c.help = `Parse a reference entry and store it in the citation library.

The entry is parsed like "refxml parse" and stored under the anchor,
replacing an existing entry for that anchor. A degraded parse is refused:
fix the entry text or import proper markup with "refxml lib import".
`
	var library string
	c.flag.StringVar(&library, "library", "", "citation library database, default from config")
	args := c.Parse()
	if len(args) != 2 {
		c.Usage()
	}
	anchor, text := args[0], args[1]

	o := reference.Parse(anchor, text)
	if o.Fallback {
		log.Fatalf("entry for %s did not parse cleanly: %s", anchor, strings.Join(o.Warnings, "; "))
	}
	countOutcome(false)

	ctx := context.Background()
	lib := xlib(ctx, library)
	defer lib.Close()
	err := lib.Put(ctx, bibxml.FromOutcome(o, bibxml.SchemaV2))
	xcheckf(err, "storing %s", anchor)
}

func cmdLibImport(c *cmd) {
	c.params = "[-library file] [file.xml ...]"
	c.help = `Import <reference> elements into the citation library.

Each file (or stdin when no files are given) is scanned for reference
elements, e.g. a bibxml collection or a previously converted document. Each
element is stored under its anchor, replacing existing entries.
`
	var library string
	c.flag.StringVar(&library, "library", "", "citation library database, default from config")
	args := c.Parse()

	ctx := context.Background()
	lib := xlib(ctx, library)
	defer lib.Close()

	importOne := func(name string, r io.Reader) {
		n, err := lib.Import(ctx, r)
		xcheckf(err, "importing %s", name)
		fmt.Printf("%s: %d references imported\n", name, n)
	}
	if len(args) == 0 {
		importOne("stdin", os.Stdin)
		return
	}
	for _, arg := range args {
		f, err := os.Open(arg)
		xcheckf(err, "opening %s", arg)
		importOne(arg, f)
		f.Close()
	}
}

func cmdLibList(c *cmd) {
	c.params = "[-library file]"
	c.help = `List the anchors and titles stored in the citation library.`
	var library string
	c.flag.StringVar(&library, "library", "", "citation library database, default from config")
	if len(c.Parse()) != 0 {
		c.Usage()
	}

	ctx := context.Background()
	lib := xlib(ctx, library)
	defer lib.Close()
	refs, err := lib.List(ctx)
	xcheckf(err, "listing references")
	for _, r := range refs {
		fmt.Printf("%s\t%s\n", r.Anchor, r.Title)
	}
}

func cmdLibLookup(c *cmd) {
	c.params = "[-library file] anchor"
	c.help = `Print the stored citation markup for an anchor.`
	var library string
	c.flag.StringVar(&library, "library", "", "citation library database, default from config")
	args := c.Parse()
	if len(args) != 1 {
		c.Usage()
	}

	ctx := context.Background()
	lib := xlib(ctx, library)
	defer lib.Close()
	ref, err := lib.Lookup(ctx, args[0])
	xcheckf(err, "looking up %s", args[0])
	fmt.Println(ref.Fragment())
}

func cmdLibRemove(c *cmd) {
	c.params = "[-library file] anchor"
	c.help = `Remove the stored citation for an anchor.`
	var library string
	c.flag.StringVar(&library, "library", "", "citation library database, default from config")
	args := c.Parse()
	if len(args) != 1 {
		c.Usage()
	}

	ctx := context.Background()
	lib := xlib(ctx, library)
	defer lib.Close()
	err := lib.Remove(ctx, args[0])
	xcheckf(err, "removing %s", args[0])
}
