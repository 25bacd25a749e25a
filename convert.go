package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/mjl-/refxml/bibxml"
	"github.com/mjl-/refxml/draft"
	"github.com/mjl-/refxml/mlog"
	"github.com/mjl-/refxml/reference"
	"github.com/mjl-/refxml/reflib"
)

func cmdConvert(c *cmd) {
	c.params = "[options] draft.txt ..."
	c.help = `Convert the references of text-format RFCs or Internet-Drafts to xml2rfc XML.

The references sections are located and each bracket-anchored entry is parsed
into structured citation markup. A malformed entry never fails a conversion:
it is emitted as an unstructured annotation and logged as a warning with its
anchor. The one hard error is a duplicate reference anchor, which aborts the
document without partial output.

Output is a <back> element with the references sections, or with -standalone
a minimal complete document carrying the ipr attribute. The output file is
derived from the input name unless -o or -p is given; an implied output file
is never overwritten.
`
	var v2, v3, standalone bool
	var output, outputPath, title, ipr, stream, consensus, library string
	var procs int
	c.flag.BoolVar(&v2, "2", false, "output v2 (RFC 7749) schema, the default")
	c.flag.BoolVar(&v3, "3", false, "output v3 (RFC 7991) schema")
	c.flag.BoolVar(&standalone, "standalone", false, "wrap the references in a minimal complete document instead of a bare back element")
	c.flag.StringVar(&output, "o", "", "output file, - for stdout; only with a single input file")
	c.flag.StringVar(&outputPath, "p", "", "output directory")
	c.flag.StringVar(&title, "title", "", "document title for -standalone, default derived from the draft")
	c.flag.StringVar(&ipr, "ipr", "", "ipr attribute for -standalone, e.g. trust200902, default from config")
	c.flag.StringVar(&stream, "stream", "", "document stream for -standalone: IETF, IAB, IRTF or independent")
	c.flag.StringVar(&consensus, "consensus", "", "consensus attribute for -standalone: yes or no")
	c.flag.StringVar(&library, "library", "", "citation library database, default from config")
	c.flag.IntVar(&procs, "procs", runtime.GOMAXPROCS(0), "parallelism for parsing reference blocks")
	args := c.Parse()
	if len(args) == 0 {
		c.Usage()
	}
	if v2 && v3 {
		log.Fatalf("-2 and -3 are mutually exclusive")
	}
	if output != "" && outputPath != "" {
		log.Fatalf("-o and -p are mutually exclusive")
	}
	if output != "" && output != "-" && len(args) > 1 {
		log.Fatalf("-o with multiple input files would overwrite the same output")
	}
	schema := xschema(v2, v3)
	if ipr == "" {
		ipr = conf.IPR
	}
	if stream == "" {
		stream = conf.Stream
	}

	ctxbg := context.Background()
	lib := xopenLibrary(ctxbg, library)
	if lib != nil {
		defer lib.Close()
	}

	for _, arg := range args {
		buf, err := os.ReadFile(arg)
		xcheckf(err, "reading %s", arg)
		text := string(buf)

		secs, err := draft.References(text)
		var dup draft.DuplicateAnchorError
		if errors.As(err, &dup) {
			metricDuplicateAnchor.Inc()
			log.Fatalf("converting %s: %s", arg, err)
		}
		xcheckf(err, "converting %s", arg)

		xsecs, err := convertSections(ctxbg, c.log, secs, lib, schema, procs)
		xcheckf(err, "converting %s", arg)

		var b strings.Builder
		if standalone {
			meta := bibxml.DocMeta{Title: title, IPR: ipr, Stream: stream, Consensus: consensus, Schema: schema}
			if meta.Title == "" {
				meta.Title = docTitle(text, arg)
			}
			err = bibxml.WriteDocument(&b, meta, xsecs)
		} else {
			err = bibxml.WriteBack(&b, xsecs)
		}
		xcheckf(err, "rendering %s", arg)

		xwriteOutput(arg, output, outputPath, ".xml", b.String())
	}
}

// convertSections parses all reference blocks, in order, into reference
// markup. Blocks are independent and parsed by a worker pool; results are
// handled in document order. When a citation library is open, a parsed entry
// is replaced by the library version for its anchor.
func convertSections(ctx context.Context, clog *mlog.Log, secs []draft.Section, lib *reflib.DB, schema bibxml.Schema, procs int) ([]bibxml.References, error) {
	type result struct {
		outcome reference.Outcome
		ref     bibxml.Reference
	}
	if procs < 1 {
		procs = 1
	}

	var xsecs []bibxml.References
	for _, sec := range secs {
		if len(sec.Blocks) == 0 && len(secs) > 1 {
			// Parent "References" heading above the real subsections.
			continue
		}
		xsec := bibxml.References{Title: sec.Title}

		preparer := func(in, out chan Work[draft.Block, result]) {
			for w := range in {
				o := reference.Parse(w.In.Anchor, w.In.Text)
				w.Out = result{o, bibxml.FromOutcome(o, schema)}
				out <- w
			}
		}
		process := func(block draft.Block, r result) error {
			countOutcome(r.outcome.Fallback)
			for _, warning := range r.outcome.Warnings {
				clog.Warn("reference entry degraded", mlog.Field("anchor", block.Anchor), mlog.Field("line", block.Line), mlog.Field("reason", warning))
			}
			ref := r.ref
			if lib != nil {
				if lref, err := lib.Lookup(ctx, block.Anchor); err == nil {
					metricLibHits.Inc()
					clog.Debug("replaced entry from citation library", mlog.Field("anchor", block.Anchor))
					ref = lref
				} else if !errors.Is(err, reflib.ErrNotFound) {
					return err
				}
			}
			xsec.References = append(xsec.References, ref)
			return nil
		}

		wq := NewWorkQueue[draft.Block, result](procs, 2*procs, preparer, process)
		for _, block := range sec.Blocks {
			if err := wq.Add(block); err != nil {
				wq.Stop()
				return nil, err
			}
		}
		err := wq.Finish()
		wq.Stop()
		if err != nil {
			return nil, err
		}
		xsecs = append(xsecs, xsec)
	}
	return xsecs, nil
}

// xschema returns the output schema from the -2/-3 flags with the configured
// default.
func xschema(v2, v3 bool) bibxml.Schema {
	switch {
	case v2:
		return bibxml.SchemaV2
	case v3:
		return bibxml.SchemaV3
	}
	switch conf.Schema {
	case "", "v2":
		return bibxml.SchemaV2
	case "v3":
		return bibxml.SchemaV3
	}
	log.Fatalf("unknown schema %q in config, expected v2 or v3", conf.Schema)
	return bibxml.SchemaV2
}

// xopenLibrary opens the citation library from the flag or config, nil when
// not configured.
func xopenLibrary(ctx context.Context, library string) *reflib.DB {
	if library == "" {
		library = conf.Library
	}
	if library == "" {
		return nil
	}
	lib, err := reflib.Open(ctx, library)
	xcheckf(err, "opening citation library")
	return lib
}

var centeredLineRe = regexp.MustCompile(`^ {8,}\S`)

// docTitle guesses the document title: the first centered line of the front
// page that is not the draft name. Falls back to the file name.
func docTitle(text string, path string) string {
	for _, line := range strings.Split(draft.Strip(text), "\n") {
		if !centeredLineRe.MatchString(line) {
			continue
		}
		s := strings.TrimSpace(line)
		if strings.HasPrefix(s, "draft-") {
			continue
		}
		return s
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// xwriteOutput writes content to the output location: the -o file ("-" for
// stdout), a file in the -p directory, or the input name with its suffix
// replaced. An implied output file that already exists is not overwritten: it
// could be an original provided by the authors.
func xwriteOutput(inputPath, output, outputPath, suffix, content string) {
	var dst string
	implied := false
	switch {
	case output == "-":
		_, err := os.Stdout.WriteString(content)
		xcheckf(err, "writing to stdout")
		return
	case output != "":
		dst = output
	case outputPath != "":
		dst = filepath.Join(outputPath, stem(inputPath)+suffix)
	default:
		dst = filepath.Join(filepath.Dir(inputPath), stem(inputPath)+suffix)
		implied = true
	}
	if implied {
		if _, err := os.Stat(dst); err == nil {
			log.Fatalf("implied output file %s already exists, use -o or -p to write elsewhere", dst)
		}
	}
	err := os.WriteFile(dst, []byte(content), 0660)
	xcheckf(err, "writing %s", dst)
	fmt.Fprintf(os.Stderr, "written %s\n", dst)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
