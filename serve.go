package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	golog "log"
	"net/http"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/russross/blackfriday/v2"

	"github.com/mjl-/sherpa"
	"github.com/mjl-/sherpadoc"
	"github.com/mjl-/sherpaprom"

	"github.com/mjl-/refxml/bibxml"
	"github.com/mjl-/refxml/draft"
	"github.com/mjl-/refxml/mlog"
	"github.com/mjl-/refxml/reference"
	"github.com/mjl-/refxml/reflib"
	"github.com/mjl-/refxml/refxmlvar"
)

//go:embed api.json
var apiJSON []byte

//go:embed README.md
var readmeMD []byte

var apiDoc = mustParseAPI(apiJSON)

func mustParseAPI(buf []byte) (doc sherpadoc.Section) {
	err := json.Unmarshal(buf, &doc)
	if err != nil {
		golog.Fatalf("parsing api docs: %v", err)
	}
	return doc
}

var srvlog = mlog.New("serve")

var cidGen atomic.Int64

func init() {
	cidGen.Store(time.Now().UnixMilli())
}

// cid returns a new connection/correlation id for logging one request.
func cid() int64 {
	return cidGen.Add(1)
}

// API is the web API for parsing reference entries and converting documents.
// Methods panic with *sherpa.Error for failures, the sherpa handler turns
// them into error responses.
type API struct {
	lib *reflib.DB // Optional.
}

func xsherpaf(ctx context.Context, err error, format string, args ...any) {
	if err == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	srvlog.WithContext(ctx).Errorx(msg, err)
	panic(&sherpa.Error{Code: "server:error", Message: fmt.Sprintf("%s: %s", msg, err)})
}

func xsherpaUserf(ctx context.Context, err error, format string, args ...any) {
	if err == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	srvlog.WithContext(ctx).Debugx(msg, err)
	panic(&sherpa.Error{Code: "user:error", Message: fmt.Sprintf("%s: %s", msg, err)})
}

func xparseSchema(ctx context.Context, schema string) bibxml.Schema {
	switch schema {
	case "", "v2":
		return bibxml.SchemaV2
	case "v3":
		return bibxml.SchemaV3
	}
	xsherpaUserf(ctx, fmt.Errorf("unknown schema %q", schema), "checking schema")
	panic("not reached")
}

// ParseResult is the outcome of parsing one reference entry.
type ParseResult struct {
	XML      string   // The <reference> element.
	Degraded bool     // Whether the entry fell back to an unstructured annotation.
	Warnings []string // Problems found while parsing, also for non-degraded entries.
}

// Parse parses a single reference entry into citation markup. Schema is "v2",
// "v3" or empty for the default.
func (a API) Parse(ctx context.Context, anchor, text, schema string) ParseResult {
	s := xparseSchema(ctx, schema)
	if strings.TrimSpace(text) == "" {
		xsherpaUserf(ctx, errors.New("empty entry text"), "checking entry")
	}
	if anchor == "" {
		anchor = "REF1"
	}
	o := reference.Parse(anchor, text)
	countOutcome(o.Fallback)
	return ParseResult{XML: bibxml.FromOutcome(o, s).Fragment(), Degraded: o.Fallback, Warnings: o.Warnings}
}

// ConvertResult is the outcome of converting the references of a document.
type ConvertResult struct {
	XML      string // A <back> element, or a complete document for standalone.
	Entries  int    // Total reference entries converted.
	Degraded int    // Entries emitted as unstructured annotations.
}

// Convert extracts the references sections from text-format RFC or draft text
// and converts them to citation markup. A duplicate anchor is an error and
// yields no output.
func (a API) Convert(ctx context.Context, text, schema string, standalone bool) ConvertResult {
	s := xparseSchema(ctx, schema)
	secs, err := draft.References(text)
	var dup draft.DuplicateAnchorError
	if errors.As(err, &dup) {
		metricDuplicateAnchor.Inc()
	}
	xsherpaUserf(ctx, err, "extracting references")

	xsecs, err := convertSections(ctx, srvlog.WithContext(ctx), secs, a.lib, s, runtime.GOMAXPROCS(0))
	xsherpaf(ctx, err, "converting references")

	var r ConvertResult
	for _, xsec := range xsecs {
		for _, ref := range xsec.References {
			r.Entries++
			if ref.Front.Title == "" && len(ref.Annotations) > 0 {
				r.Degraded++
			}
		}
	}
	var b strings.Builder
	if standalone {
		err = bibxml.WriteDocument(&b, bibxml.DocMeta{Title: "References", IPR: conf.IPR, Stream: conf.Stream, Schema: s}, xsecs)
	} else {
		err = bibxml.WriteBack(&b, xsecs)
	}
	xsherpaf(ctx, err, "rendering references")
	r.XML = b.String()
	return r
}

// Lookup returns the citation markup stored in the library for anchor.
func (a API) Lookup(ctx context.Context, anchor string) string {
	if a.lib == nil {
		xsherpaUserf(ctx, errors.New("no citation library configured"), "looking up %s", anchor)
	}
	ref, err := a.lib.Lookup(ctx, anchor)
	xsherpaUserf(ctx, err, "looking up %s", anchor)
	metricLibHits.Inc()
	return ref.Fragment()
}

// Version returns the refxml version.
func (a API) Version(ctx context.Context) string {
	return refxmlvar.Version
}

func cmdServe(c *cmd) {
	c.params = "[-listen address]"
	c.help = `Serve the web API for parsing and converting references.

Endpoints:

	/           this documentation
	/api/       sherpa API, see /api/ for the generated docs
	/convert    POST draft text, returns the converted references XML;
	            query parameters "schema" (v2/v3) and "standalone"
	/metrics    prometheus metrics

The citation library from the configuration is consulted during conversions
when configured.
`
	var listen string
	c.flag.StringVar(&listen, "listen", "", "address to listen on, default from config")
	if len(c.Parse()) != 0 {
		c.Usage()
	}
	if listen == "" {
		listen = conf.Listen
	}
	if listen == "" {
		listen = "localhost:8240"
	}

	ctxbg := context.Background()
	api := API{lib: xopenLibrary(ctxbg, "")}
	if api.lib != nil {
		defer api.lib.Close()
	}

	collector, err := sherpaprom.NewCollector("refxml", nil)
	xcheckf(err, "creating sherpa prometheus collector")
	apiHandler, err := sherpa.NewHandler("/api/", refxmlvar.Version, api, &apiDoc, &sherpa.HandlerOpts{Collector: collector, AdjustFunctionNames: "none"})
	xcheckf(err, "making sherpa handler")

	indexHTML := renderIndex(readmeMD)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(indexHTML)
	})
	mux.Handle("/api/", apiHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/convert", func(w http.ResponseWriter, r *http.Request) {
		serveConvert(api, w, r)
	})

	srv := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 30 * time.Second,
		ErrorLog:          golog.New(mlog.ErrWriter(srvlog, mlog.LevelDebug, "http error"), "", 0),
	}
	srvlog.Print("listening", mlog.Field("addr", listen), mlog.Field("version", refxmlvar.Version))
	err = srv.ListenAndServe()
	srvlog.Fatalx("serve", err)
}

// serveConvert is the plain HTTP variant of API.Convert, taking the draft
// text as request body. Useful for curl without sherpa plumbing.
func serveConvert(api API, w http.ResponseWriter, r *http.Request) {
	ctx := context.WithValue(r.Context(), mlog.CidKey, cid())
	log := srvlog.WithContext(ctx)
	if r.Method != "POST" {
		http.Error(w, "405 - method not allowed - use POST", http.StatusMethodNotAllowed)
		return
	}
	buf, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 32*1024*1024))
	if err != nil {
		http.Error(w, "400 - bad request - "+err.Error(), http.StatusBadRequest)
		return
	}

	defer func() {
		x := recover()
		if x == nil {
			return
		}
		serr, ok := x.(*sherpa.Error)
		if !ok {
			panic(x)
		}
		code := http.StatusBadRequest
		if strings.HasPrefix(serr.Code, "server:") {
			code = http.StatusInternalServerError
		}
		http.Error(w, fmt.Sprintf("%d - %s", code, serr.Message), code)
	}()

	q := r.URL.Query()
	result := api.Convert(ctx, string(buf), q.Get("schema"), q.Get("standalone") != "")
	log.Info("converted document", mlog.Field("entries", result.Entries), mlog.Field("degraded", result.Degraded))
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	io.WriteString(w, result.XML)
}

// renderIndex renders the README as the index page.
func renderIndex(md []byte) []byte {
	body := blackfriday.Run(md, blackfriday.WithExtensions(blackfriday.CommonExtensions))
	var b strings.Builder
	b.WriteString(`<!doctype html><html><head><meta charset="utf-8" /><title>refxml</title><style>body { max-width: 50em; margin: 1ex auto; padding: 0 1em; font-family: sans-serif; } pre, code { background-color: #eee; }</style></head><body>`)
	b.Write(body)
	b.WriteString(`</body></html>`)
	return []byte(b.String())
}
