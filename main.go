package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"

	"github.com/mjl-/sconf"

	"github.com/mjl-/refxml/config"
	"github.com/mjl-/refxml/mlog"
	"github.com/mjl-/refxml/refxmlvar"
)

var commands = []struct {
	cmd string
	fn  func(c *cmd)
}{
	{"convert", cmdConvert},
	{"parse", cmdParse},
	{"strip", cmdStrip},
	{"serve", cmdServe},

	{"lib add", cmdLibAdd},
	{"lib import", cmdLibImport},
	{"lib list", cmdLibList},
	{"lib lookup", cmdLibLookup},
	{"lib rm", cmdLibRemove},

	{"config test", cmdConfigTest},
	{"config describe", cmdConfigDescribe},
	{"config example", cmdConfigExample},

	{"version", cmdVersion},
	{"help", cmdHelp},

	// Not listed.
	{"helpall", cmdHelpall},
}

var cmds []cmd

func init() {
	for _, xc := range commands {
		c := cmd{words: strings.Split(xc.cmd, " "), fn: xc.fn}
		cmds = append(cmds, c)
	}
}

type cmd struct {
	words []string
	fn    func(c *cmd)

	// Set before calling command.
	flag     *flag.FlagSet
	flagArgs []string
	_gather  bool // Set when using Parse to gather usage for a command.

	// Set by invoked command or Parse.
	unlisted bool   // If set, command is not listed until at least some words are matched from command.
	params   string // Arguments to command. Multiple lines possible.
	help     string // Additional explanation. First line is synopsis, the rest is only printed for an explicit help/usage for that command.
	args     []string

	log *mlog.Log
}

func (c *cmd) Parse() []string {
	// To gather params and usage information, we just run the command but cause this
	// panic after the command has registered its flags and set its params and help
	// information. This is then caught and that info printed.
	if c._gather {
		panic("gather")
	}

	c.flag.Usage = c.Usage
	c.flag.Parse(c.flagArgs)
	c.args = c.flag.Args()
	return c.args
}

func (c *cmd) gather() {
	c.flag = flag.NewFlagSet("refxml "+strings.Join(c.words, " "), flag.ExitOnError)
	c._gather = true
	defer func() {
		x := recover()
		// panic generated by Parse.
		if x != "gather" {
			panic(x)
		}
	}()
	c.fn(c)
}

func (c *cmd) makeUsage() string {
	var r strings.Builder
	cs := "refxml " + strings.Join(c.words, " ")
	for i, line := range strings.Split(strings.TrimSpace(c.params), "\n") {
		s := ""
		if i == 0 {
			s = "usage:"
		}
		if line != "" {
			line = " " + line
		}
		fmt.Fprintf(&r, "%6s %s%s\n", s, cs, line)
	}
	c.flag.SetOutput(&r)
	c.flag.PrintDefaults()
	return r.String()
}

func (c *cmd) printUsage() {
	fmt.Fprint(os.Stderr, c.makeUsage())
	if c.help != "" {
		fmt.Fprint(os.Stderr, "\n"+c.help+"\n")
	}
}

func (c *cmd) Usage() {
	c.printUsage()
	os.Exit(2)
}

func cmdHelp(c *cmd) {
	c.params = "[command ...]"
	c.help = `Prints help about matching commands.

If multiple commands match, they are listed along with the first line of their help text.
If a single command matches, its usage and full help text is printed.
`
	args := c.Parse()
	if len(args) == 0 {
		c.Usage()
	}

	prefix := func(l, pre []string) bool {
		if len(pre) > len(l) {
			return false
		}
		return slices.Equal(pre, l[:len(pre)])
	}

	var partial []cmd
	for _, c := range cmds {
		if slices.Equal(c.words, args) {
			c.gather()
			fmt.Print(c.makeUsage())
			if c.help != "" {
				fmt.Print("\n" + c.help + "\n")
			}
			return
		} else if prefix(c.words, args) {
			partial = append(partial, c)
		}
	}
	if len(partial) == 0 {
		fmt.Fprintf(os.Stderr, "%s: unknown command\n", strings.Join(args, " "))
		os.Exit(2)
	}
	for _, c := range partial {
		c.gather()
		line := "refxml " + strings.Join(c.words, " ")
		fmt.Printf("%s\n", line)
		if c.help != "" {
			fmt.Printf("\t%s\n", strings.Split(c.help, "\n")[0])
		}
	}
}

func cmdHelpall(c *cmd) {
	c.unlisted = true
	c.help = `Print all detailed usage and help information for all listed commands.

Used to generate documentation.
`
	args := c.Parse()
	if len(args) != 0 {
		c.Usage()
	}

	n := 0
	for _, c := range cmds {
		c.gather()
		if c.unlisted {
			continue
		}
		if n > 0 {
			fmt.Fprintf(os.Stderr, "\n")
		}
		n++

		fmt.Fprintf(os.Stderr, "# refxml %s\n\n", strings.Join(c.words, " "))
		if c.help != "" {
			fmt.Fprintln(os.Stderr, c.help+"\n")
		}
		fmt.Fprintln(os.Stderr, c.makeUsage())
	}
}

func usage(l []cmd, unlisted bool) {
	var lines []string
	if !unlisted {
		lines = append(lines, "refxml [-config refxml.conf] [-loglevel level] ...")
	}
	for _, c := range l {
		c.gather()
		if c.unlisted && !unlisted {
			continue
		}
		for _, line := range strings.Split(c.params, "\n") {
			x := append([]string{"refxml"}, c.words...)
			if line != "" {
				x = append(x, line)
			}
			lines = append(lines, strings.Join(x, " "))
		}
	}
	for i, line := range lines {
		pre := "       "
		if i == 0 {
			pre = "usage: "
		}
		fmt.Fprintln(os.Stderr, pre+line)
	}
	os.Exit(2)
}

var (
	configPath string
	loglevel   string
	conf       config.Config
)

// loadConfig reads the configuration file and applies the log levels, with
// the command-line -loglevel overriding the file.
func loadConfig() {
	path := configPath
	if path == "" {
		path = config.FindPath()
	}
	var err error
	conf, err = config.Load(path)
	xcheckf(err, "loading config")

	levels := map[string]mlog.Level{}
	xlevel := func(what, s string) mlog.Level {
		level, ok := mlog.Levels[s]
		if !ok {
			log.Fatalf("unknown %s %q", what, s)
		}
		return level
	}
	ll := conf.LogLevel
	if loglevel != "" {
		ll = loglevel
	}
	if ll == "" {
		ll = "warn"
	}
	levels[""] = xlevel("loglevel", ll)
	for pkg, s := range conf.PackageLogLevels {
		levels[pkg] = xlevel("package loglevel", s)
	}
	mlog.SetConfig(levels)
}

func main() {
	log.SetFlags(0)

	flag.StringVar(&configPath, "config", envString("REFXMLCONF", ""), "configuration file, defaults to $REFXMLCONF with a fallback to refxml.conf in ., $HOME or /etc")
	flag.StringVar(&loglevel, "loglevel", "", "if non-empty, overrides the log level from the configuration file")
	flag.BoolVar(&mlog.Logfmt, "logfmt", false, "write logging in logfmt style instead of readable lines")

	var cpuprofile, memprofile string
	flag.StringVar(&cpuprofile, "cpuprof", "", "store cpu profile to file")
	flag.StringVar(&memprofile, "memprof", "", "store mem profile to file")

	flag.Usage = func() { usage(cmds, false) }
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage(cmds, false)
	}

	defer profile(cpuprofile, memprofile)()

	loadConfig()

	var partial []cmd
next:
	for _, c := range cmds {
		for i, w := range c.words {
			if i >= len(args) || w != args[i] {
				if i > 0 {
					partial = append(partial, c)
				}
				continue next
			}
		}
		c.flag = flag.NewFlagSet("refxml "+strings.Join(c.words, " "), flag.ExitOnError)
		c.flagArgs = args[len(c.words):]
		c.log = mlog.New(strings.Join(c.words, ""))
		c.fn(&c)
		return
	}
	if len(partial) > 0 {
		usage(partial, true)
	}
	usage(cmds, false)
}

func envString(k, def string) string {
	s := os.Getenv(k)
	if s == "" {
		return def
	}
	return s
}

func xcheckf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	log.Fatalf("%s: %s", msg, err)
}

func cmdVersion(c *cmd) {
	c.help = "Prints this refxml version."
	if len(c.Parse()) != 0 {
		c.Usage()
	}
	fmt.Println(refxmlvar.Version)
}

func cmdConfigTest(c *cmd) {
	c.help = `Parses the configuration file and reports any errors.`
	if len(c.Parse()) != 0 {
		c.Usage()
	}
	path := configPath
	if path == "" {
		path = config.FindPath()
	}
	if path == "" {
		log.Fatalf("no configuration file found")
	}
	_, err := config.Load(path)
	xcheckf(err, "checking %s", path)
	fmt.Printf("%s: OK\n", path)
}

func cmdConfigDescribe(c *cmd) {
	c.help = `Prints the current configuration with documentation for each field.`
	if len(c.Parse()) != 0 {
		c.Usage()
	}
	err := sconf.Describe(os.Stdout, &conf)
	xcheckf(err, "describing config")
}

func cmdConfigExample(c *cmd) {
	c.help = `Prints an example configuration file with the default values.`
	if len(c.Parse()) != 0 {
		c.Usage()
	}
	ex := config.Defaults
	ex.PackageLogLevels = map[string]string{"reference": "info"}
	ex.Library = "/var/lib/refxml/reflib.db"
	err := sconf.Describe(os.Stdout, &ex)
	xcheckf(err, "writing example config")
}
