// Package config holds the configuration of the refxml command, parsed from
// refxml.conf. All fields are optional: flags override the file, and the
// defaults are usable without any file at all.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mjl-/sconf"
)

// Config is the refxml.conf configuration. See the sconf-doc tags, or run
// "refxml config describe", for documentation of the fields.
type Config struct {
	LogLevel         string            `sconf:"optional" sconf-doc:"Default log level: error, warn, info or debug. Degraded reference entries are logged at level warn."`
	PackageLogLevels map[string]string `sconf:"optional" sconf-doc:"Overrides of log level per package, e.g. reference or draft."`
	Schema           string            `sconf:"optional" sconf-doc:"Default output schema: v2 for RFC 7749, v3 for RFC 7991."`
	IPR              string            `sconf:"optional" sconf-doc:"Default ipr attribute for standalone documents, e.g. trust200902. Document-level metadata, never derived from the references themselves."`
	Stream           string            `sconf:"optional" sconf-doc:"Default document stream for standalone documents: IETF, IAB, IRTF or independent."`
	Library          string            `sconf:"optional" sconf-doc:"Path to the citation library database. If set, conversions replace heuristically parsed entries with the library version for known anchors."`
	Listen           string            `sconf:"optional" sconf-doc:"Address for the HTTP API of refxml serve, e.g. localhost:8240."`
}

// Defaults are used for fields not present in the configuration file.
var Defaults = Config{
	LogLevel: "warn",
	Schema:   "v2",
	IPR:      "trust200902",
	Listen:   "localhost:8240",
}

// FindPath returns the first existing configuration file from the usual
// locations: ./refxml.conf, $HOME/.refxml.conf, /etc/refxml.conf. Empty if
// none exists.
func FindPath() string {
	paths := []string{"refxml.conf"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".refxml.conf"))
	}
	paths = append(paths, "/etc/refxml.conf")
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Load parses the configuration file at path into a Config starting from
// Defaults. An empty path means no file, just the defaults.
func Load(path string) (Config, error) {
	c := Defaults
	if path == "" {
		return c, nil
	}
	if err := sconf.ParseFile(path, &c); err != nil {
		return c, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return c, nil
}
