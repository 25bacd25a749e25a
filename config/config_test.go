package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoad(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("load without file: %s", err)
	}
	if !reflect.DeepEqual(c, Defaults) {
		t.Fatalf("load without file changed defaults: %#v", c)
	}

	p := filepath.Join(t.TempDir(), "refxml.conf")
	data := "Schema: v3\nLibrary: /tmp/reflib.db\nPackageLogLevels:\n\treference: debug\n"
	if err := os.WriteFile(p, []byte(data), 0660); err != nil {
		t.Fatalf("writing config: %s", err)
	}
	c, err = Load(p)
	if err != nil {
		t.Fatalf("load: %s", err)
	}
	if c.Schema != "v3" || c.Library != "/tmp/reflib.db" || c.PackageLogLevels["reference"] != "debug" {
		t.Fatalf("unexpected config: %#v", c)
	}
	if c.IPR != Defaults.IPR {
		t.Fatalf("absent field did not keep default: %#v", c)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "absent.conf")); err == nil {
		t.Fatalf("load of missing file did not fail")
	}
}
