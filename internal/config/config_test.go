package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "lineup-planner.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Timezone != DefaultTimezone {
		t.Errorf("Timezone = %q, want %q", cfg.Timezone, DefaultTimezone)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config was not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config permissions = %o, want 600", perm)
	}
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	content := "listen: 0.0.0.0:9000\ncatalog: lineup.yaml\nevent_minutes: 0\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Listen != "0.0.0.0:9000" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.Catalog != "lineup.yaml" {
		t.Errorf("Catalog = %q", cfg.Catalog)
	}
	if cfg.EventMinutes != DefaultEventMinutes {
		t.Errorf("EventMinutes = %d, want default %d", cfg.EventMinutes, DefaultEventMinutes)
	}
	if cfg.ExportPrefix != DefaultExportPrefix {
		t.Errorf("ExportPrefix = %q", cfg.ExportPrefix)
	}
	if cfg.LocationPlaceholder != "TBD" {
		t.Errorf("LocationPlaceholder = %q", cfg.LocationPlaceholder)
	}
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("listen: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	cfg := DefaultConfig()
	cfg.Timezone = "Europe/Berlin"
	cfg.ExportPrefix = "ltl"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded.Timezone != "Europe/Berlin" || loaded.ExportPrefix != "ltl" {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestLocation(t *testing.T) {
	cfg := DefaultConfig()
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location() failed: %v", err)
	}
	if loc.String() != DefaultTimezone {
		t.Errorf("Location() = %s", loc)
	}

	cfg.Timezone = "Mars/Olympus_Mons"
	if _, err := cfg.Location(); err == nil {
		t.Error("expected error for unknown zone")
	}
}

func TestLoadPeople(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.yaml")
	content := "people:\n  - name: Sam\n    color: \"#111111\"\n  - name: Alex\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(cfg.People) != 2 || cfg.People[0].Name != "Sam" || cfg.People[0].Color != "#111111" || cfg.People[1].Name != "Alex" {
		t.Errorf("People = %+v", cfg.People)
	}
}
