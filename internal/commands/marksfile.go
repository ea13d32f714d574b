package commands

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/klabast/wb-services/lineup-planner/internal/app"
)

// markEntry is one line of a marks file:
//
//   - day: "Thursday, Sep 18, 2025"
//     band: Slayer
//     person: Lauren
type markEntry struct {
	Day    string `yaml:"day"`
	Band   string `yaml:"band"`
	Person string `yaml:"person"`
}

func readMarksFile(path string) ([]markEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []markEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse marks %s: %w", path, err)
	}
	return entries, nil
}

// replayMarks records entries in order on a fresh planner, then takes back
// the most recent undo marks. Undoing more than was recorded empties it.
func replayMarks(catalog *app.Catalog, entries []markEntry, undo int) (*app.Planner, error) {
	p := app.NewPlanner(catalog)
	for i, e := range entries {
		if _, err := p.Record(e.Day, e.Band, e.Person); err != nil {
			return nil, fmt.Errorf("mark %d: %w", i+1, err)
		}
	}
	for ; undo > 0; undo-- {
		if _, ok := p.Undo(); !ok {
			break
		}
	}
	return p, nil
}

func loadPlanner(catalog *app.Catalog, path string, undo int) (*app.Planner, error) {
	entries, err := readMarksFile(path)
	if err != nil {
		return nil, err
	}
	return replayMarks(catalog, entries, undo)
}
