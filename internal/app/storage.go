package app

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	appLog "github.com/klabast/wb-services/lineup-planner/internal/log"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

// fetchTimeout bounds catalog downloads
const fetchTimeout = 15 * time.Second

// DefaultCatalog returns the built-in demo lineup
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalogYAML(defaultCatalogYAML)
}

// LoadCatalog reads the lineup from source: a YAML file, an .ics file, or an
// http(s) URL to either. An empty source selects the built-in lineup.
// loc is the festival timezone used when importing calendars.
//
// A catalog without people (every .ics import) gets roster, or the built-in
// roster when roster is empty, so marks can always be recorded.
func LoadCatalog(ctx context.Context, source string, loc *time.Location, roster []Person) (*Catalog, error) {
	if source == "" {
		appLog.Info("using built-in catalog")
		cat, err := DefaultCatalog()
		if err != nil {
			return nil, err
		}
		if err := cat.fillRoster(roster); err != nil {
			return nil, err
		}
		return cat, nil
	}

	data, err := readSource(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", source, err)
	}

	var cat *Catalog
	if isICSSource(source) {
		cat, err = ImportICSCatalog(bytes.NewReader(data), loc)
	} else {
		cat, err = ParseCatalogYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", source, err)
	}
	if err := cat.fillRoster(roster); err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", source, err)
	}

	appLog.Info("catalog loaded", "source", source, "days", len(cat.Days), "people", len(cat.People))
	return cat, nil
}

// ParseCatalogYAML decodes and validates a YAML catalog
func ParseCatalogYAML(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// fillRoster gives a catalog without people the configured roster, or the
// built-in one when nothing is configured
func (c *Catalog) fillRoster(roster []Person) error {
	if len(c.People) > 0 {
		return nil
	}
	if len(roster) == 0 {
		builtin, err := DefaultCatalog()
		if err != nil {
			return err
		}
		roster = builtin.People
		appLog.Info("catalog has no people, using built-in roster", "people", len(roster))
	}
	c.People = append([]Person(nil), roster...)
	return c.Validate()
}

func isICSSource(source string) bool {
	p := source
	if isURL(source) {
		p = strings.SplitN(source, "?", 2)[0]
	}
	return strings.EqualFold(path.Ext(p), ".ics")
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func readSource(ctx context.Context, source string) ([]byte, error) {
	if !isURL(source) {
		return os.ReadFile(source)
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			appLog.Error("closing catalog response", err, "source", source)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
