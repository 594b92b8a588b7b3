package portal

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of portal definitions
type Loader struct {
	portalsDir string
}

func NewLoader(portalsDir string) *Loader {
	return &Loader{portalsDir: portalsDir}
}

// LoadAll loads all YAML portal definitions from the portals directory,
// keyed by portal id.
func (l *Loader) LoadAll() (map[string]*Portal, error) {
	portals := make(map[string]*Portal)

	if _, err := os.Stat(l.portalsDir); os.IsNotExist(err) {
		return portals, nil
	}

	files, err := filepath.Glob(filepath.Join(l.portalsDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}

	ymlFiles, err := filepath.Glob(filepath.Join(l.portalsDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		portal, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		if err := l.validate(portal); err != nil {
			return nil, fmt.Errorf("invalid portal definition %s: %w", file, err)
		}

		portals[portal.Info.ID] = portal
	}

	return portals, nil
}

// Load returns a single portal definition by id.
func (l *Loader) Load(id string) (*Portal, error) {
	portals, err := l.LoadAll()
	if err != nil {
		return nil, err
	}

	portal, ok := portals[id]
	if !ok {
		return nil, fmt.Errorf("portal definition %q not found in %s", id, l.portalsDir)
	}

	return portal, nil
}

func (l *Loader) loadFile(path string) (*Portal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var portal Portal
	if err := yaml.Unmarshal(data, &portal); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	l.setDefaults(&portal)

	return &portal, nil
}

func (l *Loader) setDefaults(portal *Portal) {
	if portal.Settings.NavigationTimeout == 0 {
		portal.Settings.NavigationTimeout = 30 // seconds
	}
	if portal.Settings.LoginTimeout == 0 {
		portal.Settings.LoginTimeout = 60
	}
	if portal.Settings.TableTimeout == 0 {
		portal.Settings.TableTimeout = 10
	}
	if portal.Settings.SettleDelay == 0 {
		portal.Settings.SettleDelay = 5
	}
	if portal.Selectors.HistoryRows == "" {
		portal.Selectors.HistoryRows = "table tbody tr"
	}
}

func (l *Loader) validate(portal *Portal) error {
	if portal.Info.ID == "" {
		return fmt.Errorf("portal id is required")
	}
	if portal.Info.LoginURL == "" {
		return fmt.Errorf("login_url is required")
	}
	if portal.Info.HistoryURL == "" {
		return fmt.Errorf("history_url is required")
	}
	if portal.Selectors.Username == "" || portal.Selectors.Password == "" {
		return fmt.Errorf("username and password selectors are required")
	}
	if portal.Selectors.Submit == "" {
		return fmt.Errorf("submit selector is required")
	}
	return nil
}
