package chat

import (
	"encoding/json"
	"os"
)

// ViewsConfig is the on-disk shape of a user's chat tab layout: a map of
// tab id to its configuration, plus which tab was last focused.
type ViewsConfig struct {
	Views     map[string]TabConfig `json:"views"`
	LastTabID *string              `json:"lastTabId,omitempty"`
}

// LoadViewsConfig reads a ViewsConfig from path. A missing file yields an
// empty configuration rather than an error, so a first run needs no
// pre-existing tab layout.
func LoadViewsConfig(path string) (ViewsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ViewsConfig{Views: map[string]TabConfig{}}, nil
		}
		return ViewsConfig{}, err
	}

	var cfg ViewsConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return ViewsConfig{}, err
	}
	if cfg.Views == nil {
		cfg.Views = map[string]TabConfig{}
	}
	return cfg, nil
}

// Save writes cfg to path as indented JSON.
func (cfg ViewsConfig) Save(path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Apply loads every configured view into f under its persisted id.
func (cfg ViewsConfig) Apply(f *Feature) {
	for id, tab := range cfg.Views {
		f.SetTab(id, tab)
	}
}
