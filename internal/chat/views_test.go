package chat

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vahor/dofuscap/internal/subscribe"
)

func TestLoadViewsConfigMissingFileIsEmpty(t *testing.T) {
	cfg, err := LoadViewsConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Views)
}

func TestViewsConfigSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "views.json")

	cfg := ViewsConfig{
		Views: map[string]TabConfig{
			"tab-1": {
				Name:    "general",
				Options: TabOptions{KeepHistory: true},
				Filters: &FilterTree{Leaf: &FilterLeaf{Type: FilterChannel, Value: []byte("0")}},
				Order:   0,
			},
		},
	}
	require.NoError(t, cfg.Save(path))

	got, err := LoadViewsConfig(path)
	require.NoError(t, err)
	require.Contains(t, got.Views, "tab-1")
	assert.Equal(t, "general", got.Views["tab-1"].Name)
	assert.True(t, got.Views["tab-1"].Options.KeepHistory)
	require.NotNil(t, got.Views["tab-1"].Filters)
	assert.Equal(t, FilterChannel, got.Views["tab-1"].Filters.Leaf.Type)
}

func TestViewsConfigApplyActivatesSubscriptions(t *testing.T) {
	reg := loadFixtureRegistry(t)
	subsReg := subscribe.New(zap.NewNop())
	f := New(subsReg, reg, func(string, Event) {})

	cfg := ViewsConfig{Views: map[string]TabConfig{"tab-1": {Name: "general"}}}
	cfg.Apply(f)

	tabs := f.ListTabs()
	require.Contains(t, tabs, "tab-1")
	assert.True(t, subsReg.HasSubscriptions(1))
}
