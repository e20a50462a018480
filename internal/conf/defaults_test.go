package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// The template written on first run must stay valid YAML and agree with the
// viper defaults for the settings users change most often.
func TestDefaultConfigTemplate(t *testing.T) {
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(defaultConfigYAML()), &doc), "default config template is not valid YAML")

	webserver, ok := doc["webserver"].(map[string]any)
	require.True(t, ok, "template missing webserver section")
	assert.Equal(t, "8080", webserver["port"])

	database, ok := doc["database"].(map[string]any)
	require.True(t, ok, "template missing database section")
	sqlite, ok := database["sqlite"].(map[string]any)
	require.True(t, ok, "template missing database.sqlite section")
	assert.Equal(t, true, sqlite["enabled"])
	assert.Equal(t, "triage.db", sqlite["path"])

	search, ok := doc["search"].(map[string]any)
	require.True(t, ok, "template missing search section")
	assert.Equal(t, 25, search["pagesize"])

	simbad, ok := doc["simbad"].(map[string]any)
	require.True(t, ok, "template missing simbad section")
	assert.Contains(t, simbad["baseurl"], "simbad")
}
