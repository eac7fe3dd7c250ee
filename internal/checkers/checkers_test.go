package checkers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/CosmoTheDev/ctrlreport/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMap(t *testing.T) {
	m, err := Default()
	require.NoError(t, err)
	require.Greater(t, m.Len(), 10)

	assert.Equal(t, models.SeverityHigh, m.Severity("core.DivideZero"))
	assert.Equal(t, models.SeverityStyle, m.Severity("modernize-use-nullptr"))
	assert.Equal(t, models.SeverityCritical, m.Severity("security.insecureAPI.gets"))
	assert.Equal(t, models.SeverityUnspecified, m.Severity("not.a.checker"))
}

func TestParseLabelsShape(t *testing.T) {
	m, err := Parse([]byte(`{"analyzer":"clang-tidy","labels":{"a":["profile:x","severity:Low"],"b":["severity:urgent"],"c":["profile:y"]}}`))
	require.NoError(t, err)

	assert.Equal(t, 1, m.Len())
	assert.Equal(t, models.SeverityLow, m.Severity("a"))

	_, ok := m.Lookup("b")
	assert.False(t, ok, "unknown severity labels are skipped")
	_, ok = m.Lookup("c")
	assert.False(t, ok)
}

func TestParseFlatShape(t *testing.T) {
	m, err := Parse([]byte("alpha: critical\nbeta: STYLE\ngamma: nope\n"))
	require.NoError(t, err)

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, models.SeverityCritical, m.Severity("alpha"))
	assert.Equal(t, models.SeverityStyle, m.Severity("beta"))
}

func TestParseRejectsMalformedEntries(t *testing.T) {
	_, err := Parse([]byte("labels:\n  a: severity:HIGH\n"))
	require.Error(t, err)

	_, err = Parse([]byte("a: [1, 2]\n"))
	require.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.yml")
	require.NoError(t, os.WriteFile(path, []byte("labels:\n  x.y: [severity:MEDIUM]\n"), 0o600))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, models.SeverityMedium, m.Severity("x.y"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}

func TestNilMap(t *testing.T) {
	var m *Map
	assert.Equal(t, models.SeverityUnspecified, m.Severity("anything"))
	assert.Zero(t, m.Len())
}
