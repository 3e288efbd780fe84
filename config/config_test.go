package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/ogm/convert"
	"github.com/syssam/ogm/metadata"
)

func TestDefault(t *testing.T) {
	t.Parallel()
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.Mapping.LoadDepth)
	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, metadata.InheritNearest, p)
}

func TestParse(t *testing.T) {
	t.Setenv("OGM_TEST_PASSWORD", "s3cret")
	cfg, err := Parse([]byte(`
neo4j:
  uri: bolt://db:7687
  password: ${OGM_TEST_PASSWORD}
  connection_timeout: 5s
mapping:
  load_depth: -1
  relationship_type_policy: simple_name
log:
  level: debug
  format: json
`))
	require.NoError(t, err)
	assert.Equal(t, "bolt://db:7687", cfg.Neo4j.URI)
	assert.Equal(t, "s3cret", cfg.Neo4j.Password)
	assert.Equal(t, "neo4j", cfg.Neo4j.Username, "unset keys keep their default")
	assert.Equal(t, 5*time.Second, cfg.Neo4j.ConnectionTimeout)
	assert.Equal(t, -1, cfg.Mapping.LoadDepth)
	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, metadata.SimpleName, p)
	reg, err := cfg.Registry(convert.NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, metadata.SimpleName, reg.Policy())

	var buf bytes.Buffer
	cfg.Logger(&buf).Debug("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"scheme", "neo4j:\n  uri: http://db\n", "unsupported scheme"},
		{"depth", "mapping:\n  load_depth: -2\n", "load_depth"},
		{"policy", "mapping:\n  relationship_type_policy: nearest\n", "relationship_type_policy"},
		{"level", "log:\n  level: loud\n", "log.level"},
		{"format", "log:\n  format: xml\n", "log.format"},
		{"syntax", "neo4j: [", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "ogm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  statements: true\n"), 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Log.Statements)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
