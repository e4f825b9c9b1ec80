package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	Token string `yaml:"token"`
}

func (s *sample) Validate() error {
	if s.Port == 0 {
		return errors.New("port is required")
	}
	return nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestExpand(t *testing.T) {
	t.Setenv("CFG_SET", "value")
	t.Setenv("CFG_EMPTY", "")

	assert.Equal(t, "value", Expand("${CFG_SET}"))
	assert.Equal(t, "value", Expand("${CFG_SET:-other}"))
	assert.Equal(t, "other", Expand("${CFG_EMPTY:-other}"))
	assert.Equal(t, "8080", Expand("${CFG_MISSING:-8080}"))
	assert.Equal(t, "", Expand("${CFG_MISSING}"))
}

func TestLoad_KeepsDefaults(t *testing.T) {
	t.Setenv("CFG_TOKEN", "secret")
	path := writeFile(t, "name: app\ntoken: ${CFG_TOKEN}\n")

	s := sample{Port: 8080}
	require.NoError(t, Load(path, &s))
	assert.Equal(t, sample{Name: "app", Port: 8080, Token: "secret"}, s)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "name: app\nprot: 1\n")
	err := Load(path, &sample{Port: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeFile(t, "")
	s := sample{Port: 1}
	require.NoError(t, Load(path, &s))
	assert.Equal(t, 1, s.Port)
}

func TestLoad_Validates(t *testing.T) {
	path := writeFile(t, "port: 0\n")
	err := Load(path, &sample{Port: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestLoadOptional(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	s := sample{Port: 9000}
	require.NoError(t, LoadOptional(missing, &s))
	assert.Equal(t, 9000, s.Port)

	assert.Error(t, LoadOptional(missing, &sample{}))

	_, err := os.Stat(missing)
	assert.True(t, os.IsNotExist(err))
	assert.Error(t, Load(missing, &sample{Port: 1}))
}
