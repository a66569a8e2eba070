package config

import (
	"os"
	"path/filepath"
	"testing"

	e "github.com/gartstein/cafexport/internal/export/errors"
	"github.com/gartstein/cafexport/internal/export/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
GRPC_PORT: 50051
HTTP_PORT: 8080
DB_HOST: db
DB_PORT: 5432
DB_USER: export
DB_PASSWORD: from-file
DB_NAME: cafexport
DB_SSLMODE: disable
KAFKA_BROKERS:
  - kafka-1:9092
  - kafka-2:9092
TOPIC: export-events
EVENTS_GROUP_ID: watcher
JWT_SECRET: file-secret
ACTIVE_COMPANY: delta
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ACTIVE_COMPANY", "")

	cfg, err := LoadFile(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 50051, cfg.GRPCPort)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "watcher", cfg.EventsGroupID)
	assert.Equal(t, "from-file", cfg.DBPassword)
	assert.Equal(t, "file-secret", cfg.JWTSecret)

	company, err := cfg.Company()
	require.NoError(t, err)
	assert.Equal(t, models.CompanyDelta, company)

	dbc := cfg.Database()
	assert.Equal(t, "db", dbc.Host)
	assert.Equal(t, 5432, dbc.Port)
	assert.Equal(t, "from-file", dbc.Password)
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	t.Setenv("DB_PASSWORD", "env-password")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("ACTIVE_COMPANY", "Pacifico")

	cfg, err := LoadFile(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "env-password", cfg.DBPassword)
	assert.Equal(t, "env-secret", cfg.JWTSecret)
	company, err := cfg.Company()
	require.NoError(t, err)
	assert.Equal(t, models.CompanyPacifico, company)
}

func TestLoadFile_Errors(t *testing.T) {
	t.Setenv("ACTIVE_COMPANY", "")

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadFile(writeConfig(t, "HTTP_PORT: [not a port"))
	assert.Error(t, err)

	_, err = LoadFile(writeConfig(t, "ACTIVE_COMPANY: gamma\n"))
	assert.ErrorIs(t, err, e.ErrInvalidInput)
}

func TestCompany_Unset(t *testing.T) {
	cfg := &Config{}
	_, err := cfg.Company()
	assert.ErrorIs(t, err, e.ErrInvalidInput)
}

func TestLoad_UsesPathEnv(t *testing.T) {
	t.Setenv("ACTIVE_COMPANY", "")
	t.Setenv(PathEnv, writeConfig(t, "HTTP_PORT: 9999\n"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.HTTPPort)
}
