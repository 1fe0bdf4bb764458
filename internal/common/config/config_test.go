package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("CFGTEST_DB_HOST", "db.internal")
	t.Setenv("CFGTEST_DB_NAME", "market")
	t.Setenv("CFGTEST_KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("CFGTEST_JWT_ACCESS_TTL", "30m")

	v, err := Load("CFGTEST")
	require.NoError(t, err)

	db := LoadDatabaseConfig(v, "db_name")
	assert.Equal(t, "db.internal", db.Host)
	assert.Equal(t, "market", db.DBName)
	assert.Equal(t, "5432", db.Port)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, LoadKafkaConfig(v).Brokers)
	assert.Equal(t, 30*time.Minute, LoadJWTConfig(v).AccessTTL)
	assert.Equal(t, "development", GetAppEnv(v))
}

func TestGetServicePort(t *testing.T) {
	t.Setenv("CFGPORT_SERVICE_PORT", "9090")
	v, err := Load("CFGPORT")
	require.NoError(t, err)

	assert.Equal(t, ":9090", GetServicePort(v, "service_port"))
	assert.Equal(t, ":8080", GetServicePort(v, "missing_port"))
}
