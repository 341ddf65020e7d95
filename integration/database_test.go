//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startContainer starts a container and returns its host:port for the given port.
func startContainer(t *testing.T, req testcontainers.ContainerRequest, port string) (string, string) {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	mapped, err := c.MappedPort(ctx, nat.Port(port))
	require.NoError(t, err)
	return host, mapped.Port()
}

// runBackendSuite exercises the cache and history commands against one backend.
func runBackendSuite(t *testing.T, env []string) {
	t.Helper()
	dir := t.TempDir()
	writeFixtures(t, dir)
	env = append(env, "QMETRICS_RESULTS_PATH="+dir)

	_, err := runQmetrics(t, env, "cache", "clear")
	require.NoError(t, err)

	_, err = runQmetrics(t, env, "history", "clear")
	require.NoError(t, err)

	_, err = runQmetrics(t, env, "quality", "--project", "web-app")
	require.NoError(t, err)

	out, err := runQmetrics(t, env, "cache", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Connected: true")
	assert.Contains(t, out, "Total Entries: 1")

	out, err = runQmetrics(t, env, "history", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Runs: 1")
}

// TestQmetricsWithMySQL tests the qmetrics CLI with a MySQL backend.
func TestQmetricsWithMySQL(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "qmetrics",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}, "3306")

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/qmetrics?parseTime=true", host, port)
	runBackendSuite(t, []string{
		"QMETRICS_CACHE_BACKEND=mysql",
		"QMETRICS_CACHE_DB_CONNECT=" + connStr,
		"QMETRICS_HISTORY_BACKEND=mysql",
		"QMETRICS_HISTORY_DB_CONNECT=" + connStr,
	})
}

// TestQmetricsWithPostgres tests the qmetrics CLI with a PostgreSQL backend.
func TestQmetricsWithPostgres(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}, "5432")

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port)
	runBackendSuite(t, []string{
		"QMETRICS_CACHE_BACKEND=postgresql",
		"QMETRICS_CACHE_DB_CONNECT=" + connStr,
		"QMETRICS_HISTORY_BACKEND=postgresql",
		"QMETRICS_HISTORY_DB_CONNECT=" + connStr,
	})

	t.Run("results table", func(t *testing.T) {
		env := []string{"QMETRICS_RESULTS_BACKEND=postgresql", "QMETRICS_RESULTS_PATH=" + connStr}
		_, err := runQmetrics(t, env, "store", "migrate")
		require.NoError(t, err)

		out, err := runQmetrics(t, env, "store", "status")
		require.NoError(t, err)
		assert.Contains(t, out, "Total records: 0")
	})
}

// TestQmetricsWithRedis tests the snapshot cache on Redis with SQLite history.
func TestQmetricsWithRedis(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}, "6379")

	runBackendSuite(t, []string{
		"QMETRICS_CACHE_BACKEND=redis",
		"QMETRICS_CACHE_DB_CONNECT=" + fmt.Sprintf("redis://%s:%s/0", host, port),
		"QMETRICS_HISTORY_BACKEND=sqlite",
		"QMETRICS_HISTORY_DB_CONNECT=" + t.TempDir() + "/history.db",
	})
}
