package main

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"text2phenotype.com/kg/logger"
	"text2phenotype.com/kg/redis"
	"text2phenotype.com/kg/worker"
)

func TestReadWorkerConfig(t *testing.T) {
	t.Setenv("KG_INPUT_DIR", "from-env")
	t.Setenv("KG_WORKERS", "2")

	config, err := readWorkerConfig(flags{output: "out", configPath: "run.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "from-env", config.InputDir)
	assert.Equal(t, "out", config.OutputDir)
	assert.Equal(t, 2, config.Workers)
	assert.Equal(t, "run.yaml", config.ConfigPath)

	config, err = readWorkerConfig(flags{input: "in", workers: 6})
	require.NoError(t, err)
	assert.Equal(t, "in", config.InputDir)
	assert.Equal(t, 6, config.Workers)
}

func TestRootCommand(t *testing.T) {
	fdlLogger := logger.NewLogger("Test")
	root := newRootCommand(&fdlLogger)

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	assert.ElementsMatch(t, []string{"extract", "status"}, names)

	extract, _, err := root.Find([]string{"extract"})
	require.NoError(t, err)
	for _, flag := range []string{"input", "workers", "config", "annotations", "output"} {
		assert.NotNil(t, extract.Flag(flag), flag)
	}
}

func TestStatusNeedsRedis(t *testing.T) {
	t.Setenv("KG_REDIS_ENABLED", "false")
	fdlLogger := logger.NewLogger("Test")
	root := newRootCommand(&fdlLogger)
	root.SetArgs([]string{"status", "--output", t.TempDir()})

	assert.ErrorIs(t, root.Execute(), worker.ErrStatusUnavailable)
}

func TestExtractNeedsAnnotator(t *testing.T) {
	t.Setenv("KG_ANNOTATOR_URL", "")
	t.Setenv("KG_ANNOTATIONS_FILE", "")
	fdlLogger := logger.NewLogger("Test")
	root := newRootCommand(&fdlLogger)
	root.SetArgs([]string{"extract", "--input", t.TempDir(), "--output", t.TempDir()})

	assert.Error(t, root.Execute())
}

func setRedisEnv(t *testing.T, addr string) {
	t.Helper()
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	t.Setenv("KG_REDIS_ENABLED", "true")
	t.Setenv("KG_REDIS_HOST", host)
	t.Setenv("KG_REDIS_PORT", port)
	t.Setenv("KG_S3_ENABLED", "false")
	t.Setenv("KG_RMQ_ENABLED", "false")
}

func TestConnectClients(t *testing.T) {
	server := miniredis.RunT(t)
	setRedisEnv(t, server.Addr())
	fdlLogger := logger.NewLogger("Test")

	c, err := connectClients(context.Background(), &fdlLogger)
	require.NoError(t, err)
	require.NotNil(t, c.redis)
	assert.Nil(t, c.s3)
	assert.Nil(t, c.rmq)
	c.close(&fdlLogger)
}

func TestConnectClientsUnreachableRedis(t *testing.T) {
	server := miniredis.NewMiniRedis()
	require.NoError(t, server.Start())
	addr := server.Addr()
	server.Close()
	setRedisEnv(t, addr)
	fdlLogger := logger.NewLogger("Test")

	c, err := connectClients(context.Background(), &fdlLogger)
	assert.Error(t, err)
	assert.Nil(t, c)
}

func TestConnectClientsClosesOpenedClients(t *testing.T) {
	server := miniredis.RunT(t)
	setRedisEnv(t, server.Addr())
	t.Setenv("KG_S3_ENABLED", "true")
	t.Setenv("KG_S3_BUCKET", "")
	fdlLogger := logger.NewLogger("Test")

	c, err := connectClients(context.Background(), &fdlLogger)
	assert.Error(t, err)
	assert.Nil(t, c)
	assert.Eventually(t, func() bool {
		return server.CurrentConnectionCount() == 0
	}, time.Second, 10*time.Millisecond, "redis connection left open")
}

func TestClientsClose(t *testing.T) {
	server := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(server.Addr())
	require.NoError(t, err)
	client := redis.NewClient(redis.Config{Host: host, Port: port})
	require.NoError(t, client.Ping(context.Background()))

	fdlLogger := logger.NewLogger("Test")
	c := &clients{redis: client}
	c.close(&fdlLogger)
	assert.Error(t, client.Ping(context.Background()))
}
