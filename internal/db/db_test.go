package db

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmehdipour/balance-batch/internal/config"
)

func TestNewMySQLConnectionRequiresDSN(t *testing.T) {
	_, err := NewMySQLConnection(config.DatabaseConfig{})
	assert.EqualError(t, err, "empty MySQL DSN")
}

func TestNewClickHouseConnectionRequiresDSN(t *testing.T) {
	_, err := NewClickHouseConnection(config.DatabaseConfig{})
	assert.EqualError(t, err, "empty ClickHouse DSN")
}

func TestNewClickHouseConnectionUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewClickHouseConnection(config.DatabaseConfig{
		DSN:         "clickhouse://default:@" + addr + "/default?dial_timeout=200ms",
		PingTimeout: time.Second,
	})
	assert.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := NewRedisClient(config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	assert.NoError(t, rdb.Close())
}

func TestNewRedisClientUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(config.RedisConfig{Addr: addr, DialTimeout: 200 * time.Millisecond})
	assert.Error(t, err)
}
