package config

import (
	"flag"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		datadir := t.TempDir()
		cfg, err := loadConfig(t, "--datadir", datadir)
		require.NoError(t, err)

		require.Equal(t, datadir, cfg.Datadir)
		require.Equal(t, uint32(DefaultPort), cfg.Port)
		require.Equal(t, "badger", cfg.DbType)
		require.Equal(t, "badger", cfg.EventDbType)
		require.Equal(t, filepath.Join(datadir, "db"), cfg.DbDir)
		require.Equal(t, "inmemory", cfg.LiveStoreType)
		require.Equal(t, defaultRequestMaxAge, cfg.RequestMaxAge)
		require.Equal(t, defaultHeartbeatInterval, cfg.HeartbeatInterval)
		require.True(t, cfg.NoTLS)
		require.Zero(t, cfg.TxFee)

		require.NoError(t, cfg.Validate())
		require.NotNil(t, cfg.LiveStore())
		require.Nil(t, cfg.announcer)

		svc, err := cfg.AppService()
		require.NoError(t, err)
		require.NotNil(t, svc)
		require.Nil(t, svc.Start())
		svc.Stop()
	})

	t.Run("env vars", func(t *testing.T) {
		t.Setenv("MARKETD_TX_FEE", "5000")
		t.Setenv("MARKETD_MIN_RESERVE", "890880")
		t.Setenv("MARKETD_HEARTBEAT_INTERVAL", "10s")

		cfg, err := loadConfig(
			t, "--datadir", t.TempDir(),
			"--nostr-relay", "wss://relay.damus.io", "--nostr-relay", "wss://nos.lol",
			"--nostr-private-key", "secret",
		)
		require.NoError(t, err)
		require.Equal(t, uint64(5000), cfg.TxFee)
		require.Equal(t, uint64(890880), cfg.MinReserve)
		require.Equal(t, 10*time.Second, cfg.HeartbeatInterval)
		require.Equal(t, []string{"wss://relay.damus.io", "wss://nos.lol"}, cfg.NostrRelays)
		require.NotContains(t, cfg.String(), "secret")
	})

	t.Run("invalid", func(t *testing.T) {
		fixtures := []struct {
			name string
			args []string
			err  string
		}{
			{"postgres without url", []string{"--db-type", "postgres"}, "db url is missing"},
			{
				"postgres events without url", []string{"--event-db-type", "postgres"},
				"event db url is missing",
			},
			{"redis without url", []string{"--live-store-type", "redis"}, "redis url is missing"},
		}
		for _, f := range fixtures {
			t.Run(f.name, func(t *testing.T) {
				args := append([]string{"--datadir", t.TempDir()}, f.args...)
				_, err := loadConfig(t, args...)
				require.ErrorContains(t, err, f.err)
			})
		}
	})
}

func TestValidate(t *testing.T) {
	fixtures := []struct {
		name   string
		mutate func(c *Config)
		err    string
	}{
		{"unknown db", func(c *Config) { c.DbType = "mysql" }, "db type not supported"},
		{"unknown event db", func(c *Config) { c.EventDbType = "sqlite" }, "event db type not supported"},
		{"unknown live store", func(c *Config) { c.LiveStoreType = "memcached" }, "live store type"},
		{"invalid program id", func(c *Config) { c.ProgramID = "invalid" }, "invalid program id"},
		{"zero max age", func(c *Config) { c.RequestMaxAge = 0 }, "request max age"},
		{"zero heartbeat", func(c *Config) { c.HeartbeatInterval = 0 }, "heartbeat interval"},
		{"invalid relay", func(c *Config) { c.NostrRelays = []string{"http://relay"} }, "nostr"},
	}
	for _, f := range fixtures {
		t.Run(f.name, func(t *testing.T) {
			cfg, err := loadConfig(t, "--datadir", t.TempDir())
			require.NoError(t, err)
			f.mutate(cfg)
			require.ErrorContains(t, cfg.Validate(), f.err)
		})
	}
}

func TestSupportedType(t *testing.T) {
	require.True(t, supportedDbs.supports("sqlite"))
	require.False(t, supportedEventDbs.supports("sqlite"))
	require.Len(t, strings.Split(supportedLiveStores.String(), " | "), 2)
}

func loadConfig(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range Flags {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return LoadConfig(cli.NewContext(cli.NewApp(), set, nil))
}
