package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arkade-os/marketd/internal/core/application"
	"github.com/arkade-os/marketd/internal/core/ports"
	"github.com/arkade-os/marketd/internal/infrastructure/announcer"
	alertsmanager "github.com/arkade-os/marketd/internal/infrastructure/announcer/alertsmanager"
	nostrannouncer "github.com/arkade-os/marketd/internal/infrastructure/announcer/nostr"
	"github.com/arkade-os/marketd/internal/infrastructure/db"
	inmemorylivestore "github.com/arkade-os/marketd/internal/infrastructure/live-store/inmemory"
	redislivestore "github.com/arkade-os/marketd/internal/infrastructure/live-store/redis"
	marketlib "github.com/arkade-os/marketd/pkg/market-lib"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var (
	supportedEventDbs = supportedType{
		"badger":   {},
		"postgres": {},
	}
	supportedDbs = supportedType{
		"badger":   {},
		"sqlite":   {},
		"postgres": {},
	}
	supportedLiveStores = supportedType{
		"inmemory": {},
		"redis":    {},
	}
)

type Config struct {
	Datadir     string
	Port        uint32
	NoTLS       bool
	NoMacaroons bool
	LogLevel    int
	LogJSON     bool

	TLSExtraIPs     []string
	TLSExtraDomains []string

	DbType              string
	EventDbType         string
	DbDir               string
	DbUrl               string
	EventDbUrl          string
	EventDbDir          string
	LiveStoreType       string
	RedisUrl            string
	RedisTxNumOfRetries int

	ProgramID         string
	TxFee             uint64
	MinReserve        uint64
	RequestMaxAge     time.Duration
	HeartbeatInterval time.Duration

	OtelCollectorEndpoint string
	OtelPushInterval      int64

	NostrRelays     []string
	NostrPrivateKey string
	AlertManagerURL string

	repo      ports.RepoManager
	svc       application.Service
	liveStore ports.LiveStore
	announcer ports.Announcer
}

func (c *Config) String() string {
	clone := *c
	if clone.NostrPrivateKey != "" {
		clone.NostrPrivateKey = "••••••"
	}
	json, err := json.MarshalIndent(clone, "", "  ")
	if err != nil {
		return fmt.Sprintf("error while marshalling config JSON: %s", err)
	}
	return string(json)
}

var (
	DefaultDatadir             = appDataDir("marketd")
	DefaultPort                = 7080
	defaultDbType              = "badger"
	defaultEventDbType         = "badger"
	defaultLiveStoreType       = "inmemory"
	defaultRedisTxNumOfRetries = 10
	defaultLogLevel            = 4
	defaultNoMacaroons         = false
	defaultNoTLS               = true
	defaultRequestMaxAge       = 5 * time.Minute
	defaultHeartbeatInterval   = 60 * time.Second
	defaultOtelPushInterval    = 10 // seconds
)

// env returns a list of strings prefixed with `MARKETD_`.
// This is used as a syntax sugar for defining env vars.
func env(values ...string) []string {
	envs := make([]string, len(values))

	for i, value := range values {
		envs[i] = fmt.Sprintf("MARKETD_%s", value)
	}

	return envs
}

var (
	Datadir = &cli.StringFlag{
		Usage: "Directory to store data",
		Name:  "datadir", EnvVars: env("DATADIR"),
		Value: DefaultDatadir,
	}

	Port = &cli.UintFlag{
		Usage: "Port to listen on for both gRPC and REST",
		Name:  "port", EnvVars: env("PORT"),
		Value: uint(DefaultPort),
	}

	LogLevel = &cli.IntFlag{
		Usage: "Logging level (0-6, where 6 is trace)",
		Name:  "log-level", EnvVars: env("LOG_LEVEL"),
		Value: defaultLogLevel,
	}

	LogJSON = &cli.BoolFlag{
		Usage: "Log in JSON format",
		Name:  "log-json", EnvVars: env("LOG_JSON"),
	}

	DbType = &cli.StringFlag{
		Usage: "Database type (postgres, sqlite, badger)",
		Name:  "db-type", EnvVars: env("DB_TYPE"),
		Value: defaultDbType,
	}

	DbUrl = &cli.StringFlag{
		Usage: "Postgres connection url if MARKETD_DB_TYPE is set to postgres",
		Name:  "pg-db-url", EnvVars: env("PG_DB_URL"),
	}

	EventDbType = &cli.StringFlag{
		Usage: "Event database type (postgres, badger)",
		Name:  "event-db-type", EnvVars: env("EVENT_DB_TYPE"),
		Value: defaultEventDbType,
	}

	EventDbUrl = &cli.StringFlag{
		Usage: "Postgres connection url if MARKETD_EVENT_DB_TYPE is set to postgres",
		Name:  "pg-event-db-url", EnvVars: env("PG_EVENT_DB_URL"),
	}

	LiveStoreType = &cli.StringFlag{
		Usage: "Cache service type (redis, inmemory)",
		Name:  "live-store-type", EnvVars: env("LIVE_STORE_TYPE"),
		Value: defaultLiveStoreType,
	}

	RedisUrl = &cli.StringFlag{
		Usage: "Redis db connection url if MARKETD_LIVE_STORE_TYPE is set to redis",
		Name:  "redis-url", EnvVars: env("REDIS_URL"),
	}

	RedisTxNumOfRetries = &cli.IntFlag{
		Usage: "Maximum number of retries for Redis write operations in case of conflicts",
		Name:  "redis-num-of-retries", EnvVars: env("REDIS_NUM_OF_RETRIES"),
		Value: defaultRedisTxNumOfRetries,
	}

	ProgramID = &cli.StringFlag{
		Usage: "Program id used to derive marketplace and service addresses",
		Name:  "program-id", EnvVars: env("PROGRAM_ID"),
		Value: marketlib.DefaultProgramID,
	}

	TxFee = &cli.Uint64Flag{
		Usage: "Fee in lamports charged to the fee payer of every state changing request",
		Name:  "tx-fee", EnvVars: env("TX_FEE"),
	}

	MinReserve = &cli.Uint64Flag{
		Usage: "Minimum balance in lamports an account must keep unless emptied",
		Name:  "min-reserve", EnvVars: env("MIN_RESERVE"),
	}

	RequestMaxAge = &cli.DurationFlag{
		Usage: "Max validity window of a signed request",
		Name:  "request-max-age", EnvVars: env("REQUEST_MAX_AGE"),
		Value: defaultRequestMaxAge,
	}

	HeartbeatInterval = &cli.DurationFlag{
		Usage: "Interval between heartbeats sent on idle event streams",
		Name:  "heartbeat-interval", EnvVars: env("HEARTBEAT_INTERVAL"),
		Value: defaultHeartbeatInterval,
	}

	NoMacaroons = &cli.BoolFlag{
		Usage: "Disable macaroon authentication",
		Name:  "no-macaroons", EnvVars: env("NO_MACAROONS"),
		Value: defaultNoMacaroons,
	}

	NoTLS = &cli.BoolFlag{
		Usage: "Disable TLS",
		Name:  "no-tls", EnvVars: env("NO_TLS"),
		Value: defaultNoTLS,
	}

	TLSExtraIP = &cli.StringSliceFlag{
		Usage: "Extra IP addresses for the TLS certificate",
		Name:  "tls-extra-ip", EnvVars: env("TLS_EXTRA_IP"),
	}

	TLSExtraDomain = &cli.StringSliceFlag{
		Usage: "Extra domains for the TLS certificate",
		Name:  "tls-extra-domain", EnvVars: env("TLS_EXTRA_DOMAIN"),
	}

	OtelCollectorEndpoint = &cli.StringFlag{
		Usage: "OpenTelemetry collector endpoint",
		Name:  "collector-endpoint", EnvVars: env("COLLECTOR_ENDPOINT"),
	}

	OtelPushInterval = &cli.Int64Flag{
		Usage: "OpenTelemetry push interval in seconds",
		Name:  "otel-push-interval", EnvVars: env("OTEL_PUSH_INTERVAL"),
		Value: int64(defaultOtelPushInterval),
	}

	NostrRelays = &cli.StringSliceFlag{
		Usage: "Nostr relays where new listings are announced",
		Name:  "nostr-relay", EnvVars: env("NOSTR_RELAYS"),
	}

	NostrPrivateKey = &cli.StringFlag{
		Usage: "Nostr private key (hex or nsec) signing the announcements, random if unset",
		Name:  "nostr-private-key", EnvVars: env("NOSTR_PRIVATE_KEY"),
	}

	AlertManagerURL = &cli.StringFlag{
		Usage: "Prometheus alert manager url where new listings are posted",
		Name:  "alert-manager-url", EnvVars: env("ALERT_MANAGER_URL"),
	}
)

var Flags = []cli.Flag{
	Datadir,
	Port,
	LogLevel,
	LogJSON,
	DbType,
	DbUrl,
	EventDbType,
	EventDbUrl,
	LiveStoreType,
	RedisUrl,
	RedisTxNumOfRetries,
	ProgramID,
	TxFee,
	MinReserve,
	RequestMaxAge,
	HeartbeatInterval,
	NoMacaroons,
	NoTLS,
	TLSExtraIP,
	TLSExtraDomain,
	OtelCollectorEndpoint,
	OtelPushInterval,
	NostrRelays,
	NostrPrivateKey,
	AlertManagerURL,
}

func LoadConfig(c *cli.Context) (*Config, error) {
	if err := initDatadir(c); err != nil {
		return nil, fmt.Errorf("failed to create datadir: %s", err)
	}

	dbPath := filepath.Join(c.String(Datadir.Name), "db")

	var eventDbUrl string
	if c.String(EventDbType.Name) == "postgres" {
		eventDbUrl = c.String(EventDbUrl.Name)
		if eventDbUrl == "" {
			return nil, fmt.Errorf("event db type set to 'postgres' but event db url is missing")
		}
	}

	var dbUrl string
	if c.String(DbType.Name) == "postgres" {
		dbUrl = c.String(DbUrl.Name)
		if dbUrl == "" {
			return nil, fmt.Errorf("db type set to 'postgres' but db url is missing")
		}
	}

	var redisUrl string
	if c.String(LiveStoreType.Name) == "redis" {
		redisUrl = c.String(RedisUrl.Name)
		if redisUrl == "" {
			return nil, fmt.Errorf("live store type set to 'redis' but redis url is missing")
		}
	}

	return &Config{
		Datadir:               c.String(Datadir.Name),
		Port:                  uint32(c.Uint(Port.Name)),
		NoTLS:                 c.Bool(NoTLS.Name),
		NoMacaroons:           c.Bool(NoMacaroons.Name),
		LogLevel:              c.Int(LogLevel.Name),
		LogJSON:               c.Bool(LogJSON.Name),
		TLSExtraIPs:           c.StringSlice(TLSExtraIP.Name),
		TLSExtraDomains:       c.StringSlice(TLSExtraDomain.Name),
		DbType:                c.String(DbType.Name),
		EventDbType:           c.String(EventDbType.Name),
		DbDir:                 dbPath,
		DbUrl:                 dbUrl,
		EventDbDir:            dbPath,
		EventDbUrl:            eventDbUrl,
		LiveStoreType:         c.String(LiveStoreType.Name),
		RedisUrl:              redisUrl,
		RedisTxNumOfRetries:   c.Int(RedisTxNumOfRetries.Name),
		ProgramID:             c.String(ProgramID.Name),
		TxFee:                 c.Uint64(TxFee.Name),
		MinReserve:            c.Uint64(MinReserve.Name),
		RequestMaxAge:         c.Duration(RequestMaxAge.Name),
		HeartbeatInterval:     c.Duration(HeartbeatInterval.Name),
		OtelCollectorEndpoint: c.String(OtelCollectorEndpoint.Name),
		OtelPushInterval:      c.Int64(OtelPushInterval.Name),
		NostrRelays:           c.StringSlice(NostrRelays.Name),
		NostrPrivateKey:       c.String(NostrPrivateKey.Name),
		AlertManagerURL:       c.String(AlertManagerURL.Name),
	}, nil
}

func initDatadir(c *cli.Context) error {
	datadir := c.String(Datadir.Name)
	return makeDirectoryIfNotExists(datadir)
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0o755)
	}
	return nil
}

func (c *Config) Validate() error {
	if !supportedEventDbs.supports(c.EventDbType) {
		return fmt.Errorf(
			"event db type not supported, please select one of: %s",
			supportedEventDbs,
		)
	}
	if !supportedDbs.supports(c.DbType) {
		return fmt.Errorf("db type not supported, please select one of: %s", supportedDbs)
	}
	if !supportedLiveStores.supports(c.LiveStoreType) {
		return fmt.Errorf(
			"live store type not supported, please select one of: %s", supportedLiveStores,
		)
	}
	if _, err := marketlib.ParseAddress(c.ProgramID); err != nil {
		return fmt.Errorf("invalid program id: %s", err)
	}
	if c.RequestMaxAge <= 0 {
		return fmt.Errorf("request max age must be greater than zero")
	}
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat interval must be greater than zero")
	}
	if err := c.liveStoreService(); err != nil {
		return err
	}
	if err := c.announcerService(); err != nil {
		return err
	}
	return nil
}

func (c *Config) AppService() (application.Service, error) {
	if c.svc == nil {
		if err := c.appService(); err != nil {
			return nil, err
		}
	}
	return c.svc, nil
}

func (c *Config) LiveStore() ports.LiveStore {
	return c.liveStore
}

func (c *Config) repoManager() error {
	var eventStoreConfig []interface{}
	var dataStoreConfig []interface{}
	logger := log.New()

	switch c.EventDbType {
	case "badger":
		eventStoreConfig = []interface{}{c.EventDbDir, logger}
	case "postgres":
		eventStoreConfig = []interface{}{c.EventDbUrl, true}
	default:
		return fmt.Errorf("unknown event db type")
	}

	switch c.DbType {
	case "badger":
		dataStoreConfig = []interface{}{c.DbDir, logger}
	case "sqlite":
		dataStoreConfig = []interface{}{c.DbDir}
	case "postgres":
		dataStoreConfig = []interface{}{c.DbUrl, true}
	default:
		return fmt.Errorf("unknown db type")
	}

	svc, err := db.NewService(db.ServiceConfig{
		EventStoreType:   c.EventDbType,
		DataStoreType:    c.DbType,
		EventStoreConfig: eventStoreConfig,
		DataStoreConfig:  dataStoreConfig,
	})
	if err != nil {
		return err
	}

	c.repo = svc
	return nil
}

func (c *Config) liveStoreService() error {
	var liveStoreSvc ports.LiveStore
	switch c.LiveStoreType {
	case "inmemory":
		liveStoreSvc = inmemorylivestore.NewLiveStore()
	case "redis":
		redisOpts, err := redis.ParseURL(c.RedisUrl)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(redisOpts)
		liveStoreSvc = redislivestore.NewLiveStore(rdb, c.RedisTxNumOfRetries)
	default:
		return fmt.Errorf("unknown liveStore type")
	}

	c.liveStore = liveStoreSvc
	return nil
}

func (c *Config) announcerService() error {
	announcers := make([]ports.Announcer, 0, 2)
	if len(c.NostrRelays) > 0 {
		svc, err := nostrannouncer.NewAnnouncer(c.NostrRelays, c.NostrPrivateKey)
		if err != nil {
			return fmt.Errorf("failed to create nostr announcer: %s", err)
		}
		announcers = append(announcers, svc)
	}
	if c.AlertManagerURL != "" {
		announcers = append(announcers, alertsmanager.NewAnnouncer(c.AlertManagerURL))
	}
	if len(announcers) == 0 {
		return nil
	}

	c.announcer = announcer.NewMultiAnnouncer(announcers...)
	return nil
}

func (c *Config) appService() error {
	if c.liveStore == nil {
		return fmt.Errorf("live store not set")
	}
	if err := c.repoManager(); err != nil {
		return err
	}

	svc, err := application.NewService(
		c.repo, c.liveStore, c.announcer, application.Config{
			ProgramID:  c.ProgramID,
			TxFee:      c.TxFee,
			MinReserve: c.MinReserve,
		},
	)
	if err != nil {
		return err
	}

	c.svc = svc
	return nil
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return strings.Join(types, " | ")
}

func (t supportedType) supports(typeStr string) bool {
	_, ok := t[typeStr]
	return ok
}
