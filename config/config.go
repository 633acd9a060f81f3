// Package config loads the client's configuration from flags, environment
// variables, and defaults into one immutable value (spec §9: "shared
// mutable configuration object" is a source pattern to avoid — replace with
// an immutable Config passed at construction; the only field that may
// legitimately change after construction, the auditor key override, gets
// its own explicit rotation path rather than being re-opened for writes).
//
// Grounded on the teacher's cmd/davinci-sequencer/config.go: pflag flags
// registered once, bound into a viper instance, environment variables read
// under a single prefix, unmarshaled into a typed struct via mapstructure
// tags.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/moveguard/confidential-core/group"
	"github.com/moveguard/confidential-core/wire"
)

const (
	envPrefix = "CACLIENT"

	defaultDatadir     = ".caclient" // prefixed with the user's home directory
	defaultHotCacheLen = 256
	defaultLogLevel    = "info"
	defaultLogOutput   = "stdout"
	defaultRPCTimeout  = 15 * time.Second
)

// RPCConfig holds the chain RPC collaborator's connection details (spec
// §6.4: endpoint URLs and credentials are passed in at construction time,
// never read from process-global state by the orchestrator or rpc
// package).
type RPCConfig struct {
	Endpoints []string      `mapstructure:"endpoints"`
	Timeout   time.Duration `mapstructure:"timeout"`
	APIKey    string        `mapstructure:"apiKey"`
}

// CacheConfig holds the local persistent cache's settings (SPEC_FULL §4.10).
type CacheConfig struct {
	Dir         string `mapstructure:"dir"`
	HotCacheLen int    `mapstructure:"hotCacheLen"`
}

// LogConfig mirrors the teacher's log.Init(level, output) parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Output string `mapstructure:"output"`
}

// Config is the client's complete, immutable configuration. Build one with
// Load and pass it by value to every constructor that needs it; nothing in
// this module holds a pointer to a process-global Config.
type Config struct {
	RPC     RPCConfig   `mapstructure:"rpc"`
	Cache   CacheConfig `mapstructure:"cache"`
	Log     LogConfig   `mapstructure:"log"`
	Account string      `mapstructure:"account"`

	// auditorKey is the token-auditor encryption key override used when the
	// chain does not publish one (or for local testing). It is unexported:
	// the only way to change it after construction is WithAuditorKey, which
	// returns a new Config rather than mutating this one.
	auditorKey    group.Point
	hasAuditorKey bool
}

// AuditorKey returns the configured auditor key override, if any.
func (c Config) AuditorKey() (group.Point, bool) {
	return c.auditorKey, c.hasAuditorKey
}

// WithAuditorKey returns a copy of c with its auditor key override set to
// key. This is the one sanctioned path for changing auditor-key state
// after construction (spec §9): it never mutates c, so callers holding the
// original value are unaffected.
func (c Config) WithAuditorKey(key group.Point) Config {
	c.auditorKey = key
	c.hasAuditorKey = true
	return c
}

// Load registers flags on flag.CommandLine, parses them, binds them into a
// fresh viper instance alongside CACLIENT_-prefixed environment variables,
// and unmarshals the result into a Config. Call it once, at process start.
func Load() (Config, error) {
	v := viper.New()

	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		userHomeDir = "."
	}
	defaultDatadirPath := filepath.Join(userHomeDir, defaultDatadir)

	v.SetDefault("rpc.endpoints", []string{})
	v.SetDefault("rpc.timeout", defaultRPCTimeout)
	v.SetDefault("cache.dir", defaultDatadirPath)
	v.SetDefault("cache.hotCacheLen", defaultHotCacheLen)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.output", defaultLogOutput)

	flag.StringSliceP("rpc.endpoints", "r", []string{}, "chain RPC endpoint(s), comma-separated")
	flag.Duration("rpc.timeout", defaultRPCTimeout, "chain RPC call timeout")
	flag.String("rpc.apiKey", "", "chain RPC API key, if required")
	flag.StringP("cache.dir", "d", defaultDatadirPath, "local balance-cache directory")
	flag.Int("cache.hotCacheLen", defaultHotCacheLen, "in-memory hot cache entry capacity")
	flag.StringP("log.level", "l", defaultLogLevel, "log level (debug, info, warn, error, fatal)")
	flag.StringP("log.output", "o", defaultLogOutput, "log output (stdout, stderr or filepath)")
	flag.StringP("account", "a", "", "account address this client operates as")
	flag.String("auditorKey", "", "hex-encoded auditor encryption key override")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: caclient [flags] <command> [args]\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment variables are also available with the same name as flags,\n")
		fmt.Fprintf(os.Stderr, "  prefixed with %s_ and with dots replaced by underscores.\n", envPrefix)
		fmt.Fprintf(os.Stderr, "  For example, %s_RPC_ENDPOINTS or %s_ACCOUNT.\n", envPrefix, envPrefix)
	}

	flag.CommandLine.SortFlags = false
	flag.Parse()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flag.CommandLine); err != nil {
		return Config{}, fmt.Errorf("config: bind flags: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	if auditorHex := v.GetString("auditorKey"); auditorHex != "" {
		key, err := parseAuditorKeyHex(auditorHex)
		if err != nil {
			return Config{}, fmt.Errorf("config: auditorKey: %w", err)
		}
		cfg = cfg.WithAuditorKey(key)
	}

	return cfg, Validate(cfg)
}

// Validate checks the loaded configuration for obviously unusable values.
func Validate(cfg Config) error {
	if len(cfg.RPC.Endpoints) == 0 {
		return fmt.Errorf("config: at least one rpc.endpoints entry is required")
	}
	if cfg.Account == "" {
		return fmt.Errorf("config: account is required")
	}
	if cfg.Cache.HotCacheLen <= 0 {
		return fmt.Errorf("config: cache.hotCacheLen must be positive")
	}
	return nil
}

func parseAuditorKeyHex(s string) (group.Point, error) {
	buf, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return group.Point{}, fmt.Errorf("invalid hex: %w", err)
	}
	return wire.UnmarshalPoint(buf)
}
