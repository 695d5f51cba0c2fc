package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/benny2744/capstone-status/internal/cache"
	"github.com/benny2744/capstone-status/internal/decoder"
)

const (
	// Mode constants
	ModeBatch = "batch"
	ModeStdio = "stdio"

	// Default values
	DefaultLogLevel     = "info"
	DefaultMaxFileSize  = 100 * 1024 * 1024 // 100MB
	DefaultPattern      = "*.pdf"
	DefaultOutputName   = "course_data.json"
	DefaultDefaultGrade = 3
	DefaultRedisTTL     = 7 * 24 * time.Hour

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "GRADES"
)

// DecoderConfig is the scale geometry, usually tuned from a YAML file
type DecoderConfig struct {
	Slots       []decoder.Slot `mapstructure:"slots"`
	AnchorLabel string         `mapstructure:"anchor_label"`
	AnchorAbove float64        `mapstructure:"anchor_above"`
	AnchorBelow float64        `mapstructure:"anchor_below"`
	FixedMin    float64        `mapstructure:"fixed_min"`
	FixedMax    float64        `mapstructure:"fixed_max"`
}

// Config holds all configuration for the grade extractor
type Config struct {
	// Run configuration
	Mode       string // "batch" or "stdio"
	ConfigFile string

	// Input and output
	ReportDirectory string
	Pattern         string
	OutputFile      string
	Summaries       bool

	// Processing
	Workers      int
	MaxFileSize  int64 // Maximum PDF file size in bytes
	Strategy     string
	Tolerance    float64
	DefaultGrade int
	Decoder      DecoderConfig

	Redis cache.RedisConfig

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	p := decoder.DefaultParams()
	return &Config{
		Mode:            ModeBatch,
		ReportDirectory: currentDir,
		Pattern:         DefaultPattern,
		Workers:         runtime.NumCPU(),
		MaxFileSize:     DefaultMaxFileSize,
		Strategy:        string(p.Strategy),
		Tolerance:       p.Tolerance,
		DefaultGrade:    DefaultDefaultGrade,
		Decoder: DecoderConfig{
			Slots:       p.Slots,
			AnchorLabel: p.AnchorLabel,
			AnchorAbove: p.AnchorAbove,
			AnchorBelow: p.AnchorBelow,
			FixedMin:    p.FixedBand.Min,
			FixedMax:    p.FixedBand.Max,
		},
		Redis:      cache.RedisConfig{TTL: DefaultRedisTTL},
		Version:    "1.0.0",
		ServerName: "grade-extract",
		LogLevel:   DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags, environment and the optional
// config file, and returns a validated configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	if err := readConfigFile(); err != nil {
		return nil, err
	}
	if err := populateConfigFromViper(cfg); err != nil {
		return nil, err
	}

	// Expand paths if needed
	if cfg.ReportDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.ReportDirectory); err == nil {
			cfg.ReportDirectory = expandedPath
		}
	}
	if cfg.OutputFile == "" {
		cfg.OutputFile = filepath.Join(cfg.ReportDirectory, DefaultOutputName)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// GRADES_REDIS_ADDR maps to redis.addr
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("config", cfg.ConfigFile)
	viper.SetDefault("dir", cfg.ReportDirectory)
	viper.SetDefault("pattern", cfg.Pattern)
	viper.SetDefault("output", cfg.OutputFile)
	viper.SetDefault("summaries", cfg.Summaries)
	viper.SetDefault("workers", cfg.Workers)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("strategy", cfg.Strategy)
	viper.SetDefault("tolerance", cfg.Tolerance)
	viper.SetDefault("defaultgrade", cfg.DefaultGrade)

	viper.SetDefault("redis.addr", cfg.Redis.Addr)
	viper.SetDefault("redis.password", cfg.Redis.Password)
	viper.SetDefault("redis.db", cfg.Redis.DB)
	viper.SetDefault("redis.ttl", cfg.Redis.TTL)

	viper.SetDefault("decoder.slots", cfg.Decoder.Slots)
	viper.SetDefault("decoder.anchor_label", cfg.Decoder.AnchorLabel)
	viper.SetDefault("decoder.anchor_above", cfg.Decoder.AnchorAbove)
	viper.SetDefault("decoder.anchor_below", cfg.Decoder.AnchorBelow)
	viper.SetDefault("decoder.fixed_min", cfg.Decoder.FixedMin)
	viper.SetDefault("decoder.fixed_max", cfg.Decoder.FixedMax)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'batch' to write the grades file, 'stdio' for MCP standard I/O")
	pflag.String("config", cfg.ConfigFile, "Optional YAML file with decoder geometry and settings")
	pflag.String("dir", cfg.ReportDirectory, "Directory containing report PDFs")
	pflag.String("pattern", cfg.Pattern, "Glob matched against report file names")
	pflag.String("output", cfg.OutputFile, "Output JSON file (default <dir>/"+DefaultOutputName+")")
	pflag.Bool("summaries", cfg.Summaries, "Add academic strength and weakness lines to each student")
	pflag.Int("workers", cfg.Workers, "Number of documents decoded in parallel")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.String("strategy", cfg.Strategy, "Band strategy: 'anchor' or 'fixed'")
	pflag.Float64("tolerance", cfg.Tolerance, "Horizontal voting tolerance in points")
	pflag.Int("defaultgrade", cfg.DefaultGrade, "Grade recorded when a page cannot be decoded")
	pflag.String("redis-addr", cfg.Redis.Addr, "Redis address for the decode cache (disabled when empty)")
	pflag.String("redis-password", cfg.Redis.Password, "Redis password")
	pflag.Int("redis-db", cfg.Redis.DB, "Redis database")
	pflag.Duration("redis-ttl", cfg.Redis.TTL, "Lifetime of cached decode results")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, key := range []string{
		"mode", "config", "dir", "pattern", "output", "summaries", "workers",
		"loglevel", "maxfilesize", "strategy", "tolerance", "defaultgrade",
	} {
		_ = viper.BindPFlag(key, pflag.Lookup(key))
	}
	_ = viper.BindPFlag("redis.addr", pflag.Lookup("redis-addr"))
	_ = viper.BindPFlag("redis.password", pflag.Lookup("redis-password"))
	_ = viper.BindPFlag("redis.db", pflag.Lookup("redis-db"))
	_ = viper.BindPFlag("redis.ttl", pflag.Lookup("redis-ttl"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nGrade Extract - reads course grades from growth portrait report PDFs\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/reports                     "+
			"# decode every report, write course_data.json\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/reports --pattern='*——*.pdf' --workers=8\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=stdio --dir=/path/to/reports        # MCP server\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  GRADES_MODE        Run mode\n")
		fmt.Fprintf(os.Stderr, "  GRADES_DIR         Report directory\n")
		fmt.Fprintf(os.Stderr, "  GRADES_OUTPUT      Output file\n")
		fmt.Fprintf(os.Stderr, "  GRADES_WORKERS     Parallel documents\n")
		fmt.Fprintf(os.Stderr, "  GRADES_LOGLEVEL    Log level\n")
		fmt.Fprintf(os.Stderr, "  GRADES_REDIS_ADDR  Redis address\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// readConfigFile merges the --config YAML file, if any, under flags and environment
func readConfigFile() error {
	path := viper.GetString("config")
	if path == "" {
		return nil
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) error {
	cfg.Mode = viper.GetString("mode")
	cfg.ConfigFile = viper.GetString("config")
	cfg.ReportDirectory = viper.GetString("dir")
	cfg.Pattern = viper.GetString("pattern")
	cfg.OutputFile = viper.GetString("output")
	cfg.Summaries = viper.GetBool("summaries")
	cfg.Workers = viper.GetInt("workers")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.Strategy = viper.GetString("strategy")
	cfg.Tolerance = viper.GetFloat64("tolerance")
	cfg.DefaultGrade = viper.GetInt("defaultgrade")

	cfg.Redis.Addr = viper.GetString("redis.addr")
	cfg.Redis.Password = viper.GetString("redis.password")
	cfg.Redis.DB = viper.GetInt("redis.db")
	cfg.Redis.TTL = viper.GetDuration("redis.ttl")

	cfg.Decoder.AnchorLabel = viper.GetString("decoder.anchor_label")
	cfg.Decoder.AnchorAbove = viper.GetFloat64("decoder.anchor_above")
	cfg.Decoder.AnchorBelow = viper.GetFloat64("decoder.anchor_below")
	cfg.Decoder.FixedMin = viper.GetFloat64("decoder.fixed_min")
	cfg.Decoder.FixedMax = viper.GetFloat64("decoder.fixed_max")

	var slots []decoder.Slot
	if err := viper.UnmarshalKey("decoder.slots", &slots); err != nil {
		return fmt.Errorf("invalid decoder slots: %w", err)
	}
	cfg.Decoder.Slots = slots
	return nil
}

// DecoderParams converts the configuration into decoder parameters
func (c *Config) DecoderParams() decoder.Params {
	p := decoder.DefaultParams()
	p.Slots = append([]decoder.Slot(nil), c.Decoder.Slots...)
	p.Tolerance = c.Tolerance
	p.Strategy = decoder.Strategy(c.Strategy)
	p.AnchorLabel = c.Decoder.AnchorLabel
	p.AnchorAbove = c.Decoder.AnchorAbove
	p.AnchorBelow = c.Decoder.AnchorBelow
	p.FixedBand = decoder.FixedBand(c.Decoder.FixedMin, c.Decoder.FixedMax)
	return p
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeBatch && c.Mode != ModeStdio {
		return errors.New("mode must be either 'batch' or 'stdio'")
	}

	// Validate report directory
	if c.ReportDirectory == "" {
		return errors.New("report directory cannot be empty")
	}
	info, err := os.Stat(c.ReportDirectory)
	switch {
	case os.IsNotExist(err) && c.Mode == ModeStdio:
		// the server may be started before reports are copied in
		if err := os.MkdirAll(c.ReportDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create report directory %s: %w", c.ReportDirectory, err)
		}
	case os.IsNotExist(err):
		return fmt.Errorf("report directory does not exist: %s", c.ReportDirectory)
	case err != nil:
		return fmt.Errorf("cannot access report directory %s: %w", c.ReportDirectory, err)
	case !info.IsDir():
		return fmt.Errorf("report directory is not a directory: %s", c.ReportDirectory)
	}

	if _, err := filepath.Match(c.Pattern, ""); err != nil || c.Pattern == "" {
		return fmt.Errorf("invalid file pattern: %q", c.Pattern)
	}

	if c.Mode == ModeBatch && c.OutputFile == "" {
		return errors.New("output file cannot be empty")
	}

	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.DefaultGrade < decoder.MinGrade || c.DefaultGrade > decoder.MaxGrade {
		return fmt.Errorf("default grade must be between %d and %d", decoder.MinGrade, decoder.MaxGrade)
	}

	if c.Redis.Addr != "" && c.Redis.TTL < 0 {
		return errors.New("redis ttl cannot be negative")
	}

	if err := c.DecoderParams().Validate(); err != nil {
		return fmt.Errorf("invalid decoder settings: %w", err)
	}

	return nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, ReportDirectory: %s, Pattern: %s, OutputFile: %s, Workers: %d, Strategy: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.ReportDirectory, c.Pattern, c.OutputFile, c.Workers, c.Strategy, c.LogLevel, c.MaxFileSize)
}

// IsBatchMode returns true when reports are decoded once into the output file
func (c *Config) IsBatchMode() bool {
	return c.Mode == ModeBatch
}

// IsStdioMode returns true if the MCP server runs over standard I/O
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
