package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ironsheep/docscan-mcp/internal/imaging"
)

const (
	// Default values
	DefaultLogLevel          = "info"
	DefaultFillColor         = "#000000"
	DefaultArchiveLimitBytes = 4 * 1024 * 1024 // 4MB
	DefaultHighQuality       = 90
	DefaultStandardQuality   = 60

	// EnvPrefix is prepended to every environment variable
	EnvPrefix = "DOCSCAN"
)

// ErrVersionRequested is returned by Load when the version flag is set.
var ErrVersionRequested = errors.New("version requested")

// QualitySettings maps quality tiers to JPEG quality (1-100).
type QualitySettings struct {
	High     int
	Standard int
}

// Config holds all configuration for the document scanner server
type Config struct {
	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
	ConfigFile string

	// Output configuration
	MaxWidth          int
	MaxHeight         int
	FillColor         string
	ArchiveLimitBytes int64
	Quality           QualitySettings

	// Checklist is the ordered list of documents to capture
	Checklist Checklist
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version:           "0.1.0",
		ServerName:        "docscan-mcp",
		LogLevel:          DefaultLogLevel,
		MaxWidth:          imaging.DefaultMaxWidth,
		MaxHeight:         imaging.DefaultMaxHeight,
		FillColor:         DefaultFillColor,
		ArchiveLimitBytes: DefaultArchiveLimitBytes,
		Quality: QualitySettings{
			High:     DefaultHighQuality,
			Standard: DefaultStandardQuality,
		},
		Checklist: DefaultChecklist(),
	}
}

// Load builds the configuration from defaults, a .env file, DOCSCAN_*
// environment variables, an optional YAML/JSON config file and command line
// flags, in increasing order of precedence.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	cfg := DefaultConfig()
	v := viper.New()
	setupViperEnvironment(v, cfg)

	flags := pflag.NewFlagSet(cfg.ServerName, pflag.ContinueOnError)
	defineCommandLineFlags(flags, cfg)
	setupUsageMessage(flags)

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if showVersion, _ := flags.GetBool("version"); showVersion {
		return nil, ErrVersionRequested
	}
	bindFlagsToViper(v, flags)

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := populateConfigFromViper(v, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("config", "")
	v.SetDefault("max_width", cfg.MaxWidth)
	v.SetDefault("max_height", cfg.MaxHeight)
	v.SetDefault("fill_color", cfg.FillColor)
	v.SetDefault("archive_limit_bytes", cfg.ArchiveLimitBytes)
	v.SetDefault("quality.high", cfg.Quality.High)
	v.SetDefault("quality.standard", cfg.Quality.Standard)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(flags *pflag.FlagSet, cfg *Config) {
	flags.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.String("config", "", "Path to a YAML or JSON config file")
	flags.Int("max-width", cfg.MaxWidth, "Maximum stored image width in pixels")
	flags.Int("max-height", cfg.MaxHeight, "Maximum stored image height in pixels")
	flags.String("fill-color", cfg.FillColor, "Background color for rectified pixels outside the photo")
	flags.Int64("archive-limit", cfg.ArchiveLimitBytes, "ZIP size in bytes above which a warning is logged")
	flags.Int("quality-high", cfg.Quality.High, "JPEG quality for high tier documents")
	flags.Int("quality-standard", cfg.Quality.Standard, "JPEG quality for standard tier documents")
	flags.BoolP("version", "v", false, "Print version information")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper(v *viper.Viper, flags *pflag.FlagSet) {
	_ = v.BindPFlag("loglevel", flags.Lookup("loglevel"))
	_ = v.BindPFlag("config", flags.Lookup("config"))
	_ = v.BindPFlag("max_width", flags.Lookup("max-width"))
	_ = v.BindPFlag("max_height", flags.Lookup("max-height"))
	_ = v.BindPFlag("fill_color", flags.Lookup("fill-color"))
	_ = v.BindPFlag("archive_limit_bytes", flags.Lookup("archive-limit"))
	_ = v.BindPFlag("quality.high", flags.Lookup("quality-high"))
	_ = v.BindPFlag("quality.standard", flags.Lookup("quality-standard"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage(flags *pflag.FlagSet) {
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\ndocscan-mcp - MCP server for capturing and rectifying document photos\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flags.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  DOCSCAN_LOGLEVEL             Log level\n")
		fmt.Fprintf(os.Stderr, "  DOCSCAN_CONFIG               Config file path\n")
		fmt.Fprintf(os.Stderr, "  DOCSCAN_MAX_WIDTH            Maximum stored image width\n")
		fmt.Fprintf(os.Stderr, "  DOCSCAN_MAX_HEIGHT           Maximum stored image height\n")
		fmt.Fprintf(os.Stderr, "  DOCSCAN_FILL_COLOR           Rectification fill color\n")
		fmt.Fprintf(os.Stderr, "  DOCSCAN_ARCHIVE_LIMIT_BYTES  ZIP size warning threshold\n")
		fmt.Fprintf(os.Stderr, "  DOCSCAN_QUALITY_HIGH         JPEG quality, high tier\n")
		fmt.Fprintf(os.Stderr, "  DOCSCAN_QUALITY_STANDARD     JPEG quality, standard tier\n")
		fmt.Fprintf(os.Stderr, "\nThe checklist can only be set from a config file.\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) error {
	cfg.LogLevel = v.GetString("loglevel")
	cfg.ConfigFile = v.GetString("config")
	cfg.MaxWidth = v.GetInt("max_width")
	cfg.MaxHeight = v.GetInt("max_height")
	cfg.FillColor = v.GetString("fill_color")
	cfg.ArchiveLimitBytes = v.GetInt64("archive_limit_bytes")
	cfg.Quality.High = v.GetInt("quality.high")
	cfg.Quality.Standard = v.GetInt("quality.standard")

	if v.IsSet("checklist") {
		var list Checklist
		if err := v.UnmarshalKey("checklist", &list); err != nil {
			return fmt.Errorf("failed to parse checklist: %w", err)
		}
		for i := range list {
			if list[i].Tier == "" {
				list[i].Tier = TierStandard
			}
		}
		cfg.Checklist = list
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.MaxWidth <= 0 || c.MaxHeight <= 0 {
		return fmt.Errorf("maximum dimensions must be positive, got %dx%d", c.MaxWidth, c.MaxHeight)
	}

	if _, err := imaging.ParseHexColor(c.FillColor); err != nil {
		return fmt.Errorf("invalid fill color: %w", err)
	}

	if c.ArchiveLimitBytes <= 0 {
		return errors.New("archive limit must be positive")
	}

	if err := checkQuality(TierHigh, c.Quality.High); err != nil {
		return err
	}
	if err := checkQuality(TierStandard, c.Quality.Standard); err != nil {
		return err
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return c.Checklist.Validate()
}

func checkQuality(tier QualityTier, q int) error {
	if q < 1 || q > 100 {
		return fmt.Errorf("%s quality must be between 1 and 100, got %d", tier, q)
	}
	return nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// QualityFor returns the JPEG quality for a tier.
func (c *Config) QualityFor(tier QualityTier) int {
	if tier == TierHigh {
		return c.Quality.High
	}
	return c.Quality.Standard
}

// Profile returns the encoding profile for a checklist document.
func (c *Config) Profile(d Document) imaging.Profile {
	return imaging.Profile{Quality: c.QualityFor(d.Tier), Binarize: d.Binarize}
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{LogLevel: %s, MaxSize: %dx%d, FillColor: %s, ArchiveLimit: %d, Quality: %d/%d, Documents: %d}",
		c.LogLevel, c.MaxWidth, c.MaxHeight, c.FillColor, c.ArchiveLimitBytes,
		c.Quality.High, c.Quality.Standard, len(c.Checklist))
}
