package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Workbook  WorkbookConfig  `yaml:"workbook" mapstructure:"workbook"`
	Valasztas ValasztasConfig `yaml:"valasztas" mapstructure:"valasztas"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// WorkbookConfig locates the election results workbook.
type WorkbookConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ValasztasConfig configures the valasztas.hu portlet client.
type ValasztasConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	VlID        string  `yaml:"vl_id" mapstructure:"vl_id"`
	VltID       string  `yaml:"vlt_id" mapstructure:"vlt_id"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PRECINCT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("workbook.path", "EP_2019_szavazóköri_eredmény.xlsx")
	v.SetDefault("valasztas.base_url", "https://www.valasztas.hu/szavazokorok_onk2019")
	v.SetDefault("valasztas.vl_id", "294")
	v.SetDefault("valasztas.vlt_id", "687")
	v.SetDefault("valasztas.timeout_secs", 30)
	v.SetDefault("valasztas.rate_limit", 5.0)
	v.SetDefault("valasztas.user_agent", "precinct-cli/1.0")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the values the export pipeline depends on.
func (c *Config) Validate() error {
	var problems []string

	if c.Workbook.Path == "" {
		problems = append(problems, "workbook.path is required")
	}
	if c.Valasztas.BaseURL == "" {
		problems = append(problems, "valasztas.base_url is required")
	}
	if c.Valasztas.VlID == "" {
		problems = append(problems, "valasztas.vl_id is required")
	}
	if c.Valasztas.VltID == "" {
		problems = append(problems, "valasztas.vlt_id is required")
	}
	if c.Valasztas.TimeoutSecs <= 0 {
		problems = append(problems, "valasztas.timeout_secs must be > 0")
	}
	if c.Valasztas.RateLimit <= 0 {
		problems = append(problems, "valasztas.rate_limit must be > 0")
	}

	if len(problems) > 0 {
		return eris.New("invalid config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger. Both formats write to
// stderr; stdout is reserved for the exported document.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)
	zapCfg.OutputPaths = []string{"stderr"}

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
