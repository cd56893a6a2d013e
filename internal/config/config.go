package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Published copies of the 2022 microrregião mesh and the IQM 2025 workbook.
const (
	DefaultGeometryURL = "https://www.dropbox.com/scl/fi/zxqlidj8bl90zfoyg903q/BR_Microrregioes_2022.json?rlkey=146tfdmyvgh58bu5p11zycuko&st=geevr72o&dl=1"
	DefaultWorkbookURL = "https://www.dropbox.com/scl/fi/b1wxo02asus661r6k6kjb/IQM_BRASIL_2025_V1.xlsm?rlkey=vsu1wm2mi768vqgjknpmbee70&st=8722gdyh&dl=1"
)

// Config holds the full application configuration.
type Config struct {
	Source     SourceConfig  `yaml:"source" mapstructure:"source"`
	Columns    ColumnsConfig `yaml:"columns" mapstructure:"columns"`
	Indicators []string      `yaml:"indicators" mapstructure:"indicators"`
	Top        TopConfig     `yaml:"top" mapstructure:"top"`
	Fetch      FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	Cache      CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Server     ServerConfig  `yaml:"server" mapstructure:"server"`
	Log        LogConfig     `yaml:"log" mapstructure:"log"`
}

// SourceConfig locates the geometry and workbook sources. Each location is an
// http(s) or ftp URL, a file:// URL, or a filesystem path.
type SourceConfig struct {
	GeometryURL        string `yaml:"geometry_url" mapstructure:"geometry_url"`
	GeometryFormat     string `yaml:"geometry_format" mapstructure:"geometry_format"`
	GeometryCodeField  string `yaml:"geometry_code_field" mapstructure:"geometry_code_field"`
	GeometryNameField  string `yaml:"geometry_name_field" mapstructure:"geometry_name_field"`
	GeometryStateField string `yaml:"geometry_state_field" mapstructure:"geometry_state_field"`
	WorkbookURL        string `yaml:"workbook_url" mapstructure:"workbook_url"`
	RankingSheet       string `yaml:"ranking_sheet" mapstructure:"ranking_sheet"`
	QualificationSheet string `yaml:"qualification_sheet" mapstructure:"qualification_sheet"`
	TempDir            string `yaml:"temp_dir" mapstructure:"temp_dir"`
}

// ColumnsConfig names the ranking sheet columns.
type ColumnsConfig struct {
	State string `yaml:"state" mapstructure:"state"`
	Name  string `yaml:"name" mapstructure:"name"`
	Code  string `yaml:"code" mapstructure:"code"`
}

// TopConfig configures the national top-N ranking.
type TopConfig struct {
	Indicator string `yaml:"indicator" mapstructure:"indicator"`
	Limit     int    `yaml:"limit" mapstructure:"limit"`
}

// FetchConfig configures source downloads.
type FetchConfig struct {
	TimeoutSecs     int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries      int     `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent       string  `yaml:"user_agent" mapstructure:"user_agent"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec" mapstructure:"rate_limit_per_sec"` // per source host; 0 = unlimited
}

// CacheConfig configures dataset memoization and the optional shared Redis
// byte cache.
type CacheConfig struct {
	TTLMinutes      int    `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
	RedisURL        string `yaml:"redis_url" mapstructure:"redis_url"`
	RedisTTLMinutes int    `yaml:"redis_ttl_minutes" mapstructure:"redis_ttl_minutes"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, file and environment.
func Load() (*Config, error) {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load(".env")

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("IQM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("source.geometry_url", DefaultGeometryURL)
	v.SetDefault("source.geometry_format", "auto")
	v.SetDefault("source.geometry_code_field", "CD_MICRO")
	v.SetDefault("source.geometry_name_field", "NM_MICRO")
	v.SetDefault("source.geometry_state_field", "SIGLA_UF")
	v.SetDefault("source.workbook_url", DefaultWorkbookURL)
	v.SetDefault("source.ranking_sheet", "IQM_Ranking")
	v.SetDefault("source.qualification_sheet", "IQM_Qualificação")
	v.SetDefault("source.temp_dir", "/tmp/iqm-atlas")
	v.SetDefault("columns.state", "UF")
	v.SetDefault("columns.name", "Microrregião")
	v.SetDefault("columns.code", "Código da Microrregião")
	v.SetDefault("indicators", []string{"IQM / 2025", "IQM-D", "IQM-C", "IQM-IU"})
	v.SetDefault("top.indicator", "IQM / 2025")
	v.SetDefault("top.limit", 10)
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 1)
	v.SetDefault("fetch.user_agent", "iqm-atlas/1.0")
	v.SetDefault("fetch.rate_limit_per_sec", 0)
	v.SetDefault("cache.ttl_minutes", 0)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.redis_ttl_minutes", 1440)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
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

// Validate checks the settings a command mode depends on. Mode is "serve" or
// "cli".
func (c *Config) Validate(mode string) error {
	var problems []string
	require := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	require(strings.TrimSpace(c.Source.GeometryURL) != "", "source.geometry_url is required")
	require(strings.TrimSpace(c.Source.WorkbookURL) != "", "source.workbook_url is required")
	require(strings.TrimSpace(c.Source.GeometryCodeField) != "", "source.geometry_code_field is required")
	require(strings.TrimSpace(c.Source.RankingSheet) != "", "source.ranking_sheet is required")
	switch c.Source.GeometryFormat {
	case "auto", "geojson", "shapefile":
	default:
		problems = append(problems, "source.geometry_format must be auto, geojson or shapefile")
	}
	require(c.Columns.State != "" && c.Columns.Name != "" && c.Columns.Code != "", "columns.state, columns.name and columns.code are required")
	require(len(c.Indicators) > 0, "indicators must not be empty")
	require(c.Top.Limit > 0, "top.limit must be > 0")
	require(c.Fetch.TimeoutSecs > 0, "fetch.timeout_secs must be > 0")
	require(c.Fetch.MaxRetries >= 1, "fetch.max_retries must be >= 1")
	require(c.Fetch.RateLimitPerSec >= 0, "fetch.rate_limit_per_sec must be >= 0")
	require(c.Cache.TTLMinutes >= 0, "cache.ttl_minutes must be >= 0")

	switch mode {
	case "serve":
		require(c.Server.Port > 0, "server.port must be > 0")
	case "cli":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
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

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
