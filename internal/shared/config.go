package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	SourceSample = "sample"
	SourceMySQL  = "mysql"
)

type Config struct {
	AppEnv        string
	LogLevel      string
	HTTPAddr      string
	MetricsAddr   string
	CatalogSource string
	SampleSize    int
	MySQLDSN      string
	RedisAddr     string
	RedisDB       int
	RedisPass     string
	SessionTTL    time.Duration
	Placeholder   string
	ImageProbe    bool
	ProbeRPS      int
	ProbeWorkers  int
	SearchRPS     float64
	SearchBurst   int
}

// Load reads the environment, after merging a .env file from the working
// directory when one exists. Variables already set win over the file.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	c := Config{
		AppEnv:        env("APP_ENV", "prod"),
		LogLevel:      env("LOG_LEVEL", "info"),
		HTTPAddr:      env("HTTP_ADDR", ":8080"),
		MetricsAddr:   env("METRICS_ADDR", ""),
		CatalogSource: strings.ToLower(env("CATALOG_SOURCE", SourceSample)),
		SampleSize:    atoi("SAMPLE_SIZE", 8),
		MySQLDSN:      env("MYSQL_DSN", "root:root@tcp(localhost:3306)/rentfinder?parseTime=true&charset=utf8mb4&loc=UTC"),
		RedisAddr:     env("REDIS_ADDR", ""),
		RedisPass:     env("REDIS_PASSWORD", ""),
		RedisDB:       atoi("REDIS_DB", 0),
		SessionTTL:    time.Duration(atoi("SESSION_TTL_SECONDS", 1800)) * time.Second,
		Placeholder:   env("PLACEHOLDER_IMG", "/static/placeholder.svg"),
		ImageProbe:    boolEnv("IMAGE_PROBE", false),
		ProbeRPS:      atoi("IMAGE_PROBE_RPS", 5),
		ProbeWorkers:  atoi("PROBE_WORKERS", 4),
		SearchRPS:     floatEnv("SEARCH_RPS", 20),
		SearchBurst:   atoi("SEARCH_BURST", 40),
	}
	if c.CatalogSource != SourceSample && c.CatalogSource != SourceMySQL {
		log.Warn().Str("source", c.CatalogSource).Msg("unknown CATALOG_SOURCE, using sample")
		c.CatalogSource = SourceSample
	}
	if c.SampleSize < 0 {
		c.SampleSize = 0
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func boolEnv(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not a bool, using default")
	}
	return def
}

func floatEnv(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not a number, using default")
	}
	return def
}
