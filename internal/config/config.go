package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	LeadStoreMongo  = "mongo"
	LeadStoreSQLite = "sqlite"
)

type Config struct {
	Env             string
	ServerAddr      string
	LogLevel        slog.Level
	FrontendOrigins []string

	LeadStore  string
	MongoURI   string
	MongoDB    string
	SQLitePath string

	RedisURL        string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CacheTTLSeconds int

	RateLimitEstimates int
	RateLimitLeads     int
	RateLimitWindowSec int
	LeadSubmitTimeout  time.Duration

	AdminAPIKey       string
	AdminUser         string
	AdminPassword     string
	JWTSecret         string
	AccessTTLMinutes  int
	RefreshTTLMinutes int
	CookieSecure      bool

	BrevoAPIKey      string
	BrevoSenderEmail string
	BrevoSenderName  string
	BrevoSandbox     bool
	NotifyEmail      string
	NotifyName       string

	Timezone *time.Location
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func Load() (*Config, error) {
	loadDotEnv(".env")
	loc, err := time.LoadLocation(getEnv("TZ", "America/New_York"))
	if err != nil {
		return nil, fmt.Errorf("config: invalid TZ: %w", err)
	}

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	store := strings.ToLower(getEnv("LEAD_STORE", LeadStoreMongo))
	if store != LeadStoreMongo && store != LeadStoreSQLite {
		return nil, fmt.Errorf("config: LEAD_STORE must be %q or %q, got %q", LeadStoreMongo, LeadStoreSQLite, store)
	}

	mongoURI := getEnv("MONGO_URI", "mongodb://localhost:27017/taxsavings")
	mongoDB := getEnv("MONGO_DB", "")
	if mongoDB == "" {
		mongoDB = mongoDBFromURI(mongoURI)
	}
	if mongoDB == "" {
		mongoDB = "taxsavings"
	}

	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		ServerAddr:         getEnv("SERVER_ADDR", ":8080"),
		LogLevel:           level,
		FrontendOrigins:    splitList(getEnv("FRONTEND_ORIGIN", "http://localhost:3000")),
		LeadStore:          store,
		MongoURI:           mongoURI,
		MongoDB:            mongoDB,
		SQLitePath:         getEnv("SQLITE_PATH", "data/leads.db"),
		RedisURL:           getEnv("REDIS_URL", ""),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		CacheTTLSeconds:    getEnvInt("CACHE_TTL_SECONDS", 60),
		RateLimitEstimates: getEnvInt("RATE_LIMIT_ESTIMATES", 60),
		RateLimitLeads:     getEnvInt("RATE_LIMIT_LEADS", 5),
		RateLimitWindowSec: getEnvInt("RATE_LIMIT_WINDOW_SEC", 60),
		LeadSubmitTimeout:  time.Duration(getEnvInt("LEAD_SUBMIT_TIMEOUT_SEC", 8)) * time.Second,
		AdminAPIKey:        getEnv("ADMIN_API_KEY", ""),
		AdminUser:          getEnv("ADMIN_USER", "admin"),
		AdminPassword:      getEnv("ADMIN_PASSWORD", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		AccessTTLMinutes:   getEnvInt("ACCESS_TTL_MINUTES", 15),
		RefreshTTLMinutes:  getEnvInt("REFRESH_TTL_MINUTES", 43200),
		CookieSecure:       getEnvBool("COOKIE_SECURE", false),
		BrevoAPIKey:        getEnv("BREVO_API_KEY", ""),
		BrevoSenderEmail:   getEnv("BREVO_SENDER_EMAIL", ""),
		BrevoSenderName:    getEnv("BREVO_SENDER_NAME", ""),
		BrevoSandbox:       getEnvBool("BREVO_SANDBOX", false),
		NotifyEmail:        getEnv("NOTIFY_EMAIL", ""),
		NotifyName:         getEnv("NOTIFY_NAME", "Leads"),
		Timezone:           loc,
	}

	return cfg, nil
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSec) * time.Second
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: invalid LOG_LEVEL %q", raw)
	}
	return level, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func mongoDBFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	db := strings.Trim(u.Path, "/")
	if db == "" {
		return ""
	}
	// mongodb URIs sometimes include extra path segments; only the first one names the db.
	if idx := strings.Index(db, "/"); idx >= 0 {
		db = db[:idx]
	}
	return db
}

func loadDotEnv(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	lines := strings.Split(string(data), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		if key == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		_ = os.Setenv(key, val)
	}
}
