package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	AppEnv  string
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSslMode     string
	DBConnStr     string
	DBAutoMigrate bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LeaderboardCacheTTL time.Duration
	LeaderboardLimit    int

	SeedLockKey        string
	SeedLockTTLSeconds int
	StoreSeedEnabled   bool

	AllowedOrigins []string
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	appEnv := getEnv("APP_ENV", EnvDevelopment)

	AppConfig = &Config{
		AppEnv:              appEnv,
		APIPort:             getEnv("API_PORT", "8080"),
		JWTKey:              []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:              time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBPort:              getEnv("DB_PORT", "5432"),
		DBUser:              getEnv("DB_USER", "user"),
		DBPassword:          getEnv("DB_PASSWORD", "password"),
		DBName:              getEnv("DB_NAME", "codearena"),
		DBSslMode:           getEnv("DB_SSLMODE", "disable"),
		DBAutoMigrate:       getEnvAsBool("DB_AUTO_MIGRATE", true),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvAsInt("REDIS_DB", 0),
		LeaderboardCacheTTL: getEnvAsDuration("LEADERBOARD_CACHE_TTL", 30*time.Second),
		LeaderboardLimit:    getEnvAsInt("LEADERBOARD_LIMIT", 50),
		SeedLockKey:         getEnv("SEED_LOCK_KEY", "store_seed_lock"),
		SeedLockTTLSeconds:  getEnvAsInt("SEED_LOCK_TTL_SECONDS", 30),
		StoreSeedEnabled:    getEnvAsBool("STORE_SEED_ENABLED", appEnv != EnvProduction),
		AllowedOrigins:      splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

// Validate reports settings that would make the server unsafe or unusable.
func (c *Config) Validate() error {
	if c.AppEnv == EnvProduction && (len(c.JWTKey) == 0 || string(c.JWTKey) == "defaultsecret") {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.LeaderboardLimit <= 0 {
		return errors.New("LEADERBOARD_LIMIT must be positive")
	}
	if c.SeedLockTTLSeconds <= 0 {
		return errors.New("SEED_LOCK_TTL_SECONDS must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("45s") or a bare number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
