package config

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv     string
	Port       string
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	JWTSecret  string // kosong = verifikasi token dimatikan

	LogLevel  string
	LogFormat string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// MatchSetDir dipakai bila Redis tidak tersedia: file CSV/xlsx dibaca dari folder ini.
	MatchSetDir string
	MatchSetTTL time.Duration

	Timezone string
}

var (
	cfg  *Config
	once sync.Once
)

func LoadConfig() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: .env file not found. Relying on environment variables.")
		}
		cfg = &Config{
			AppEnv:        getEnv("APP_ENV", "development"),
			Port:          getEnv("PORT", "8080"),
			DBUser:        getEnv("DB_USER", "root"),
			DBPassword:    os.Getenv("DB_PASSWORD"),
			DBHost:        getEnv("DB_HOST", "localhost"),
			DBPort:        getEnv("DB_PORT", "3306"),
			DBName:        getEnv("DB_NAME", "sik"),
			JWTSecret:     os.Getenv("JWT_SECRET"),
			LogLevel:      getEnv("LOG_LEVEL", "info"),
			LogFormat:     getEnv("LOG_FORMAT", "json"),
			RedisAddr:     os.Getenv("REDIS_ADDR"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       parseInt(getEnv("REDIS_DB", "0"), 0),
			MatchSetDir:   getEnv("MATCHSET_DIR", "./uploads/matchset"),
			MatchSetTTL:   parseDuration(getEnv("MATCHSET_TTL", "24h"), 24*time.Hour),
			Timezone:      getEnv("TIMEZONE", "Asia/Jakarta"),
		}
	})
	return cfg
}

// Location mengembalikan zona waktu laporan; jatuh ke UTC+7 bila tzdata tidak ada.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.FixedZone("WIB", 7*60*60)
	}
	return loc
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
