package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Points     PointsConfig
	Redemption RedemptionConfig
	Upload     UploadConfig
	Cloudinary CloudinaryConfig
	CORS       CORSConfig
	RateLimit  RateLimitConfig
	Map        MapConfig
	Admin      AdminConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Driver          string // mysql | postgres | sqlite
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogQueries      bool
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

type PointsConfig struct {
	PerTree int
}

type RedemptionConfig struct {
	TTL           time.Duration // upper bound on a code's lifetime, capped by the voucher expiry
	SweepInterval time.Duration
}

type UploadConfig struct {
	Dir           string
	PublicBaseURL string // prefix for locally stored image URLs, e.g. http://localhost:3000
	MaxBytes      int64
	Placeholder   string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Enabled reports whether all Cloudinary credentials are present.
func (c CloudinaryConfig) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

type CORSConfig struct {
	AllowedOrigins []string // empty: any http://localhost:<port>
}

type RateLimitConfig struct {
	PerMinute int
}

type MapConfig struct {
	FuzzMeters float64
	MaxMarkers int
}

type AdminConfig struct {
	Email    string
	Password string
	Name     string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] .env not loaded: %v", err)
	}
	env := getEnv("APP_ENV", "development")
	driver := getEnv("DB_DRIVER", "postgres")
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "3000"),
			Env:          env,
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Driver:          driver,
			DSN:             getEnv("DATABASE_URL", composeDSN(driver)),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 50),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			LogQueries:      env == "development",
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "change-me-in-production"),
			Expiry: getDuration("JWT_EXPIRES_IN", 7*24*time.Hour),
			Issuer: "loyaltytree",
		},
		Points: PointsConfig{
			PerTree: getInt("POINTS_PER_TREE", 100),
		},
		Redemption: RedemptionConfig{
			TTL:           getDuration("REDEMPTION_TTL", 30*24*time.Hour),
			SweepInterval: getDuration("REDEMPTION_SWEEP_INTERVAL", 10*time.Minute),
		},
		Upload: UploadConfig{
			Dir:           getEnv("UPLOAD_DIR", "uploads"),
			PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
			MaxBytes:      int64(getInt("MAX_UPLOAD_BYTES", 5*1024*1024)),
			Placeholder:   strings.TrimRight(getEnv("PLACEHOLDER_IMAGE_BASE", "https://picsum.photos/seed"), "/"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
			Folder:    getEnv("CLOUDINARY_FOLDER", "LoyaltyTree"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		},
		RateLimit: RateLimitConfig{
			PerMinute: getInt("RATE_LIMIT_PER_MINUTE", 120),
		},
		Map: MapConfig{
			FuzzMeters: getFloat("MAP_FUZZ_METERS", 50),
			MaxMarkers: getInt("MAP_MAX_MARKERS", 500),
		},
		Admin: AdminConfig{
			Email:    os.Getenv("ADMIN_EMAIL"),
			Password: os.Getenv("ADMIN_PASSWORD"),
			Name:     getEnv("ADMIN_NAME", "Admin User"),
		},
	}
}

// composeDSN builds a DSN from DB_HOST/DB_PORT/DB_USERNAME/DB_PASSWORD/DB_NAME when DATABASE_URL is unset.
func composeDSN(driver string) string {
	host := getEnv("DB_HOST", "localhost")
	user := getEnv("DB_USERNAME", "postgres")
	pass := os.Getenv("DB_PASSWORD")
	name := getEnv("DB_NAME", "loyalty_tree")
	switch driver {
	case "mysql":
		port := getEnv("DB_PORT", "3306")
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC", user, pass, host, port, name)
	case "sqlite":
		return getEnv("DB_PATH", "loyaltytree.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	default:
		port := getEnv("DB_PORT", "5432")
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC", host, port, user, pass, name)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] %s=%q is not an integer, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] %s=%q is not a number, using %v", key, v, fallback)
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[config] %s=%q is not a duration, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
