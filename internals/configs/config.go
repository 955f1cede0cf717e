package configs

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

var (
	JWTSecret string
	Cfg       AppConfig
)

// AppConfig snapshot ENV yang dipakai saat boot.
type AppConfig struct {
	Port           string
	Store          string // "postgres" | "memory"
	JWTSecret      string
	RequestTimeout time.Duration
	CorsOrigins    []string
	SchoolTZ       string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	DBSSLMode  string

	OSSEndpoint  string
	OSSAccessKey string
	OSSSecretKey string
	OSSBucket    string
	OSSPrefix    string

	SlipAutogenEnabled   bool
	SlipAutogenCron      string
	SlipAutogenDaysAhead int
}

// =======================
// ENV LOADER
// =======================
func LoadEnv() AppConfig {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ .env tidak ditemukan, pakai ENV sistem")
		} else {
			log.Println("✅ .env file berhasil dimuat!")
		}
	} else {
		log.Println("🚀 Running in Railway, menggunakan ENV dari sistem")
	}

	Cfg = FromEnv()
	JWTSecret = Cfg.JWTSecret

	if JWTSecret == "" {
		log.Println("❌ JWT_SECRET belum diset!")
	} else {
		log.Println("✅ JWT_SECRET berhasil dimuat.")
	}
	return Cfg
}

// FromEnv membaca AppConfig tanpa menyentuh file .env.
func FromEnv() AppConfig {
	return AppConfig{
		Port:           GetEnv("PORT", "3000"),
		Store:          strings.ToLower(GetEnv("STORE", "postgres")),
		JWTSecret:      GetEnv("JWT_SECRET"),
		RequestTimeout: GetEnvDuration("REQUEST_TIMEOUT", 5*time.Second),
		CorsOrigins:    GetEnvList("CORS_ORIGINS", "http://localhost:5173,http://localhost:3001"),
		SchoolTZ:       GetEnv("SCHOOL_TZ", "Asia/Jakarta"),

		DBUser:     GetEnv("DB_USER"),
		DBPassword: GetEnv("DB_PASSWORD"),
		DBHost:     GetEnv("DB_HOST", "localhost"),
		DBPort:     GetEnv("DB_PORT", "5432"),
		DBName:     GetEnv("DB_NAME"),
		DBSSLMode:  GetEnv("DB_SSLMODE", "require"),

		OSSEndpoint:  GetEnv("ALI_OSS_ENDPOINT"),
		OSSAccessKey: GetEnv("ALI_OSS_ACCESS_KEY"),
		OSSSecretKey: GetEnv("ALI_OSS_SECRET_KEY"),
		OSSBucket:    GetEnv("ALI_OSS_BUCKET"),
		OSSPrefix:    GetEnv("ALI_OSS_PREFIX", "exports"),

		SlipAutogenEnabled:   GetEnvBool("SLIP_AUTOGEN_ENABLED", false),
		SlipAutogenCron:      GetEnv("SLIP_AUTOGEN_CRON", "30 1 * * *"),
		SlipAutogenDaysAhead: GetEnvInt("SLIP_AUTOGEN_DAYS_AHEAD", 7),
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if (!exists || strings.TrimSpace(value) == "") && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return strings.TrimSpace(value)
}

func GetEnvBool(key string, def bool) bool {
	v := GetEnv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func GetEnvInt(key string, def int) int {
	v := GetEnv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func GetEnvDuration(key string, def time.Duration) time.Duration {
	v := GetEnv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// GetEnvList memecah nilai comma-separated, buang elemen kosong.
func GetEnvList(key, def string) []string {
	raw := GetEnv(key, def)
	out := make([]string, 0)
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c AppConfig) OSSConfigured() bool {
	return c.OSSEndpoint != "" && c.OSSAccessKey != "" && c.OSSSecretKey != "" && c.OSSBucket != ""
}

// =======================
// GORM LOGGER CUSTOM
// =======================
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
}

func NewGormLogger() gormLogger.Interface {
	level := gormLogger.Warn
	if GetEnvBool("DB_LOG_QUERIES", false) {
		level = gormLogger.Info
	}
	return &GormLogger{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      level,
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	cp := *l
	cp.LogLevel = level
	return &cp
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Info {
		log.Printf("[INFO] "+msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Warn {
		log.Printf("[WARN] "+msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Error {
		log.Printf("[ERROR] "+msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	file := utils.FileWithLineNum()

	switch {
	case err != nil && l.LogLevel >= gormLogger.Error && !isRecordNotFound(err):
		log.Printf("[ERROR] %s | %v | %s | %d rows | %s", file, err, elapsed, rows, sql)
	case elapsed > l.SlowThreshold && l.LogLevel >= gormLogger.Warn:
		log.Printf("[SLOW SQL] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	case l.LogLevel >= gormLogger.Info:
		log.Printf("[QUERY] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	}
}

func isRecordNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "record not found")
}
