package database

import (
	"fmt"
	"log"
	"net/url"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"schoolku_backend/internals/configs"
	"schoolku_backend/internals/databases/migrations"
)

var DB *gorm.DB

// BuildDSN menyusun DSN postgres + statement_timeout.
// Catatan: kalau pakai PgBouncer, arahkan host/port ke PgBouncer dan biarkan PreferSimpleProtocol=true
func BuildDSN(cfg configs.AppConfig) string {
	sslmode := cfg.DBSSLMode
	if sslmode == "" {
		sslmode = "require"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=schoolku_exams&options=%s",
		url.QueryEscape(cfg.DBUser),
		url.QueryEscape(cfg.DBPassword),
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		sslmode,
		url.QueryEscape("-c statement_timeout=3000"),
	)
}

func ConnectDB(cfg configs.AppConfig) {
	log.Println("🔌 Koneksi ke PostgreSQL...")

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  BuildDSN(cfg),
		PreferSimpleProtocol: true, // 👍 cocok untuk PgBouncer (transaction pooling)
	}), &gorm.Config{
		Logger: configs.NewGormLogger(),
	})
	if err != nil {
		log.Fatalf("❌ Gagal konek DB: %v", err)
	}
	DB = db
	log.Println("✅ DB connected.")
}

func TunePool() {
	sqlDB, err := DB.DB()
	if err != nil {
		log.Printf("pool tune err: %v", err)
		return
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

// Migrate menjalankan migration SQL yang di-embed.
func Migrate() {
	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatalf("❌ migrate: %v", err)
	}
	if err := migrations.Up(sqlDB); err != nil {
		log.Fatalf("❌ migrate: %v", err)
	}
	log.Println("✅ Migrations applied.")
}

func WarmUpQueries() {
	go func() {
		time.Sleep(500 * time.Millisecond) // beri waktu server naik
		if err := Ping(); err != nil {
			log.Printf("warm-up ping err: %v", err)
		}
	}()
}

func Ping() error {
	if DB == nil {
		return fmt.Errorf("db not initialized")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
