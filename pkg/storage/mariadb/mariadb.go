package mariadb

import (
	"database/sql"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/c14220110/rekap-billing/config"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

var (
	db      *sqlx.DB
	once    sync.Once
	openErr error
)

// DSN menyusun DSN go-sql-driver/mysql dari konfigurasi.
// Format: username:password@tcp(host:port)/dbname?parseTime=true&loc=Asia%2FJakarta
func DSN(cfg *config.Config) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=%s",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName, url.QueryEscape(cfg.Timezone))
}

// Connect membuka koneksi ke database SIMRS (MariaDB/MySQL) sekali per proses.
func Connect(cfg *config.Config) (*sqlx.DB, error) {
	once.Do(func() {
		var raw *sql.DB
		raw, openErr = sql.Open("mysql", DSN(cfg))
		if openErr != nil {
			openErr = fmt.Errorf("gagal membuka koneksi ke database: %w", openErr)
			return
		}
		raw.SetMaxOpenConns(20)
		raw.SetMaxIdleConns(5)
		raw.SetConnMaxLifetime(30 * time.Minute)

		if openErr = raw.Ping(); openErr != nil {
			raw.Close()
			openErr = fmt.Errorf("gagal melakukan ping ke database: %w", openErr)
			return
		}
		db = sqlx.NewDb(raw, "mysql")
	})
	return db, openErr
}
