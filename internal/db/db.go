package db

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// IsSQLite reports whether dsn points at a sqlite database. Anything else is
// treated as a MySQL DSN (user:pass@tcp(host:port)/db).
func IsSQLite(dsn string) bool {
	d := strings.TrimSpace(dsn)
	return strings.HasPrefix(d, "file:") ||
		d == ":memory:" ||
		strings.HasSuffix(d, ".db") ||
		strings.HasSuffix(d, ".sqlite")
}

func Open(dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if IsSQLite(dsn) {
		dialector = sqlite.Open(dsn)
	} else {
		dialector = mysql.Open(dsn)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("db handle: %w", err)
	}
	if IsSQLite(dsn) {
		// sqlite serializes writers
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return gdb, nil
}

// Connect is Open for process startup: a failure is fatal.
func Connect(dsn string) *gorm.DB {
	gdb, err := Open(dsn)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	return gdb
}
