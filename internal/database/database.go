package database

import (
	"time"

	"pharmacy-manager/internal/docstore"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewStore builds the document store for one collection. An empty DSN
// selects the in-memory store, so a service can run without a database.
func NewStore(dsn, collection string, schema []string) (docstore.Store, error) {
	if dsn == "" {
		return docstore.NewMemoryStore(schema), nil
	}

	db, err := Connect(dsn)
	if err != nil {
		return nil, err
	}
	return docstore.NewGormStore(db, collection, schema), nil
}

// Connect opens the MySQL connection backing the document stores and runs
// the schema migration. The caller owns the returned handle.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&docstore.Document{}); err != nil {
		return nil, err
	}

	// Connection pool
	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	return db, nil
}
