package client

import (
	"log"
	"strings"
	"time"

	"marketplace-checkout/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// InitDatabase opens the store named by databaseURL. Sqlite DSNs (file: or
// :memory:) get the sqlite driver; anything else is treated as a mysql DSN.
// TranslateError is required so unique-constraint violations surface as
// gorm.ErrDuplicatedKey on both drivers.
func InitDatabase(databaseURL string) *gorm.DB {
	gormCfg := &gorm.Config{TranslateError: true}

	var (
		db  *gorm.DB
		err error
	)
	if strings.HasPrefix(databaseURL, "file:") || strings.Contains(databaseURL, ":memory:") {
		db, err = gorm.Open(sqlite.Open(databaseURL), gormCfg)
	} else {
		db, err = gorm.Open(mysql.Open(databaseURL), gormCfg)
	}
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal(err)
	}

	// Connection pool (important for webhooks)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		log.Fatal(err)
	}

	return db
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Product{},
		&model.Address{},
		&model.Coupon{},
		&model.Order{},
		&model.OrderItem{},
		&model.Payment{},
		&model.WebhookEvent{},
	)
}
