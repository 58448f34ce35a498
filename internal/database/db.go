package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/iliyamo/recipe-share/internal/model"
)

// Params are the connection settings for MySQL.
type Params struct {
	User string
	Pass string
	Host string
	Port string
	Name string
}

// DSN renders the driver DSN. parseTime maps DATETIME to time.Time and
// loc=UTC keeps stored times consistent.
func (p Params) DSN() string {
	mc := mysql.NewConfig()
	mc.User = p.User
	mc.Passwd = p.Pass
	mc.Net = "tcp"
	mc.Addr = p.Host + ":" + p.Port
	mc.DBName = p.Name
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// Open connects to MySQL through gorm and verifies the connection.
func Open(ctx context.Context, p Params) (*gorm.DB, error) {
	db, err := gorm.Open(gormmysql.Open(p.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	if err := Configure(ctx, db); err != nil {
		return nil, err
	}
	return db, nil
}

// Configure applies pool settings and pings with a timeout.
func Configure(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Migrate creates or updates the schema for every persistent model.
func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.PasswordResetToken{},
		&model.Recipe{},
		&model.Ingredient{},
		&model.Step{},
		&model.Tag{},
		&model.Favorite{},
		&model.Image{},
	)
}

// Close releases the pooled connections behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
