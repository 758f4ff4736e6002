package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dormstay/config"
	"dormstay/internal/model"
)

// Models lists every persisted type in migration order.
var Models = []any{
	&model.Dorm{},
	&model.Student{},
	&model.Block{},
	&model.Room{},
	&model.BookingWindow{},
	&model.Notice{},
	&model.Session{},
	&model.PushSubscription{},
	&model.BookingEvent{},
}

// Init opens the configured database, applies pool settings and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := Dialector(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(LogLevel(cfg.LogLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	log.Info().Str("driver", cfg.Driver).Msg("running database migrations")
	if err := Migrate(db); err != nil {
		return nil, err
	}

	if cfg.Driver != "sqlite" {
		if err := applyCheckConstraints(db); err != nil {
			log.Warn().Err(err).Msg("failed to apply some check constraints, continuing without them")
		}
	}

	log.Info().Msg("database initialization complete")
	return db, nil
}

// Dialector picks the gorm driver for the configured backend.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}

// LogLevel maps a config string onto the gorm logger level.
func LogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	}
	return logger.Warn
}

// applyCheckConstraints adds value checks that AutoMigrate cannot express.
// Constraints that already exist make the statement fail; those are skipped.
func applyCheckConstraints(db *gorm.DB) error {
	checks := []struct {
		table, name, ddl string
	}{
		{"rooms", "chk_rooms_capacity_positive", "ALTER TABLE rooms ADD CONSTRAINT chk_rooms_capacity_positive CHECK (capacity > 0)"},
		{"rooms", "chk_rooms_cost_non_negative", "ALTER TABLE rooms ADD CONSTRAINT chk_rooms_cost_non_negative CHECK (cost >= 0)"},
	}

	// Blocks with a non-positive layout are stored as given and simply get no rooms.
	for _, name := range []string{"chk_blocks_floor_count", "chk_blocks_rooms_per_floor"} {
		if db.Migrator().HasConstraint("blocks", name) {
			if err := db.Migrator().DropConstraint("blocks", name); err != nil {
				log.Warn().Err(err).Str("constraint", name).Msg("failed to drop block layout constraint")
			}
		}
	}

	var failed []string
	for _, c := range checks {
		if db.Migrator().HasConstraint(c.table, c.name) {
			continue
		}
		if err := db.Exec(c.ddl).Error; err != nil {
			failed = append(failed, c.name)
			log.Debug().Err(err).Str("constraint", c.name).Msg("check constraint not applied")
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("constraints not applied: %s", strings.Join(failed, ", "))
	}
	return nil
}
