package database

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ManuelReschke/Urlsy/app/models"
	"github.com/ManuelReschke/Urlsy/internal/pkg/config"
)

const retryDelay = 2 * time.Second

var DB *gorm.DB

// SetupDatabase opens the MySQL connection, retrying with exponential backoff
// while the database container is still starting.
func SetupDatabase(cfg config.DBConfig) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryDelay
	bmr := backoff.WithMaxRetries(b, cfg.ConnectRetries)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		conn, err := Open(mysql.New(mysql.Config{
			DSN:                       cfg.DSN(),
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		}))
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("failed to connect to database")
			return err
		}
		DB = conn
		return nil
	}, bmr)
	if err != nil {
		panic(fmt.Errorf("database unavailable after %d attempts: %w", attempt, err))
	}

	sqlDB, err := DB.DB()
	if err == nil {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if cfg.AutoMigrate {
		if err := AutoMigrate(DB); err != nil {
			panic(err)
		}
	}
}

// Open opens a GORM connection with the settings every environment shares.
// Unique violations are translated to gorm.ErrDuplicatedKey.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
}

// binaryColumns are compared byte-wise on MySQL. Short codes are
// case-sensitive base62, so abc1234 and ABC1234 are different links.
var binaryColumns = []struct {
	table, column, definition string
}{
	{"links", "code", "VARCHAR(64) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL"},
}

// AutoMigrate creates or updates the schema of all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return err
	}
	for _, stmt := range collationStatements(db.Dialector.Name()) {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("applying binary collation: %w", err)
		}
	}
	return nil
}

// collationStatements returns the column changes the struct tags cannot
// express portably. SQLite already compares text byte-wise.
func collationStatements(dialect string) []string {
	if dialect != "mysql" {
		return nil
	}
	stmts := make([]string, 0, len(binaryColumns))
	for _, c := range binaryColumns {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE `%s` MODIFY `%s` %s", c.table, c.column, c.definition))
	}
	return stmts
}

// Ping checks the connection within the given context
func Ping(ctx context.Context) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
