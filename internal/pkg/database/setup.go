package database

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ManuelReschke/PennyFox/app/models"
	"github.com/ManuelReschke/PennyFox/internal/pkg/env"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

// DSN builds the MySQL data source name from DB_* settings.
func DSN() string {
	// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=Local"
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		env.GetEnv("DB_USER", ""),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", ""),
	)
}

// Models lists every table the application owns.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.UserSettings{},
		&models.Subscription{},
		&models.Bank{},
		&models.CreditCard{},
		&models.Category{},
		&models.Transaction{},
		&models.Loan{},
		&models.Alert{},
		&models.Goal{},
		&models.Notification{},
	}
}

// SetupDatabase connects with retries. DB_AUTO_MIGRATE=true also runs
// AutoMigrate; production schemas come from cmd/migrate.
func SetupDatabase() (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	level := logger.Warn
	if env.IsDev() {
		level = logger.Info
	}

	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       DSN(),
			DefaultStringSize:         256,   // default size for string fields
			DisableDatetimePrecision:  true,  // disable datetime precision, which not supported before MySQL 5.6
			DontSupportRenameIndex:    true,  // drop & create when rename index, rename index not supported before MySQL 5.7, MariaDB
			DontSupportRenameColumn:   true,  // `change` when rename column, rename column not supported before MySQL 8, MariaDB
			SkipInitializeWithVersion: false, // auto configure based on currently MySQL version
		}), &gorm.Config{Logger: logger.Default.LogMode(level)})
		if err == nil {
			break
		}

		log.Warnf("[Database] Failed to connect (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(env.GetEnvInt("DB_MAX_OPEN_CONNS", 20))
	sqlDB.SetMaxIdleConns(env.GetEnvInt("DB_MAX_IDLE_CONNS", 5))
	sqlDB.SetConnMaxLifetime(env.GetEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute))

	if env.GetEnvBool("DB_AUTO_MIGRATE", false) {
		if err := db.AutoMigrate(Models()...); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
		log.Info("[Database] AutoMigrate finished")
	}

	log.Infof("[Database] Connected to %s", env.GetEnv("DB_HOST", "127.0.0.1"))
	return db, nil
}
