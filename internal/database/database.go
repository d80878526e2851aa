package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shopwala/shopwala-golang/internal/config"
	"github.com/shopwala/shopwala-golang/internal/models"
)

// Open initializes the primary connection pool and wraps it in gorm.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case "sqlite":
		return OpenSQLite(cfg.DSN)
	case "mysql":
		return OpenMySQL(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// OpenMySQL configures the pool on a plain *sql.DB first and hands the
// connection to gorm, so pool settings stay in one place.
func OpenMySQL(cfg config.DatabaseConfig) (*gorm.DB, error) {
	// parseTime is required to scan DATETIME columns into time.Time.
	dsnCfg, err := mysqldriver.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	dsnCfg.ParseTime = true

	sqlDB, err := sql.Open("mysql", dsnCfg.FormatDSN())
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		zap.L().Error("error connecting to database", zap.String("addr", dsnCfg.Addr), zap.Error(err))
		return nil, err
	}

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB}), gormConfig())
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	zap.L().Info("database connection pool established", zap.String("driver", "mysql"), zap.String("addr", dsnCfg.Addr))
	return db, nil
}

// OpenSQLite is used for local runs and tests.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared across queries.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Models lists every table in dependency order.
func Models() []any {
	return []any{
		&models.Location{},
		&models.Category{},
		&models.ProductAttribute{},
		&models.AttributeOption{},
		&models.CategoryAttribute{},
		&models.Product{},
		&models.ProductImage{},
		&models.ProductSpecification{},
		&models.ProductVariant{},
		&models.ProductAttributeValue{},
		&models.CartItem{},
		&models.WishlistItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
		&models.DeliveryAssignment{},
		&models.ProductChatThread{},
		&models.ProductChatMessage{},
	}
}

// Migrate creates or updates the schema ("code first").
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}

// Close releases the underlying pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping is used by the health endpoint.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// IsDuplicateKey reports a unique-constraint violation from either driver.
func IsDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysqldriver.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1062
}
