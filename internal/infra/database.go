package infra

import (
	"fmt"
	"time"

	"ventaspos/internal/model"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens a GORM connection for the given driver ("postgres" or
// "sqlite"), runs AutoMigrate and then applies the idempotent SQL patches
// that GORM cannot express.
func NewDatabase(driver, dsn string) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}

	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(dsn), gcfg)
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(dsn), gcfg)
	default:
		return nil, fmt.Errorf("driver de base de datos no soportado: %q", driver)
	}
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// SQLite has a single writer; one connection serializes transactions
		// and keeps ":memory:" databases alive for the pool's lifetime.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("sqlite pragma: %w", err)
		}
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
	}

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates every table and applies schema patches.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Categoria{},
		&model.Cliente{},
		&model.Producto{},
		&model.Venta{},
		&model.VentaItem{},
		&model.Devolucion{},
		&model.DevolucionItem{},
		&model.MovimientoStock{},
		&model.HistorialPrecio{},
		&model.Gasto{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL that both PostgreSQL and SQLite
// accept. Each statement uses IF NOT EXISTS so re-running is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// low-stock alert query
		`CREATE INDEX IF NOT EXISTS idx_productos_stock_bajo
		    ON productos (stock_actual)
		    WHERE activo AND stock_actual <= stock_bajo`,
		// listing order of sales and returns
		`CREATE INDEX IF NOT EXISTS idx_ventas_fecha_id ON ventas (fecha DESC, id DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_devoluciones_fecha_id ON devoluciones (fecha DESC, id DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_gastos_fecha_id ON gastos (fecha DESC, id DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_devolucion_items_producto
		    ON devolucion_items (devolucion_id, producto_id)`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
