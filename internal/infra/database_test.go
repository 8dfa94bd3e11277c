package infra

import (
	"testing"

	"ventaspos/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatabase_SQLiteMigraYAplicaCheck(t *testing.T) {
	db, err := NewDatabase("sqlite", ":memory:")
	require.NoError(t, err)

	p := model.Producto{
		Nombre: "Arroz", Codigo: "ARR-1", StockActual: 1, Activo: true,
		PrecioCosto: decimal.NewFromInt(1), PrecioUnitario: decimal.NewFromInt(2),
	}
	require.NoError(t, db.Create(&p).Error)

	// stock_actual >= 0 is enforced by the database
	err = db.Model(&model.Producto{}).Where("id = ?", p.ID).Update("stock_actual", -1).Error
	assert.Error(t, err)

	// idempotent
	assert.NoError(t, RunMigrations(db))
}

func TestNewDatabase_DriverDesconocido(t *testing.T) {
	_, err := NewDatabase("oracle", "x")
	assert.Error(t, err)
}

func TestNewDatabase_SQLiteCreaTablas(t *testing.T) {
	db, err := NewDatabase("sqlite", ":memory:")
	require.NoError(t, err)

	for _, tabla := range []string{
		"productos", "ventas", "venta_items", "devoluciones", "devolucion_items",
		"movimientos_stock", "historial_precios", "categorias", "clientes", "gastos",
	} {
		assert.True(t, db.Migrator().HasTable(tabla), tabla)
	}
	assert.True(t, db.Migrator().HasIndex(&model.Venta{}, "idx_ventas_fecha_id"))
}
