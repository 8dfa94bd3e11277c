package infra

import (
	"bytes"
	"testing"
	"time"

	"ventaspos/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTicketPDF(t *testing.T) {
	v := &model.Venta{
		ID:                12,
		Fecha:             time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC),
		TotalSinDescuento: decimal.RequireFromString("30"),
		Descuento:         decimal.RequireFromString("10"),
		Total:             decimal.RequireFromString("24.3"),
		FormaPago:         "efectivo",
		Items: []model.VentaItem{
			{ProductoID: 1, Cantidad: 3, PrecioUnitario: decimal.RequireFromString("10"),
				DescuentoIndividual: decimal.RequireFromString("10"), Subtotal: decimal.RequireFromString("27")},
			{ProductoID: 99, Cantidad: 1, Subtotal: decimal.Zero},
		},
	}

	out, err := GenerateTicketPDF(TicketData{
		Tienda:  "Almacén Don José",
		Venta:   v,
		Nombres: map[uint]string{1: "Yerba mate con palo 1kg edición especial"},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Greater(t, len(out), 500)
}
