package pricing

import (
	"testing"

	"ventaspos/internal/apierror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestLineSubtotal_ConDescuento(t *testing.T) {
	// 10.00 x 3 con 10% = 27.00
	sub, err := LineSubtotal(d("10.00"), 3, d("10"))
	require.NoError(t, err)
	assert.True(t, sub.Equal(d("27")), "got %s", sub)
}

func TestLineSubtotal_DescuentoFueraDeRango(t *testing.T) {
	for _, pct := range []string{"-0.01", "100.5", "150"} {
		_, err := LineSubtotal(d("10"), 1, d(pct))
		assert.True(t, apierror.IsKind(err, apierror.KindValidation), "pct %s", pct)
	}
}

func TestLineSubtotal_Bordes(t *testing.T) {
	sub, err := LineSubtotal(d("9.99"), 2, d("100"))
	require.NoError(t, err)
	assert.True(t, sub.IsZero())

	sub, err = LineSubtotal(d("9.99"), 2, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, sub.Equal(d("19.98")))
}

func TestSaleTotals(t *testing.T) {
	lineas := []Linea{
		{PrecioUnitario: d("10.00"), Cantidad: 3, DescuentoIndividual: d("10")},
		{PrecioUnitario: d("4.50"), Cantidad: 2, DescuentoIndividual: decimal.Zero},
		{PrecioUnitario: d("3.33"), Cantidad: 7, DescuentoIndividual: d("33.3")},
	}
	tot, err := SaleTotals(lineas, d("5"))
	require.NoError(t, err)

	// bruto = 30 + 9 + 23.31
	assert.True(t, tot.Bruto.Equal(d("62.31")), "bruto %s", tot.Bruto)

	// Same formula in float64; must agree within 1e-6.
	neto := 10.0*3*(1-10.0/100) + 4.5*2 + 3.33*7*(1-33.3/100)
	esperado := neto * (1 - 5.0/100)
	assert.InDelta(t, esperado, tot.Total.InexactFloat64(), 1e-6)
	assert.InDelta(t, neto, tot.NetoIndividual.InexactFloat64(), 1e-6)
}

func TestSaleTotals_DescuentoGlobalInvalido(t *testing.T) {
	_, err := SaleTotals([]Linea{{PrecioUnitario: d("1"), Cantidad: 1}}, d("150"))
	e, ok := apierror.As(err)
	require.True(t, ok)
	assert.Equal(t, apierror.KindValidation, e.Kind)
	assert.Equal(t, "descuento", e.Fields["campo"])
}

func TestSaleTotals_SinLineas(t *testing.T) {
	tot, err := SaleTotals(nil, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, tot.Bruto.IsZero())
	assert.True(t, tot.Total.IsZero())
}

func TestMarginPct(t *testing.T) {
	assert.True(t, MarginPct(d("5"), d("10")).Equal(d("100")))
	assert.True(t, MarginPct(d("0"), d("10")).IsZero())
	assert.True(t, MarginPct(d("3"), d("4")).Equal(d("33.33")))

	// Recomputing from identical inputs is numerically identical.
	a := MarginPct(d("7.77"), d("12.34"))
	b := MarginPct(d("7.77"), d("12.34"))
	assert.True(t, a.Equal(b))
}

func TestValidarEscala(t *testing.T) {
	assert.NoError(t, ValidarEscala("precio_unitario", d("3.33")))
	assert.NoError(t, ValidarEscala("precio_unitario", d("3.330")))
	assert.NoError(t, ValidarEscala("precio_unitario", d("10")))

	err := ValidarEscala("precio_unitario", d("3.333"))
	e, ok := apierror.As(err)
	require.True(t, ok)
	assert.Equal(t, apierror.KindValidation, e.Kind)
	assert.Equal(t, "precio_unitario", e.Fields["campo"])
}

func TestLineSubtotal_DescuentoConTresDecimales(t *testing.T) {
	_, err := LineSubtotal(d("10"), 1, d("12.345"))
	assert.True(t, apierror.IsKind(err, apierror.KindValidation))
}
