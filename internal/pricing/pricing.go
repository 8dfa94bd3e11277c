// Package pricing holds the stateless arithmetic of the ledger: line
// subtotals, sale totals with per-line and global discounts, and product
// margin. All amounts are shopspring decimals; nothing here is rounded except
// the margin.
package pricing

import (
	"ventaspos/internal/apierror"

	"github.com/shopspring/decimal"
)

var (
	cien     = decimal.NewFromInt(100)
	uno      = decimal.NewFromInt(1)
	maxPct   = cien
	minPct   = decimal.Zero
	margenDP = int32(2)
	// decimal places stored for prices and percentages
	decimales = int32(2)
)

// Linea is the pricing view of one sale or return line.
type Linea struct {
	PrecioUnitario      decimal.Decimal
	Cantidad            int
	DescuentoIndividual decimal.Decimal
}

// Totales is the result of SaleTotals. Bruto is persisted as
// total_sin_descuento and Total as the net amount; NetoIndividual is only
// informative.
type Totales struct {
	Bruto          decimal.Decimal
	NetoIndividual decimal.Decimal
	Total          decimal.Decimal
}

// ValidarPorcentaje rejects percentages outside [0,100] or with more than two
// decimal places.
func ValidarPorcentaje(campo string, pct decimal.Decimal) error {
	if pct.LessThan(minPct) || pct.GreaterThan(maxPct) {
		return apierror.Validationf(campo, "%s debe estar entre 0 y 100 (recibido %s)", campo, pct.String())
	}
	return ValidarEscala(campo, pct)
}

// ValidarEscala rejects amounts with more decimal places than the price and
// percentage columns store. A value that would be rounded on insert would
// no longer match the subtotal computed from it.
func ValidarEscala(campo string, v decimal.Decimal) error {
	if !v.Equal(v.Round(decimales)) {
		return apierror.Validationf(campo, "%s admite como maximo %d decimales (recibido %s)", campo, decimales, v.String())
	}
	return nil
}

// factor returns (1 - pct/100).
func factor(pct decimal.Decimal) decimal.Decimal {
	return uno.Sub(pct.Div(cien))
}

// LineSubtotal = precio * cantidad * (1 - pct/100).
func LineSubtotal(precio decimal.Decimal, cantidad int, pct decimal.Decimal) (decimal.Decimal, error) {
	if err := ValidarPorcentaje("descuento_individual", pct); err != nil {
		return decimal.Zero, err
	}
	return precio.Mul(decimal.NewFromInt(int64(cantidad))).Mul(factor(pct)), nil
}

// SaleTotals computes the gross amount (ignoring line discounts), the sum of
// discounted lines and the final total after the global discount.
func SaleTotals(lineas []Linea, descuentoGlobal decimal.Decimal) (Totales, error) {
	var t Totales
	for _, l := range lineas {
		sub, err := LineSubtotal(l.PrecioUnitario, l.Cantidad, l.DescuentoIndividual)
		if err != nil {
			return Totales{}, err
		}
		t.Bruto = t.Bruto.Add(l.PrecioUnitario.Mul(decimal.NewFromInt(int64(l.Cantidad))))
		t.NetoIndividual = t.NetoIndividual.Add(sub)
	}
	if err := ValidarPorcentaje("descuento", descuentoGlobal); err != nil {
		return Totales{}, err
	}
	t.Total = ApplyDiscount(t.NetoIndividual, descuentoGlobal)
	return t, nil
}

// ApplyDiscount returns monto * (1 - pct/100). The caller validates pct.
func ApplyDiscount(monto, pct decimal.Decimal) decimal.Decimal {
	return monto.Mul(factor(pct))
}

// MarginPct = (precio - costo) / costo * 100, or 0 when costo <= 0.
// Rounded to two decimal places so repeated recomputation is stable.
func MarginPct(costo, precio decimal.Decimal) decimal.Decimal {
	if !costo.IsPositive() {
		return decimal.Zero
	}
	return precio.Sub(costo).Div(costo).Mul(cien).Round(margenDP)
}
