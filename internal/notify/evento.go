// Package notify fans ledger changes out to live subscribers. Events are only
// produced after the owning transaction committed.
package notify

import (
	"context"
	"encoding/json"

	"ventaspos/internal/model"

	"github.com/shopspring/decimal"
)

// Canales de suscripcion.
const (
	CanalVentas = "ventas"
	CanalStock  = "stock"
)

// Tipos de evento.
const (
	TipoNuevaVenta = "new_sale"
	TipoStock      = "stock_update"
)

// Evento is the unit delivered to subscribers. Data is the flat JSON message
// clients receive, including its "event" key.
type Evento struct {
	Tipo  string          `json:"type"`
	Canal string          `json:"canal"`
	Data  json.RawMessage `json:"data"`
}

// Notifier delivers one event. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, ev Evento) error
}

// CanalValido reports whether canal is one clients may subscribe to.
func CanalValido(canal string) bool {
	return canal == CanalVentas || canal == CanalStock
}

type detalleVenta struct {
	ProductoID          uint            `json:"producto_id"`
	Cantidad            int             `json:"cantidad"`
	PrecioUnitario      decimal.Decimal `json:"precio_unitario"`
	DescuentoIndividual decimal.Decimal `json:"descuento_individual"`
}

type nuevaVentaMsg struct {
	Event             string          `json:"event"`
	VentaID           uint            `json:"venta_id"`
	TotalSinDescuento decimal.Decimal `json:"total_sin_descuento"`
	Descuento         decimal.Decimal `json:"descuento"`
	Total             decimal.Decimal `json:"total"`
	ClienteID         *uint           `json:"cliente_id"`
	FormaPago         string          `json:"forma_pago"`
	Pagado            bool            `json:"pagado"`
	Detalles          []detalleVenta  `json:"detalles"`
}

type stockMsg struct {
	Event      string `json:"event"`
	ProductoID uint   `json:"producto_id"`
	NewStock   int    `json:"new_stock"`
}

// NuevaVenta builds the new_sale event for a committed sale.
func NuevaVenta(v *model.Venta) Evento {
	msg := nuevaVentaMsg{
		Event:             TipoNuevaVenta,
		VentaID:           v.ID,
		TotalSinDescuento: v.TotalSinDescuento,
		Descuento:         v.Descuento,
		Total:             v.Total,
		ClienteID:         v.ClienteID,
		FormaPago:         v.FormaPago,
		Pagado:            v.Pagado,
		Detalles:          make([]detalleVenta, 0, len(v.Items)),
	}
	for _, it := range v.Items {
		msg.Detalles = append(msg.Detalles, detalleVenta{
			ProductoID:          it.ProductoID,
			Cantidad:            it.Cantidad,
			PrecioUnitario:      it.PrecioUnitario,
			DescuentoIndividual: it.DescuentoIndividual,
		})
	}
	return evento(TipoNuevaVenta, CanalVentas, msg)
}

// StockActualizado builds the stock_update event with the stock value seen
// inside the committing transaction.
func StockActualizado(productoID uint, stock int) Evento {
	return evento(TipoStock, CanalStock, stockMsg{Event: TipoStock, ProductoID: productoID, NewStock: stock})
}

func evento(tipo, canal string, msg any) Evento {
	// The message types above only hold marshalable fields.
	data, _ := json.Marshal(msg)
	return Evento{Tipo: tipo, Canal: canal, Data: data}
}
