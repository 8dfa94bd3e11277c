package notify

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"ventaspos/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recibir(t *testing.T, s *Suscripcion) Evento {
	t.Helper()
	select {
	case ev := <-s.Eventos:
		return ev
	case <-time.After(time.Second):
		t.Fatal("evento no recibido")
		return Evento{}
	}
}

func TestHub_BroadcastPorCanal(t *testing.T) {
	h := NewHub(4)
	ventas, err := h.Subscribe(CanalVentas)
	require.NoError(t, err)
	stock, err := h.Subscribe(CanalStock)
	require.NoError(t, err)

	require.NoError(t, h.Notify(context.Background(), StockActualizado(7, 3)))

	ev := recibir(t, stock)
	assert.Equal(t, TipoStock, ev.Tipo)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(ev.Data, &msg))
	assert.Equal(t, "stock_update", msg["event"])
	assert.EqualValues(t, 7, msg["producto_id"])
	assert.EqualValues(t, 3, msg["new_stock"])

	select {
	case <-ventas.Eventos:
		t.Fatal("el canal ventas no debe recibir stock_update")
	default:
	}
}

func TestHub_CanalDesconocido(t *testing.T) {
	_, err := NewHub(1).Subscribe("caja")
	assert.Error(t, err)
}

func TestHub_SuscriptorLentoNoBloquea(t *testing.T) {
	h := NewHub(1)
	lento, err := h.Subscribe(CanalStock)
	require.NoError(t, err)
	rapido, err := h.Subscribe(CanalStock)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			_ = h.Notify(context.Background(), StockActualizado(1, i))
			<-rapido.Eventos
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast bloqueado por suscriptor lento")
	}
	// the slow one kept only the first event
	assert.Len(t, lento.Eventos, 1)
}

func TestHub_UnsubscribeConcurrenteConBroadcast(t *testing.T) {
	h := NewHub(8)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s, err := h.Subscribe(CanalVentas)
			if err != nil {
				return
			}
			h.Unsubscribe(s)
			h.Unsubscribe(s)
		}()
		go func() {
			defer wg.Done()
			_ = h.Notify(context.Background(), NuevaVenta(&model.Venta{ID: 1}))
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, h.Suscriptores(CanalVentas))
}

func TestNuevaVenta_Payload(t *testing.T) {
	cliente := uint(9)
	v := &model.Venta{
		ID:                3,
		TotalSinDescuento: decimal.RequireFromString("30"),
		Descuento:         decimal.RequireFromString("10"),
		Total:             decimal.RequireFromString("24.3"),
		ClienteID:         &cliente,
		FormaPago:         "tarjeta",
		Items: []model.VentaItem{
			{ProductoID: 1, Cantidad: 3, PrecioUnitario: decimal.RequireFromString("10"), DescuentoIndividual: decimal.RequireFromString("10")},
		},
	}
	ev := NuevaVenta(v)
	assert.Equal(t, CanalVentas, ev.Canal)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(ev.Data, &msg))
	assert.Equal(t, "new_sale", msg["event"])
	assert.EqualValues(t, 3, msg["venta_id"])
	assert.Equal(t, "24.3", msg["total"])
	assert.EqualValues(t, 9, msg["cliente_id"])
	assert.Len(t, msg["detalles"], 1)
}
