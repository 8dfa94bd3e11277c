package service

import (
	"context"
	"testing"

	"ventaspos/internal/apierror"
	"ventaspos/internal/dto"
	"ventaspos/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestClientes_CRUD(t *testing.T) {
	e := nuevoEntorno(t)
	ctx := context.Background()

	c, err := e.clientes.Crear(ctx, dto.ClienteRequest{
		Nombre: " Ana Perez ", Documento: ptr("20-123"), Telefono: ptr("  "),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Perez", c.Nombre)
	require.NotNil(t, c.Documento)
	assert.Equal(t, "20-123", *c.Documento)
	assert.Nil(t, c.Telefono, "blank is stored as null")

	_, err = e.clientes.Crear(ctx, dto.ClienteRequest{Nombre: "Otra", Documento: ptr("20-123")})
	assert.True(t, apierror.IsKind(err, apierror.KindValidation))

	// two clients without documento do not collide
	_, err = e.clientes.Crear(ctx, dto.ClienteRequest{Nombre: "Sin doc 1"})
	require.NoError(t, err)
	_, err = e.clientes.Crear(ctx, dto.ClienteRequest{Nombre: "Sin doc 2", Documento: ptr("")})
	require.NoError(t, err)

	// PUT replaces: the omitted documento is cleared
	got, err := e.clientes.Actualizar(ctx, c.ID, dto.ClienteRequest{Nombre: "Ana", Direccion: ptr("Calle 1")})
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Nombre)
	assert.Nil(t, got.Documento)
	require.NotNil(t, got.Direccion)
	assert.Equal(t, "Calle 1", *got.Direccion)

	_, err = e.clientes.Actualizar(ctx, c.ID, dto.ClienteRequest{Nombre: " "})
	assert.True(t, apierror.IsKind(err, apierror.KindValidation))
	_, err = e.clientes.Actualizar(ctx, 999, dto.ClienteRequest{Nombre: "X"})
	assert.True(t, apierror.IsKind(err, apierror.KindNotFound))

	list, err := e.clientes.Listar(ctx, dto.ClienteFilter{Nombre: "sin doc"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, list.Total)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 50, list.Limit)

	require.NoError(t, e.clientes.Eliminar(ctx, c.ID))
	_, err = e.clientes.ObtenerPorID(ctx, c.ID)
	assert.True(t, apierror.IsKind(err, apierror.KindNotFound))
	assert.True(t, apierror.IsKind(e.clientes.Eliminar(ctx, c.ID), apierror.KindNotFound))
}

func TestVenta_ClienteInexistenteNoDejaRastro(t *testing.T) {
	e := nuevoEntorno(t)
	pid := e.crearProducto(t, "P", 10, "5", "10")

	_, err := e.ventas.Crear(context.Background(), 1, dto.CrearVentaRequest{
		ClienteID: ptr(uint(42)),
		Items:     []dto.ItemVentaRequest{{ProductoID: pid, Cantidad: 1, PrecioUnitario: d("10")}},
	})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindNotFound, apiErr.Kind)
	assert.Zero(t, e.contar(t, &model.Venta{}))
	assert.Equal(t, 10, e.stock(t, pid))

	v := e.venderA(t, pid)
	_, err = e.ventas.Actualizar(context.Background(), v.ID, 1, dto.ActualizarVentaRequest{
		ClienteID: ptr(uint(42)),
		Items:     []dto.ItemSubtotalRequest{{ProductoID: pid, Subtotal: d("27")}},
	})
	assert.True(t, apierror.IsKind(err, apierror.KindNotFound))
	got, err := e.ventas.ObtenerPorID(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ClienteID)
}

func TestEliminarCliente_ConVentasEsConflicto(t *testing.T) {
	e := nuevoEntorno(t)
	ctx := context.Background()
	pid := e.crearProducto(t, "P", 10, "5", "10")
	c, err := e.clientes.Crear(ctx, dto.ClienteRequest{Nombre: "Ana"})
	require.NoError(t, err)

	v, err := e.ventas.Crear(ctx, 1, dto.CrearVentaRequest{
		ClienteID: &c.ID,
		Items:     []dto.ItemVentaRequest{{ProductoID: pid, Cantidad: 1, PrecioUnitario: d("10")}},
	})
	require.NoError(t, err)
	require.NotNil(t, v.ClienteID)
	assert.Equal(t, c.ID, *v.ClienteID)

	err = e.clientes.Eliminar(ctx, c.ID)
	assert.True(t, apierror.IsKind(err, apierror.KindConflict))
	assert.EqualValues(t, 1, e.contar(t, &model.Cliente{}))

	// once the sale is gone the client can be removed
	require.NoError(t, e.ventas.Eliminar(ctx, v.ID))
	require.NoError(t, e.clientes.Eliminar(ctx, c.ID))
	assert.Zero(t, e.contar(t, &model.Cliente{}))
}
