package handler

import (
	"net/http"

	"ventaspos/internal/dto"
	"ventaspos/internal/service"

	"github.com/gin-gonic/gin"
)

// HistorialPreciosHandler serves the price-change history of a product.
type HistorialPreciosHandler struct {
	svc service.ProductoService
}

func NewHistorialPreciosHandler(svc service.ProductoService) *HistorialPreciosHandler {
	return &HistorialPreciosHandler{svc: svc}
}

// ListarPorProducto godoc
// @Summary      Historial de precios de un producto
// @Description  Retorna los cambios de costo y precio de un producto, del mas reciente al mas antiguo.
// @Tags         productos
// @Security     BearerAuth
// @Param        id     path     int     true  "ID del producto"
// @Param        motivo query    string  false "alta | manual"
// @Param        desde  query    string  false "Desde YYYY-MM-DD"
// @Param        hasta  query    string  false "Hasta YYYY-MM-DD"
// @Param        page   query    int     false "Pagina (default 1)"
// @Param        limit  query    int     false "Registros por pagina (default 50, max 200)"
// @Success      200    {object} dto.HistorialPrecioListResponse
// @Failure      400    {object} apierror.APIError
// @Failure      404    {object} apierror.APIError
// @Failure      422    {object} apierror.APIError
// @Router       /v1/productos/{id}/historial-precios [get]
func (h *HistorialPreciosHandler) ListarPorProducto(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var filter dto.HistorialPrecioFilter
	if !bindQuery(c, &filter) {
		return
	}

	resp, err := h.svc.HistorialPrecios(c.Request.Context(), id, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
