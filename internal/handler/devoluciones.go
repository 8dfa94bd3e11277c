package handler

import (
	"net/http"

	"ventaspos/internal/dto"
	"ventaspos/internal/service"

	"github.com/gin-gonic/gin"
)

type DevolucionesHandler struct{ svc service.DevolucionService }

func NewDevolucionesHandler(svc service.DevolucionService) *DevolucionesHandler {
	return &DevolucionesHandler{svc: svc}
}

// Crear godoc
// @Summary      Registrar devolucion
// @Description  Devuelve unidades de una venta. Nunca se devuelve mas de lo vendido por producto.
// @Tags         devoluciones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.DevolucionRequest true "Devolucion"
// @Success      201  {object} dto.DevolucionResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/devoluciones [post]
func (h *DevolucionesHandler) Crear(c *gin.Context) {
	var req dto.DevolucionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *DevolucionesHandler) Listar(c *gin.Context) {
	var filter dto.DevolucionFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DevolucionesHandler) ObtenerPorID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DevolucionesHandler) Actualizar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.DevolucionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DevolucionesHandler) Eliminar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
