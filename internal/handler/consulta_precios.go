package handler

import (
	"net/http"
	"strings"

	"ventaspos/internal/apierror"
	"ventaspos/internal/service"

	"github.com/gin-gonic/gin"
)

// ConsultaPreciosHandler serves the public price check endpoint.
// No authentication required and no side effects besides the cache.
type ConsultaPreciosHandler struct {
	svc service.ProductoService
}

func NewConsultaPreciosHandler(svc service.ProductoService) *ConsultaPreciosHandler {
	return &ConsultaPreciosHandler{svc: svc}
}

// GetPrecioPorCodigo godoc
// @Summary Consulta de precio por codigo (sin autenticacion)
// @Tags precio
// @Produce json
// @Param codigo path string true "Codigo del producto"
// @Success 200 {object} dto.ConsultaPreciosResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/precio/{codigo} [get]
func (h *ConsultaPreciosHandler) GetPrecioPorCodigo(c *gin.Context) {
	codigo := strings.TrimSpace(c.Param("codigo"))
	if codigo == "" {
		c.JSON(http.StatusBadRequest, apierror.New("codigo requerido"))
		return
	}
	resp, err := h.svc.ConsultarPrecio(c.Request.Context(), codigo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
