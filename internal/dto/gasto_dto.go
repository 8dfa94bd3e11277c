package dto

import "github.com/shopspring/decimal"

// GastoRequest is used for create and full replace (PUT). The user comes
// from the token, not from the body.
type GastoRequest struct {
	Monto       decimal.Decimal `json:"monto"`
	Descripcion *string         `json:"descripcion" validate:"omitempty,max=255"`
}

// GastoFilter is bound from the query string of GET /v1/gastos.
type GastoFilter struct {
	Desde string `form:"desde"` // YYYY-MM-DD, inclusive
	Hasta string `form:"hasta"` // YYYY-MM-DD, inclusive
	Page  int    `form:"page,default=1"   validate:"min=1"`
	Limit int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type GastoResponse struct {
	ID          uint            `json:"id"`
	Fecha       string          `json:"fecha"`
	Monto       decimal.Decimal `json:"monto"`
	Descripcion *string         `json:"descripcion"`
	UsuarioID   uint            `json:"usuario_id"`
}

type GastoListResponse struct {
	Data  []GastoResponse `json:"data"`
	Total int64           `json:"total"`
	// Sum of Monto over every matching row, not only this page.
	TotalMonto decimal.Decimal `json:"total_monto"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
}
