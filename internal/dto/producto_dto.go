package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearProductoRequest struct {
	Nombre         string          `json:"nombre"          validate:"required,min=2,max=100"`
	Codigo         string          `json:"codigo"          validate:"required,max=50"`
	Descripcion    *string         `json:"descripcion"     validate:"omitempty,max=255"`
	StockActual    int             `json:"stock_actual"`
	StockBajo      int             `json:"stock_bajo"`
	PrecioCosto    decimal.Decimal `json:"precio_costo"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Activo         *bool           `json:"activo"`
	ImageURL       *string         `json:"image_url"       validate:"omitempty,max=255"`
	CategoriaID    *uint           `json:"categoria_id"`
}

// ActualizarProductoRequest is an explicit patch: only fields with Set=true
// are applied. Descripcion and ImageURL accept null to clear the column.
type ActualizarProductoRequest struct {
	Nombre         Opcional[string]          `json:"nombre"`
	Codigo         Opcional[string]          `json:"codigo"`
	Descripcion    Opcional[*string]         `json:"descripcion"`
	StockActual    Opcional[int]             `json:"stock_actual"`
	StockBajo      Opcional[int]             `json:"stock_bajo"`
	PrecioCosto    Opcional[decimal.Decimal] `json:"precio_costo"`
	PrecioUnitario Opcional[decimal.Decimal] `json:"precio_unitario"`
	Activo         Opcional[bool]            `json:"activo"`
	ImageURL       Opcional[*string]         `json:"image_url"`
	CategoriaID    Opcional[*uint]           `json:"categoria_id"`
}

type AjustarStockRequest struct {
	Delta  int    `json:"delta"  validate:"required"`
	Motivo string `json:"motivo" validate:"required,min=3"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductoFilter struct {
	Nombre      string `form:"nombre"`
	Activo      string `form:"activo"` // "true" (default) | "false" | "all"
	CategoriaID uint   `form:"categoria_id"`
	Page        int    `form:"page,default=1"   validate:"min=1"`
	Limit       int    `form:"limit,default=20" validate:"min=1,max=100"`
}

type MovimientoFilter struct {
	ProductoID   uint   `form:"producto_id"`
	Tipo         string `form:"tipo"`
	ReferenciaID uint   `form:"referencia_id"`
	Desde        string `form:"desde"` // YYYY-MM-DD, inclusive
	Hasta        string `form:"hasta"` // YYYY-MM-DD, inclusive
	Page         int    `form:"page,default=1"`
	Limit        int    `form:"limit,default=100"`
}

// HistorialPrecioFilter narrows the price history of one product.
type HistorialPrecioFilter struct {
	Motivo string `form:"motivo"` // alta | manual
	Desde  string `form:"desde"`  // YYYY-MM-DD, inclusive
	Hasta  string `form:"hasta"`  // YYYY-MM-DD, inclusive
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=50"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductoResponse struct {
	ID             uint            `json:"id"`
	Nombre         string          `json:"nombre"`
	Codigo         string          `json:"codigo"`
	Descripcion    *string         `json:"descripcion"`
	StockActual    int             `json:"stock_actual"`
	StockBajo      int             `json:"stock_bajo"`
	PrecioCosto    decimal.Decimal `json:"precio_costo"`
	Margen         decimal.Decimal `json:"margen"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Activo         bool            `json:"activo"`
	ImageURL       *string         `json:"image_url"`
	CategoriaID    *uint           `json:"categoria_id"`
}

type ProductoListResponse struct {
	Data       []ProductoResponse `json:"data"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}

// ConsultaPreciosResponse is returned by the public price check endpoint (no auth required).
type ConsultaPreciosResponse struct {
	Nombre          string          `json:"nombre"`
	Codigo          string          `json:"codigo"`
	PrecioUnitario  decimal.Decimal `json:"precio_unitario"`
	StockDisponible int             `json:"stock_disponible"`
}

type AlertaStockResponse struct {
	ProductoID  uint   `json:"producto_id"`
	Nombre      string `json:"nombre"`
	Codigo      string `json:"codigo"`
	StockActual int    `json:"stock_actual"`
	StockBajo   int    `json:"stock_bajo"`
	Faltante    int    `json:"faltante"`
}

type MovimientoStockResponse struct {
	ID            uint   `json:"id"`
	ProductoID    uint   `json:"producto_id"`
	Tipo          string `json:"tipo"`
	Cantidad      int    `json:"cantidad"`
	StockAnterior int    `json:"stock_anterior"`
	StockNuevo    int    `json:"stock_nuevo"`
	Motivo        string `json:"motivo"`
	ReferenciaID  *uint  `json:"referencia_id"`
	CreatedAt     string `json:"created_at"`
}

type MovimientoListResponse struct {
	Data  []MovimientoStockResponse `json:"data"`
	Total int64                     `json:"total"`
	Page  int                       `json:"page"`
	Limit int                       `json:"limit"`
}

type HistorialPrecioResponse struct {
	ID            uint            `json:"id"`
	ProductoID    uint            `json:"producto_id"`
	CostoAntes    decimal.Decimal `json:"costo_antes"`
	CostoDespues  decimal.Decimal `json:"costo_despues"`
	PrecioAntes   decimal.Decimal `json:"precio_antes"`
	PrecioDespues decimal.Decimal `json:"precio_despues"`
	MargenDespues decimal.Decimal `json:"margen_despues"`
	Motivo        string          `json:"motivo"`
	CreatedAt     string          `json:"created_at"`
}

type HistorialPrecioListResponse struct {
	Data  []HistorialPrecioResponse `json:"data"`
	Total int64                     `json:"total"`
	Page  int                       `json:"page"`
	Limit int                       `json:"limit"`
}
