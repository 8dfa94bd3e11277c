package dto

// ClienteRequest is used for create and full replace (PUT).
type ClienteRequest struct {
	Nombre    string  `json:"nombre"    validate:"required,min=2,max=100"`
	Documento *string `json:"documento" validate:"omitempty,max=30"`
	Direccion *string `json:"direccion" validate:"omitempty,max=255"`
	Telefono  *string `json:"telefono"  validate:"omitempty,max=30"`
}

type ClienteFilter struct {
	Nombre string `form:"nombre"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type ClienteResponse struct {
	ID        uint    `json:"id"`
	Nombre    string  `json:"nombre"`
	Documento *string `json:"documento"`
	Direccion *string `json:"direccion"`
	Telefono  *string `json:"telefono"`
}

type ClienteListResponse struct {
	Data  []ClienteResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
