package service

import (
	"time"

	"ventaspos/internal/apierror"
)

const formatoDia = "2006-01-02"

// validarRango checks the optional desde/hasta query bounds.
func validarRango(desde, hasta string) error {
	var d, h time.Time
	var err error
	if desde != "" {
		if d, err = time.Parse(formatoDia, desde); err != nil {
			return apierror.Validationf("desde", "desde debe tener formato YYYY-MM-DD (recibido %q)", desde)
		}
	}
	if hasta != "" {
		if h, err = time.Parse(formatoDia, hasta); err != nil {
			return apierror.Validationf("hasta", "hasta debe tener formato YYYY-MM-DD (recibido %q)", hasta)
		}
	}
	if desde != "" && hasta != "" && h.Before(d) {
		return apierror.Validation("hasta", "hasta no puede ser anterior a desde")
	}
	return nil
}
