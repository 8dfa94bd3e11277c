package repository

import "gorm.io/gorm"

// entreFechas restricts col to the inclusive [desde, hasta] day range.
// Empty bounds are open. Callers validate the YYYY-MM-DD format.
func entreFechas(q *gorm.DB, col, desde, hasta string) *gorm.DB {
	if desde != "" {
		q = q.Where("DATE("+col+") >= ?", desde)
	}
	if hasta != "" {
		q = q.Where("DATE("+col+") <= ?", hasta)
	}
	return q
}
