package services

import (
	"fmt"

	"gorm.io/gorm"
)

const maxPerPage = 200

// Pagination selects one page of a list query. Page counts from 1.
type Pagination struct {
	Page    int
	PerPage int
}

// Normalise clamps the page to at least 1 and falls back to defaultPerPage when
// PerPage is unset or above the hard ceiling.
func (p Pagination) Normalise(defaultPerPage int) Pagination {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PerPage <= 0 || p.PerPage > maxPerPage {
		p.PerPage = defaultPerPage
	}
	return p
}

func (p Pagination) offset() int {
	return (p.Page - 1) * p.PerPage
}

// paginate counts the rows matched by query and loads the requested page in order.
func paginate[T any](query *gorm.DB, page Pagination, order string) ([]T, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	rows := make([]T, 0, page.PerPage)
	if err := query.Order(order).Offset(page.offset()).Limit(page.PerPage).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("load page: %w", err)
	}
	return rows, total, nil
}
