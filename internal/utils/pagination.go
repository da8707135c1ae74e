// internal/utils/pagination.go
package utils

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PaginationParams carries the list query string shared by every listing
// endpoint. Sort holds the public sort key, never a column name.
type PaginationParams struct {
	Page     int    `json:"page"`
	Limit    int    `json:"limit"`
	Sort     string `json:"sort"`
	Order    string `json:"order"`
	Search   string `json:"search"`
	Category string `json:"category"`
}

type PaginationResult struct {
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"totalPages"`
	Data       interface{} `json:"data"`
}

// SortColumns maps public sort keys to database columns.
type SortColumns map[string]string

// GetPaginationParams reads page, limit, sort, order, search and category.
// Out of range values fall back to the defaults instead of failing.
func GetPaginationParams(c *gin.Context) PaginationParams {
	params := PaginationParams{
		Page:     1,
		Limit:    DefaultPageLimit,
		Sort:     strings.TrimSpace(c.Query("sort")),
		Order:    "desc",
		Search:   strings.TrimSpace(c.Query("search")),
		Category: strings.TrimSpace(c.Query("category")),
	}

	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
		params.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 && limit <= MaxPageLimit {
		params.Limit = limit
	}
	if order := strings.ToLower(c.Query("order")); order == "asc" {
		params.Order = order
	}

	return params
}

func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

func ApplyPagination(db *gorm.DB, params PaginationParams) *gorm.DB {
	return db.Offset(params.Offset()).Limit(params.Limit)
}

// ApplySort orders by the column registered for params.Sort, or by fallback
// when the key is unknown.
func ApplySort(db *gorm.DB, params PaginationParams, columns SortColumns, fallback string) *gorm.DB {
	column, ok := columns[params.Sort]
	if !ok {
		column = fallback
	}
	return db.Order(column + " " + params.Order)
}

func CreatePaginationResult(data interface{}, total int64, params PaginationParams) PaginationResult {
	totalPages := 0
	if params.Limit > 0 {
		totalPages = int((total + int64(params.Limit) - 1) / int64(params.Limit))
	}

	return PaginationResult{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
		Data:       data,
	}
}

func SetPaginationHeaders(c *gin.Context, result PaginationResult) {
	c.Header("X-Total-Count", strconv.FormatInt(result.Total, 10))
	c.Header("X-Page", strconv.Itoa(result.Page))
	c.Header("X-Per-Page", strconv.Itoa(result.Limit))
	c.Header("X-Total-Pages", strconv.Itoa(result.TotalPages))
}
