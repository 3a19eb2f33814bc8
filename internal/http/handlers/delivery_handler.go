// Delivery log HTTP handlers.
//
// This file exposes the dashboard's read-only view over the append-only
// webhook delivery log:
//   - GET /webhooks/shopify/logs   (list, filtered + paginated, with summary)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-shopify-backend/internal/domain"
	"github.com/tbourn/go-shopify-backend/internal/repo"
	"github.com/tbourn/go-shopify-backend/internal/utils"
)

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListDeliveriesResponse wraps a page of delivery rows, the unfiltered
// summary counters, and pagination information.
type ListDeliveriesResponse struct {
	Logs       []domain.WebhookDelivery `json:"logs"`
	Summary    repo.DeliverySummary     `json:"summary"`
	Pagination Pagination               `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = defaultPage
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// paginationFor assembles the response metadata from a page request and the
// total row count.
func paginationFor(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// ListWebhookLogs godoc
// @ID          listWebhookLogs
// @Summary     List webhook delivery logs
// @Description Returns a page of delivery log rows, newest first, with optional status and topic filters plus aggregate counters for the dashboard stat cards.
// @Tags        Webhooks
// @Produce     json
//
// @Param       status     query  string  false "Filter by outcome"  Enums(success, error, rejected, duplicate)
// @Param       topic      query  string  false "Filter by topic"    example(products/update)
// @Param       page       query  int     false "Page number"        minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"     minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListDeliveriesResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /webhooks/shopify/logs [get]
func (h *Handlers) ListWebhookLogs(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	res, err := h.deliverySvc.List(ctx, c.Query("status"), c.Query("topic"), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, ListDeliveriesResponse{
		Logs:       res.Logs,
		Summary:    res.Summary,
		Pagination: paginationFor(page, pageSize, res.Total),
	})
}
