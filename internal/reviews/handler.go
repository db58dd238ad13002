package reviews

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"reviewme/internal/auth"
	"reviewme/internal/httpx"
)

type Handler struct {
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Service: svc}
}

// RegisterRoutes mounts the review routes. Listing is public; gate guards the
// mutating routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, gate gin.HandlerFunc) {
	rg.GET("/getReviews", h.list)
	rg.POST("/create", gate, h.create)
	rg.PUT("/update/:r_id", gate, h.update)
	rg.DELETE("/delete/:r_id", gate, h.delete)
}

func (h *Handler) create(c *gin.Context) {
	var req Fields
	if err := httpx.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	rv, err := h.Service.Create(c.Request.Context(), auth.CallerID(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	httpx.Data(c, http.StatusCreated, "Review created successfully", rv)
}

func (h *Handler) list(c *gin.Context) {
	q := ListQuery{
		UserID:     c.Query("userId"),
		Title:      c.Query("title"),
		Author:     c.Query("author"),
		ReviewID:   c.Query("r_id"),
		SearchTerm: c.Query("searchTerm"),
		StartIndex: parseInt(c.Query("startIndex"), 0),
		PageSize:   parseInt(c.Query("pageSize"), DefaultPageSize),
		SortField:  c.Query("sortField"),
		SortAsc:    c.Query("sortDirection") == "asc",
	}

	page, err := h.Service.List(c.Request.Context(), q)
	if err != nil {
		_ = c.Error(err)
		return
	}

	httpx.Page(c, "Reviews fetched successfully", page.Items, page.Total)
}

func (h *Handler) update(c *gin.Context) {
	var req Fields
	if err := httpx.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	rv, err := h.Service.Update(c.Request.Context(), auth.CallerID(c), c.Param("r_id"), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	httpx.Data(c, http.StatusOK, "Review updated successfully", rv)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), auth.CallerID(c), c.Param("r_id")); err != nil {
		_ = c.Error(err)
		return
	}

	httpx.Message(c, http.StatusOK, "Review deleted successfully")
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
