package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fieldserve/dispatch/internal/http/middleware"
	"github.com/fieldserve/dispatch/internal/model"
	"github.com/fieldserve/dispatch/internal/service"
)

type Handler struct {
	pricing     *service.PricingService
	bookings    *service.BookingService
	allocations *service.AllocationService
	audit       *service.AuditService
	log         zerolog.Logger
}

func NewHandler(
	pricing *service.PricingService,
	bookings *service.BookingService,
	allocations *service.AllocationService,
	audit *service.AuditService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		pricing:     pricing,
		bookings:    bookings,
		allocations: allocations,
		audit:       audit,
		log:         log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/quotes", h.quote)
	protected.POST("/quotes/range", h.quoteRange)

	protected.POST("/bookings/:id/allocate", h.allocate)
	protected.POST("/bookings/:id/reallocate", h.reallocate)
	protected.POST("/bookings/:id/status", h.updateStatus)
	protected.POST("/bookings/:id/claim", h.claim)
	protected.GET("/bookings/:id/allocations", h.allocationHistory)

	protected.GET("/engineers/:id/route", h.engineerRoute)

	protected.GET("/allocations/export", h.exportAllocations)
	protected.GET("/allocations/export/pdf", h.exportAllocationsPDF)
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

type quoteRequest struct {
	ServiceID string `json:"service_id" binding:"required"`
	SiteID    string `json:"site_id" binding:"required"`
	Date      string `json:"date" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

func (h *Handler) quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	serviceID, err := uuid.Parse(strings.TrimSpace(req.ServiceID))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid service_id")
		return
	}
	siteID, err := uuid.Parse(strings.TrimSpace(req.SiteID))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid site_id")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid date")
		return
	}

	quote, err := h.pricing.Quote(c.Request.Context(), serviceID, siteID, date, req.Quantity)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if quote == nil {
		respondError(c, http.StatusNotFound, "unknown service or site")
		return
	}
	respondOK(c, quote)
}

type quoteRangeRequest struct {
	ServiceID string `json:"service_id" binding:"required"`
	SiteID    string `json:"site_id" binding:"required"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

func (h *Handler) quoteRange(c *gin.Context) {
	var req quoteRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	serviceID, err := uuid.Parse(strings.TrimSpace(req.ServiceID))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid service_id")
		return
	}
	siteID, err := uuid.Parse(strings.TrimSpace(req.SiteID))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid site_id")
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid start_date")
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid end_date")
		return
	}

	quotes, err := h.pricing.QuoteRange(c.Request.Context(), serviceID, siteID, start, end, req.Quantity)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if quotes == nil {
		respondError(c, http.StatusNotFound, "unknown service or site")
		return
	}
	respondOK(c, quotes)
}

func (h *Handler) allocate(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "missing principal")
		return
	}
	if !principal.IsAdmin() && !principal.IsOps() {
		respondError(c, http.StatusForbidden, "allocation requires an operator")
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid booking id")
		return
	}

	decision, err := h.allocations.AutoAllocate(c.Request.Context(), bookingID)
	if err != nil {
		if errors.Is(err, service.ErrNoEligibleCandidate) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"success": false,
				"error":   err.Error(),
				"data":    gin.H{"candidates": candidateViews(decision.Candidates)},
			})
			return
		}
		h.handleError(c, err)
		return
	}
	respondOK(c, decisionView(decision))
}

type reallocateRequest struct {
	EngineerID string `json:"engineer_id" binding:"required"`
	Reason     string `json:"reason" binding:"required"`
}

// reallocate rebinds a booking to an explicit engineer. Admin calls
// are recorded as overrides so audits can tell them from routine
// operator routing.
func (h *Handler) reallocate(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "missing principal")
		return
	}
	if !principal.IsAdmin() && !principal.IsOps() {
		respondError(c, http.StatusForbidden, "reallocation requires an operator")
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid booking id")
		return
	}

	var req reallocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	engineerID, err := uuid.Parse(strings.TrimSpace(req.EngineerID))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid engineer_id")
		return
	}

	if principal.IsAdmin() {
		err = h.allocations.AdminOverride(c.Request.Context(), bookingID, engineerID, req.Reason)
	} else {
		err = h.allocations.Reallocate(c.Request.Context(), bookingID, engineerID, req.Reason)
	}
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondOK(c, gin.H{"booking_id": bookingID, "engineer_id": engineerID})
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) updateStatus(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "missing principal")
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid booking id")
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	target := model.BookingStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	booking, err := h.bookings.TransitionAs(c.Request.Context(), principal, bookingID, target)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondOK(c, bookingView(booking))
}

func (h *Handler) claim(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "missing principal")
		return
	}
	if !principal.IsEngineer() || principal.EngineerID == nil {
		respondError(c, http.StatusForbidden, "claiming requires an engineer")
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid booking id")
		return
	}

	if err := h.allocations.ClaimJob(c.Request.Context(), bookingID, *principal.EngineerID); err != nil {
		h.handleError(c, err)
		return
	}
	respondOK(c, gin.H{"booking_id": bookingID, "engineer_id": *principal.EngineerID})
}

func (h *Handler) allocationHistory(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "missing principal")
		return
	}
	if !principal.IsAdmin() && !principal.IsOps() {
		respondError(c, http.StatusForbidden, "allocation history requires an operator")
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid booking id")
		return
	}

	entries, err := h.allocations.History(c.Request.Context(), bookingID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	views := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		views = append(views, logEntryView(entry))
	}
	respondOK(c, views)
}

func (h *Handler) engineerRoute(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "missing principal")
		return
	}

	engineerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid engineer id")
		return
	}
	switch {
	case principal.IsEngineer():
		if principal.EngineerID == nil || *principal.EngineerID != engineerID {
			respondError(c, http.StatusForbidden, "engineers may only view their own route")
			return
		}
	case principal.IsAdmin() || principal.IsOps():
	default:
		respondError(c, http.StatusForbidden, "route view requires an engineer or operator")
		return
	}

	date, err := parseDate(c.Query("date"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid date")
		return
	}

	stops, err := h.allocations.OptimizedRoute(c.Request.Context(), engineerID, date)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondOK(c, routeViews(stops))
}

func (h *Handler) exportAllocations(c *gin.Context) {
	h.export(c, h.audit.ExportExcel)
}

func (h *Handler) exportAllocationsPDF(c *gin.Context) {
	h.export(c, h.audit.ExportPDF)
}

func (h *Handler) export(c *gin.Context, generate func(ctx context.Context, start, end time.Time) (*service.ExportResult, error)) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "missing principal")
		return
	}
	if !principal.IsAdmin() && !principal.IsOps() {
		respondError(c, http.StatusForbidden, "export requires an operator")
		return
	}

	start, err := parseDate(c.Query("period_start"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid period_start")
		return
	}
	end, err := parseDate(c.Query("period_end"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid period_end")
		return
	}

	result, err := generate(c.Request.Context(), start, end)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		respondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrAlreadyAssigned):
		respondError(c, http.StatusConflict, err.Error())
	default:
		h.log.Error().Err(err).Msg("request failed")
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}
