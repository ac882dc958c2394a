package booking

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"courtbook/internal/domain"
	"courtbook/internal/middleware"
	"courtbook/internal/pkg/response"
	"courtbook/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes expects rg to already run JWTAuth and LoadIdentity.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/slots", h.GetSlots)

	bookings := rg.Group("/bookings")
	{
		bookings.GET("", h.ListBookings)
		bookings.GET("/mine", h.ListMine)
		bookings.POST("/quote", h.Quote)
		bookings.POST("", h.CreateBooking)
		bookings.DELETE("/:id", h.DeleteBooking)
	}
}

func (h *Handler) GetSlots(c *gin.Context) {
	date := domain.DateStamp(c.Query("date"))
	start := domain.TimeOfDay(c.Query("start"))

	view, err := h.service.DayView(c.Request.Context(), date, start)
	if err != nil {
		RespondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) ListBookings(c *gin.Context) {
	if date := c.Query("date"); date != "" {
		bs, err := h.service.ListByDate(c.Request.Context(), domain.DateStamp(date))
		if err != nil {
			RespondError(c, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"bookings": NewBookingResponses(bs)})
		return
	}

	limit, offset := Pagination(c)
	bs, total, err := h.service.ListActive(c.Request.Context(), limit, offset)
	if err != nil {
		RespondError(c, err)
		return
	}
	response.Paginated(c, http.StatusOK, NewBookingResponses(bs), total, limit, offset)
}

func (h *Handler) ListMine(c *gin.Context) {
	id, ok := requester(c)
	if !ok {
		return
	}

	limit, offset := Pagination(c)
	bs, total, err := h.service.ListMine(c.Request.Context(), id, limit, offset)
	if err != nil {
		RespondError(c, err)
		return
	}
	response.Paginated(c, http.StatusOK, NewBookingResponses(bs), total, limit, offset)
}

func (h *Handler) Quote(c *gin.Context) {
	req, ok := bindCreate(c)
	if !ok {
		return
	}

	cand := req.Candidate()
	price, err := h.service.Quote(cand)
	if err != nil {
		RespondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, QuoteResponse{
		Date:       req.Date,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		NeedsLight: req.NeedsLight,
		Minutes:    cand.Interval.DurationMinutes(),
		Price:      FormatPrice(price),
	})
}

func (h *Handler) CreateBooking(c *gin.Context) {
	id, ok := requester(c)
	if !ok {
		return
	}
	req, ok := bindCreate(c)
	if !ok {
		return
	}

	b, err := h.service.ValidateAndBook(c.Request.Context(), req.Candidate(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"booking": NewBookingResponse(*b)})
}

func (h *Handler) DeleteBooking(c *gin.Context) {
	id, ok := requester(c)
	if !ok {
		return
	}

	if err := h.service.DeleteOwnBooking(c.Request.Context(), c.Param("id"), id); err != nil {
		RespondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func bindCreate(c *gin.Context) (CreateBookingRequest, bool) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return req, false
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, string(ReasonInvalidRange), "Missing or invalid time range", errs)
		return req, false
	}
	return req, true
}

func requester(c *gin.Context) (domain.Identity, bool) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return domain.Identity{}, false
	}
	return id, true
}

// Pagination reads limit and offset query parameters.
func Pagination(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// RespondError maps booking and store errors onto the response envelope.
func RespondError(c *gin.Context, err error) {
	if rej, ok := AsRejection(err); ok {
		status := http.StatusBadRequest
		switch rej.Reason {
		case ReasonLightRequired:
			status = http.StatusUnprocessableEntity
		case ReasonSlotConflict:
			status = http.StatusConflict
		}
		response.Error(c, status, string(rej.Reason), rej.Error())
		return
	}

	switch {
	case errors.Is(err, ErrAccountNotActive):
		response.Error(c, http.StatusForbidden, "ACCOUNT_NOT_ACTIVE", "Account is not active")
	case errors.Is(err, ErrNotOwner):
		response.Error(c, http.StatusForbidden, "NOT_OWNER", "Booking belongs to another user")
	case errors.Is(err, ErrAdminOnly):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
	case errors.Is(err, domain.ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
	case errors.Is(err, domain.ErrNotActive):
		response.Error(c, http.StatusConflict, "BOOKING_NOT_ACTIVE", "Booking is not active")
	case errors.Is(err, ErrStoreUnavailable):
		response.Error(c, http.StatusServiceUnavailable, "UNAVAILABLE", "Booking store unavailable, try again")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		response.Error(c, http.StatusServiceUnavailable, "TIMEOUT", "Request was cancelled")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
