package admin

import (
	"errors"
	"net/http"
	"strconv"

	"courtbook/internal/domain"
	"courtbook/internal/middleware"
	"courtbook/internal/modules/auth"
	"courtbook/internal/modules/booking"
	"courtbook/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service  *Service
	bookings *booking.Service
}

func NewHandler(service *Service, bookings *booking.Service) *Handler {
	return &Handler{service: service, bookings: bookings}
}

// RegisterRoutes expects admin to run JWTAuth, LoadIdentity and AdminOnly.
func (h *Handler) RegisterRoutes(admin *gin.RouterGroup) {
	users := admin.Group("/users")
	{
		users.GET("", h.GetUsers)
		users.POST("/:id/approve", h.ApproveUser)
		users.POST("/:id/disable", h.DisableUser)
	}

	bookings := admin.Group("/bookings")
	{
		bookings.GET("", h.GetBookings)
		bookings.DELETE("/:id", h.DeleteBooking)
		bookings.POST("/:id/cancel", h.CancelBooking)
	}
}

func (h *Handler) GetUsers(c *gin.Context) {
	limit, offset := booking.Pagination(c)
	f := domain.UserFilter{
		Status: domain.UserStatus(c.Query("status")),
		Query:  c.Query("q"),
		Limit:  limit,
		Offset: offset,
	}

	users, total, err := h.service.ListUsers(c.Request.Context(), f)
	if err != nil {
		respondUserError(c, err)
		return
	}

	out := make([]auth.UserPublic, 0, len(users))
	for i := range users {
		out = append(out, auth.NewUserPublic(&users[i]))
	}
	response.Paginated(c, http.StatusOK, out, total, limit, offset)
}

func (h *Handler) ApproveUser(c *gin.Context) {
	adminID, userID, ok := idsFromRequest(c)
	if !ok {
		return
	}

	u, err := h.service.ApproveUser(c.Request.Context(), adminID, userID)
	if err != nil {
		respondUserError(c, err)
		return
	}
	response.Success(c, http.StatusOK, UserStatusResponse{User: auth.NewUserPublic(u)})
}

func (h *Handler) DisableUser(c *gin.Context) {
	adminID, userID, ok := idsFromRequest(c)
	if !ok {
		return
	}

	u, removed, err := h.service.DisableUser(c.Request.Context(), adminID, userID)
	if err != nil && u == nil {
		respondUserError(c, err)
		return
	}
	if err != nil {
		_ = c.Error(err)
		response.ErrorWithDetails(c, http.StatusServiceUnavailable, "PURGE_FAILED",
			"User disabled but upcoming bookings could not be removed",
			UserStatusResponse{User: auth.NewUserPublic(u), RemovedBookings: removed})
		return
	}
	response.Success(c, http.StatusOK, UserStatusResponse{User: auth.NewUserPublic(u), RemovedBookings: removed})
}

func (h *Handler) GetBookings(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)
	limit, offset := booking.Pagination(c)
	ownerID, _ := strconv.ParseInt(c.Query("owner_id"), 10, 64)

	f := domain.BookingFilter{
		Date:    domain.DateStamp(c.Query("date")),
		OwnerID: ownerID,
		Status:  domain.BookingStatus(c.Query("status")),
		Limit:   limit,
		Offset:  offset,
	}
	bs, total, err := h.bookings.ListAll(c.Request.Context(), f, id)
	if err != nil {
		booking.RespondError(c, err)
		return
	}
	response.Paginated(c, http.StatusOK, booking.NewBookingResponses(bs), total, limit, offset)
}

func (h *Handler) DeleteBooking(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)
	if err := h.bookings.DeleteOwnBooking(c.Request.Context(), c.Param("id"), id); err != nil {
		booking.RespondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) CancelBooking(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)

	var req CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
			return
		}
	}

	b, err := h.bookings.CancelBooking(c.Request.Context(), c.Param("id"), req.Reason, id)
	if err != nil {
		booking.RespondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": booking.NewBookingResponse(*b)})
}

func idsFromRequest(c *gin.Context) (int64, int64, bool) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return 0, 0, false
	}
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || userID <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return 0, 0, false
	}
	return id.ID, userID, true
}

func respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "User not found")
	case errors.Is(err, ErrInvalidTransition):
		response.Error(c, http.StatusConflict, "INVALID_STATUS", err.Error())
	case errors.Is(err, ErrSelfModification):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Administrators cannot change their own status")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update user")
	}
}
