package admin

import "courtbook/internal/modules/auth"

type UserStatusResponse struct {
	User            auth.UserPublic `json:"user"`
	RemovedBookings int             `json:"removed_bookings"`
}

type CancelRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}
