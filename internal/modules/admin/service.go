package admin

import (
	"context"
	"errors"
	"fmt"

	"courtbook/internal/domain"

	"go.uber.org/zap"
)

const (
	defaultUsersLimit = 20
	maxUsersLimit     = 100
)

type Service struct {
	users    UserRepository
	bookings BookingPurger
	viewers  ViewerDisconnector
	log      *zap.Logger
}

func NewService(users UserRepository, bookings BookingPurger, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{users: users, bookings: bookings, log: log}
}

// WithViewers makes DisableUser also close the user's live calendar streams.
func (s *Service) WithViewers(v ViewerDisconnector) *Service {
	s.viewers = v
	return s
}

// -------------------- Users --------------------

func (s *Service) ListUsers(ctx context.Context, f domain.UserFilter) ([]domain.User, int64, error) {
	if f.Limit <= 0 {
		f.Limit = defaultUsersLimit
	}
	if f.Limit > maxUsersLimit {
		f.Limit = maxUsersLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, f.Status)
	}
	return s.users.List(ctx, f)
}

// ApproveUser activates a PENDING or DISABLED account.
func (s *Service) ApproveUser(ctx context.Context, adminID, userID int64) (*domain.User, error) {
	if adminID == userID {
		return nil, ErrSelfModification
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Status == domain.UserActive {
		return nil, ErrInvalidTransition
	}

	if err := s.users.UpdateStatus(ctx, userID, domain.UserActive); err != nil {
		return nil, err
	}
	u.Status = domain.UserActive
	u.PasswordHash = ""

	s.log.Info("user approved", zap.Int64("user_id", userID), zap.Int64("admin_id", adminID))
	return u, nil
}

// DisableUser deactivates an ACTIVE account and deletes its upcoming
// bookings. It returns the user and how many bookings were removed.
func (s *Service) DisableUser(ctx context.Context, adminID, userID int64) (*domain.User, int, error) {
	if adminID == userID {
		return nil, 0, ErrSelfModification
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	if u.Status != domain.UserActive {
		return nil, 0, ErrInvalidTransition
	}

	if err := s.users.UpdateStatus(ctx, userID, domain.UserDisabled); err != nil {
		return nil, 0, err
	}
	u.Status = domain.UserDisabled
	u.PasswordHash = ""

	if s.viewers != nil {
		if n := s.viewers.DisconnectUser(userID); n > 0 {
			s.log.Info("live streams closed", zap.Int64("user_id", userID), zap.Int("count", n))
		}
	}

	removed, err := s.bookings.PurgeUpcoming(ctx, userID)
	if err != nil {
		// The account is already disabled; report the purge failure.
		s.log.Error("purge upcoming bookings failed", zap.Int64("user_id", userID), zap.Error(err))
		return u, len(removed), errors.Join(errors.New("user disabled but bookings not purged"), err)
	}

	s.log.Info("user disabled",
		zap.Int64("user_id", userID),
		zap.Int64("admin_id", adminID),
		zap.Int("removed_bookings", len(removed)))
	return u, len(removed), nil
}
