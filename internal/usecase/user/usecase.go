package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
)

type UserUsecase interface {
	EnsureUser(ctx context.Context, userID, username, language string) (*domain.User, error)
	SetBanned(ctx context.Context, userID string, banned bool) (*domain.User, error)
	SetAdmin(ctx context.Context, userID string, admin bool) (*domain.User, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}

type DefaultUserUsecase struct {
	userRepo domain.UserRepository
	logger   *slog.Logger
}

func NewDefaultUserUsecase(userRepo domain.UserRepository, logger *slog.Logger) *DefaultUserUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultUserUsecase{userRepo: userRepo, logger: logger.With("component", "user_usecase")}
}

// EnsureUser registers a user on first interaction and returns the stored record afterwards.
func (uc *DefaultUserUsecase) EnsureUser(ctx context.Context, userID, username, language string) (*domain.User, error) {
	if language == "" {
		language = "en"
	}
	return uc.userRepo.EnsureUser(ctx, &domain.User{
		ID:        userID,
		Username:  username,
		Language:  language,
		CreatedAt: time.Now(),
	})
}

func (uc *DefaultUserUsecase) SetBanned(ctx context.Context, userID string, banned bool) (*domain.User, error) {
	return uc.update(ctx, userID, func(u *domain.User) { u.Banned = banned })
}

func (uc *DefaultUserUsecase) SetAdmin(ctx context.Context, userID string, admin bool) (*domain.User, error) {
	return uc.update(ctx, userID, func(u *domain.User) { u.Admin = admin })
}

func (uc *DefaultUserUsecase) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return uc.userRepo.GetUserByID(ctx, userID)
}

func (uc *DefaultUserUsecase) update(ctx context.Context, userID string, change func(*domain.User)) (*domain.User, error) {
	user, err := uc.userRepo.EnsureUser(ctx, &domain.User{ID: userID, Language: "en", CreatedAt: time.Now()})
	if err != nil {
		return nil, err
	}
	change(user)
	if err := uc.userRepo.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	uc.logger.Info("user updated", "user_id", userID, "admin", user.Admin, "banned", user.Banned)
	return user, nil
}
