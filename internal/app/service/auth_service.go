package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"codearena/internal/common"
	"codearena/internal/common/security"
	"codearena/internal/domain/model"
	"codearena/internal/domain/repository"
	"codearena/internal/platform/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const recentLoginsShown = 10

type AuthService struct {
	userRepo    repository.UserRepository
	storeRepo   repository.StoreRepository
	leaderboard LeaderboardInvalidator
	now         func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	storeRepo repository.StoreRepository,
	leaderboard LeaderboardInvalidator,
) *AuthService {
	return &AuthService{userRepo: userRepo, storeRepo: storeRepo, leaderboard: leaderboard, now: time.Now}
}

type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

// LoginRequest.Email also accepts a username.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,max=255"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

type Profile struct {
	*model.User
	SolvedCount  int                    `json:"solvedCount"`
	Inventory    []model.InventoryEntry `json:"inventory"`
	RecentLogins []model.LoginRecord    `json:"loginHistory"`
}

func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := req.Role
	if role == "" {
		role = model.RoleUser
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hashedPassword,
		Role:           role,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Repo returns common.ErrConflict for duplicate username/email
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if role == model.RoleAdmin {
		logger.L().Warn("admin account created through signup", zap.String("user_id", user.ID))
	}
	// New users enter the board with zero points.
	if s.leaderboard != nil {
		s.leaderboard.Invalidate(ctx)
	}

	token, err := security.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	public := *user
	public.HashedPassword = ""
	return &AuthResponse{User: &public, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	loginField := strings.TrimSpace(req.Email)
	req.Email = strings.ToLower(loginField)
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}

	// Try the email first, then the username
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if errors.Is(err, common.ErrNotFound) {
		user, err = s.userRepo.FindByUsername(ctx, loginField)
	}
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("invalid email or password: %w", common.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, fmt.Errorf("invalid email or password: %w", common.ErrUnauthorized)
	}

	loginAt := s.now().UTC()
	if err := s.userRepo.RecordLogin(ctx, user.ID, loginAt); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.LastLogin = &loginAt

	token, err := security.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.HashedPassword = ""
	return &AuthResponse{User: user, Token: token}, nil
}

// Me assembles the caller's profile: balance, solved count, inventory and
// the most recent logins.
func (s *AuthService) Me(ctx context.Context, userID string) (*Profile, error) {
	if err := requireID("user", userID); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.HashedPassword = ""

	solved, err := s.userRepo.CountSolved(ctx, userID)
	if err != nil {
		return nil, err
	}
	inventory, err := s.storeRepo.ListInventory(ctx, userID)
	if err != nil {
		return nil, err
	}
	logins, err := s.userRepo.RecentLogins(ctx, userID, recentLoginsShown)
	if err != nil {
		return nil, err
	}

	return &Profile{User: user, SolvedCount: solved, Inventory: inventory, RecentLogins: logins}, nil
}
