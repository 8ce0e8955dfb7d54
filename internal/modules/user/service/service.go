package service

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"sociafy/internal/entity"
	"sociafy/internal/middleware"
	"sociafy/internal/modules/user/dto"
	"sociafy/internal/modules/user/repository"
	"sociafy/pkg/apperror"
	"sociafy/pkg/mailer"
	"sociafy/pkg/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error)
	GetProfile(ctx context.Context, userID uuid.UUID, includeEmail bool) (*dto.UserResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req dto.UpdateProfileRequest, avatar io.Reader, avatarName string) (*dto.UserResponse, error)
}

type authService struct {
	repo         repository.UserRepository
	mediaStorage storage.MediaStorage
	mail         *mailer.Mailer
	secret       string
	tokenTTL     time.Duration
}

func NewAuthService(repo repository.UserRepository, mediaStorage storage.MediaStorage, mail *mailer.Mailer) AuthService {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "change-me"
	}

	ttl := 24 * time.Hour
	if ttlStr := os.Getenv("JWT_TTL_MINUTES"); ttlStr != "" {
		if minutes, err := strconv.Atoi(ttlStr); err == nil {
			ttl = time.Duration(minutes) * time.Minute
		}
	}

	return &authService{
		repo:         repo,
		mediaStorage: mediaStorage,
		mail:         mail,
		secret:       secret,
		tokenTTL:     ttl,
	}
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, apperror.Conflict("email is already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         entity.RoleUser,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.mail.SendWelcomeEmail(user.Email, user.FirstName)

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{Token: token, User: mapUser(user, true)}, nil
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized("invalid credentials")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{Token: token, User: mapUser(user, true)}, nil
}

func (s *authService) GetProfile(ctx context.Context, userID uuid.UUID, includeEmail bool) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, err
	}

	resp := mapUser(user, includeEmail)
	return &resp, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID uuid.UUID, req dto.UpdateProfileRequest, avatar io.Reader, avatarName string) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Bio != nil {
		user.Bio = req.Bio
	}

	if avatar != nil {
		result, err := s.mediaStorage.Upload(ctx, avatar, "avatars", avatarName)
		if err != nil {
			return nil, err
		}

		if user.AvatarPublicID != nil {
			if err := s.mediaStorage.Destroy(ctx, *user.AvatarPublicID); err != nil {
				log.Printf("failed to destroy old avatar %s: %v", *user.AvatarPublicID, err)
			}
		}

		user.AvatarURL = &result.URL
		user.AvatarPublicID = &result.PublicID
	}

	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	resp := mapUser(user, true)
	return &resp, nil
}

func (s *authService) issueToken(user *entity.User) (string, error) {
	claims := middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
		},
		Role: user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

func mapUser(user *entity.User, includeEmail bool) dto.UserResponse {
	resp := dto.UserResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		FullName:  user.FullName(),
		Role:      user.Role,
		Bio:       user.Bio,
		AvatarURL: user.AvatarURL,
		CreatedAt: user.CreatedAt,
	}
	if includeEmail {
		resp.Email = user.Email
	}
	return resp
}
