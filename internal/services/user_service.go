package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"hirelyBack/internal/models"
	"hirelyBack/internal/repositories"
	"hirelyBack/utils"
)

type UserService struct {
	UserRepo     *repositories.UserRepository
	TokenManager *utils.Manager

	SigningKey string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (s *UserService) SignUp(ctx context.Context, user models.User) (models.User, error) {
	if user.Phone == "" || user.Password == "" {
		return models.User{}, fmt.Errorf("%w: phone and password are required", models.ErrInvalidRequest)
	}
	if user.Role != string(models.RoleCustomer) && user.Role != string(models.RoleProvider) {
		return models.User{}, fmt.Errorf("%w: role must be customer or provider", models.ErrInvalidRequest)
	}
	if _, err := s.UserRepo.GetUserByPhone(ctx, user.Phone); err == nil {
		return models.User{}, models.ErrDuplicatePhone
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}
	user.Password = string(hashedPassword)

	return s.UserRepo.CreateUser(ctx, user)
}

func (s *UserService) SignIn(ctx context.Context, phone, password string) (models.Tokens, error) {
	user, err := s.UserRepo.GetUserByPhone(ctx, phone)
	if err != nil {
		return models.Tokens{}, models.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return models.Tokens{}, models.ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.Claims{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(s.AccessTTL).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
		UserID: uint(user.ID),
		Role:   user.Role,
	})
	accessToken, err := token.SignedString([]byte(s.SigningKey))
	if err != nil {
		log.Printf("sign access token: %v", err)
		return models.Tokens{}, err
	}

	return s.createSession(ctx, user, accessToken)
}

func (s *UserService) createSession(ctx context.Context, user models.User, accessToken string) (models.Tokens, error) {
	res := models.Tokens{AccessToken: accessToken}

	var err error
	res.RefreshToken = uuid.New().String()
	if s.TokenManager != nil {
		res.RefreshToken, err = s.TokenManager.NewRefreshToken()
		if err != nil {
			return res, err
		}
	}

	session := models.Session{
		UserID:       user.ID,
		Role:         user.Role,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    time.Now().Add(s.RefreshTTL),
	}
	if err := s.UserRepo.SaveSession(ctx, session); err != nil {
		return res, err
	}
	return res, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id int) (models.User, error) {
	return s.UserRepo.GetUserByID(ctx, id)
}

func (s *UserService) BlockUser(ctx context.Context, userID, blockedID int) error {
	if userID == blockedID {
		return fmt.Errorf("%w: cannot block yourself", models.ErrInvalidRequest)
	}
	if _, err := s.UserRepo.GetUserByID(ctx, blockedID); err != nil {
		return err
	}
	return s.UserRepo.BlockUser(ctx, userID, blockedID)
}

func (s *UserService) UnblockUser(ctx context.Context, userID, blockedID int) error {
	return s.UserRepo.UnblockUser(ctx, userID, blockedID)
}
