package models

import (
	"time"

	"github.com/dgrijalva/jwt-go"
)

type User struct {
	ID             int        `json:"id"`
	Name           string     `json:"name"`
	Phone          string     `json:"phone,omitempty"`
	Email          string     `json:"email,omitempty"`
	Password       string     `json:"password,omitempty"`
	Role           string     `json:"role"`
	City           string     `json:"city,omitempty"`
	ProfilePicture *string    `json:"profile_picture,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Session struct {
	UserID       int       `json:"user_id"`
	Role         string    `json:"role"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type SignInRequest struct {
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// BlockStatus describes the block relation between a caller and a peer.
type BlockStatus struct {
	CallerBlockedPeer bool
	PeerBlockedCaller bool
}

// Blocked reports whether messaging is disallowed in either direction.
func (b BlockStatus) Blocked() bool {
	return b.CallerBlockedPeer || b.PeerBlockedCaller
}
