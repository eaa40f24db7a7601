package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// A TokenType distinguishes short-lived access tokens from the refresh tokens exchanged for them.
type TokenType string

const (
	Access  TokenType = "access"
	Refresh TokenType = "refresh"
)

func (tt TokenType) String() string { return string(tt) }

// Claims are the JWT claims issued by a Service.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
	UserID    uint      `json:"user_id"`
}

// TokenPair is the pair of tokens issued on login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// OutstandingToken records every refresh token issued.
type OutstandingToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	JTI       string    `gorm:"column:jti;not null;uniqueIndex" json:"jti"`
	Token     string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `gorm:"not null" json:"expiresAt"`
}

// BlacklistedToken marks an OutstandingToken that can no longer be refreshed.
type BlacklistedToken struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	TokenID       uint      `gorm:"not null;uniqueIndex" json:"tokenId"`
	BlacklistedAt time.Time `gorm:"not null" json:"blacklistedAt"`

	Token OutstandingToken `json:"-"`
}
