package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/postgres"
)

const (
	DefaultAccessLifetime  = 60 * time.Minute
	DefaultRefreshLifetime = 24 * time.Hour

	bearerPrefix = "Bearer "
)

// Config configures a Service.
type Config struct {
	// SigningKey signs tokens with HS256; it is required.
	SigningKey string

	AccessLifetime  time.Duration
	RefreshLifetime time.Duration
}

// Service issues, verifies and revokes JWTs.
// Refresh tokens are tracked in the database so they can be blacklisted.
type Service struct {
	db      *postgres.DB
	key     []byte
	parser  *jwt.Parser
	access  time.Duration
	refresh time.Duration
}

// WithDB returns a copy of the Service running its queries on db, e.g., an open transaction.
func (s *Service) WithDB(db *postgres.DB) *Service {
	cp := *s
	cp.db = db
	return &cp
}

// NewService constructs a *Service.
// Lifetimes left zero fall back to DefaultAccessLifetime and DefaultRefreshLifetime.
func NewService(db *postgres.DB, cfg Config) (*Service, error) {
	if cfg.SigningKey == "" {
		return nil, fmt.Errorf(`%w: signing key cannot be ""`, portfolio.ErrBadConfig)
	}

	if db == nil {
		return nil, fmt.Errorf("%w: db cannot be nil", portfolio.ErrBadConfig)
	}

	s := &Service{
		db:      db,
		key:     []byte(cfg.SigningKey),
		parser:  jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
		access:  cfg.AccessLifetime,
		refresh: cfg.RefreshLifetime,
	}

	if s.access <= 0 {
		s.access = DefaultAccessLifetime
	}

	if s.refresh <= 0 {
		s.refresh = DefaultRefreshLifetime
	}

	return s, nil
}

// ObtainPair issues an access and refresh token for userID,
// recording the refresh token as outstanding.
func (s *Service) ObtainPair(ctx context.Context, userID uint) (TokenPair, error) {
	if userID == 0 {
		return TokenPair{}, fmt.Errorf("%w: user ID", portfolio.ErrMissingData)
	}

	refresh, claims, err := s.sign(Refresh, userID, s.refresh)
	if err != nil {
		return TokenPair{}, err
	}

	access, _, err := s.sign(Access, userID, s.access)
	if err != nil {
		return TokenPair{}, err
	}

	ot := &OutstandingToken{
		UserID:    userID,
		JTI:       claims.ID,
		Token:     refresh,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if err := s.db.WithContext(ctx).Create(ot); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
//
// Expired, malformed, access or blacklisted tokens return ErrUnauthorized.
func (s *Service) Refresh(ctx context.Context, refresh string) (string, error) {
	claims, err := s.verifyType(refresh, Refresh)
	if err != nil {
		return "", err
	}

	if _, err := s.outstanding(ctx, claims); err != nil {
		return "", err
	}

	access, _, err := s.sign(Access, claims.UserID, s.access)
	return access, err
}

// Verify parses token, returning its claims when it is signed by Service and has not expired.
// Verify accepts either TokenType.
func (s *Service) Verify(token string) (*Claims, error) {
	claims := new(Claims)
	_, err := s.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return s.key, nil })
	if err != nil {
		return nil, fmt.Errorf("%w: %s", portfolio.ErrUnauthorized, err)
	}

	if claims.UserID == 0 || (claims.TokenType != Access && claims.TokenType != Refresh) {
		return nil, fmt.Errorf("%w: token is missing claims", portfolio.ErrUnauthorized)
	}

	return claims, nil
}

// Blacklist revokes refresh so it can no longer be refreshed.
// Blacklisting an already blacklisted token returns ErrUnauthorized.
func (s *Service) Blacklist(ctx context.Context, refresh string) error {
	claims, err := s.verifyType(refresh, Refresh)
	if err != nil {
		return err
	}

	ot, err := s.outstanding(ctx, claims)
	if err != nil {
		return err
	}

	bt := &BlacklistedToken{TokenID: ot.ID, BlacklistedAt: portfolio.NowFunc()}
	err = s.db.WithContext(ctx).Create(bt)
	if errors.Is(err, portfolio.ErrExists) {
		return fmt.Errorf("%w: token is blacklisted", portfolio.ErrUnauthorized)
	}

	return err
}

// BlacklistAll revokes every outstanding refresh token of userID.
func (s *Service) BlacklistAll(ctx context.Context, userID uint) error {
	var tokens []OutstandingToken
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("id NOT IN (?)", s.db.Model(new(BlacklistedToken)).Select("token_id")).
		Find(&tokens)
	if errors.Is(err, portfolio.ErrNotFound) {
		return nil
	}

	if err != nil {
		return err
	}

	now := portfolio.NowFunc()
	bts := make([]BlacklistedToken, len(tokens))
	for i, ot := range tokens {
		bts[i] = BlacklistedToken{TokenID: ot.ID, BlacklistedAt: now}
	}

	return s.db.WithContext(ctx).Create(&bts)
}

// Authenticate reads the access token from r's Authorization header.
//
// If r carries no bearer token, ErrMissingData returns.
// An invalid token or a refresh token returns ErrUnauthorized.
func (s *Service) Authenticate(r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, fmt.Errorf("%w: no Authorization header", portfolio.ErrMissingData)
	}

	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return nil, fmt.Errorf("%w: Authorization header is not a bearer token", portfolio.ErrUnauthorized)
	}

	return s.verifyType(strings.TrimSpace(header[len(bearerPrefix):]), Access)
}

// sign issues a token of kind for userID, expiring after ttl.
func (s *Service) sign(kind TokenType, userID uint, ttl time.Duration) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		TokenType: kind,
		UserID:    userID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", nil, fmt.Errorf("%w: failed signing %s token: %s", portfolio.ErrUnexpected, kind, err)
	}

	return signed, claims, nil
}

func (s *Service) verifyType(token string, kind TokenType) (*Claims, error) {
	claims, err := s.Verify(token)
	if err != nil {
		return nil, err
	}

	if claims.TokenType != kind {
		return nil, fmt.Errorf("%w: token has wrong type", portfolio.ErrUnauthorized)
	}

	return claims, nil
}

// outstanding finds the OutstandingToken for claims that is not blacklisted.
func (s *Service) outstanding(ctx context.Context, claims *Claims) (*OutstandingToken, error) {
	ot := new(OutstandingToken)
	err := s.db.WithContext(ctx).Where("jti = ?", claims.ID).First(ot)
	if errors.Is(err, portfolio.ErrNotFound) {
		return nil, fmt.Errorf("%w: token is not recognized", portfolio.ErrUnauthorized)
	}

	if err != nil {
		return nil, err
	}

	blacklisted, err := s.db.WithContext(ctx).Model(new(BlacklistedToken)).Where("token_id = ?", ot.ID).Exists()
	if err != nil {
		return nil, err
	}

	if blacklisted {
		return nil, fmt.Errorf("%w: token is blacklisted", portfolio.ErrUnauthorized)
	}

	return ot, nil
}
