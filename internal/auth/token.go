package auth

import (
	"context"
	"time"

	"github.com/dcallahan/interaction-management/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const refreshTokenType = "refresh"

// Claims is the decoded payload of a signed token.
type Claims struct {
	UserID    uint   `json:"user_id,omitempty"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	SiteIDs   []uint `json:"site_ids,omitempty"`
	IsAdmin   bool   `json:"is_admin,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	jwt.RegisteredClaims
}

// TokenService mints and validates HS256 access and refresh tokens.
// Validation failures of any kind (malformed, bad signature, expired,
// blacklisted) are reported uniformly as a nil result; callers treat
// them all as "unauthenticated".
type TokenService struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	blacklist  Blacklist
}

func NewTokenService(secret, issuer, audience string, accessTTL, refreshTTL time.Duration, blacklist Blacklist) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		blacklist:  blacklist,
	}
}

// CreateAccessToken signs a short-lived token embedding the user's
// identity and the set of site ids the user may access.
func (s *TokenService) CreateAccessToken(user *domain.User, siteIDs []uint) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(s.accessTTL)

	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		SiteIDs:  siteIDs,
		IsAdmin:  user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.New().String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// CreateRefreshToken signs a long-lived token with narrower claims. It
// carries only the subject user id and a refresh marker.
func (s *TokenService) CreateRefreshToken(userID uint) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(s.refreshTTL)

	claims := &Claims{
		UserID:    userID,
		TokenType: refreshTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.New().String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ValidateToken verifies signature and expiry and consults the blacklist.
// It returns nil on any failure.
func (s *TokenService) ValidateToken(ctx context.Context, raw string) *Claims {
	claims := s.parse(raw, true)
	if claims == nil {
		return nil
	}
	if claims.ID != "" && s.blacklist != nil {
		revoked, err := s.blacklist.Contains(ctx, claims.ID)
		if err != nil || revoked {
			return nil
		}
	}
	return claims
}

// ValidateRefreshToken is ValidateToken restricted to refresh tokens.
func (s *TokenService) ValidateRefreshToken(ctx context.Context, raw string) *Claims {
	claims := s.ValidateToken(ctx, raw)
	if claims == nil || claims.TokenType != refreshTokenType {
		return nil
	}
	return claims
}

// BlacklistToken revokes a token by storing its jti with a TTL equal to
// the token's remaining lifetime. Expired tokens are treated as already
// revoked. Returns false only when the token cannot be parsed at all.
func (s *TokenService) BlacklistToken(ctx context.Context, raw string) bool {
	// Signature is still verified; only the expiry check is skipped so
	// that an expired token can be revoked without erroring.
	claims := s.parse(raw, false)
	if claims == nil || claims.ID == "" {
		return false
	}

	if claims.ExpiresAt == nil {
		return false
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		return true
	}
	if s.blacklist == nil {
		return false
	}
	if err := s.blacklist.Add(ctx, claims.ID, remaining); err != nil {
		return false
	}
	return true
}

// SiteIDsFromClaims returns the site_ids claim, or an empty list when the
// claims are absent or carry none.
func SiteIDsFromClaims(claims *Claims) []uint {
	if claims == nil || claims.SiteIDs == nil {
		return []uint{}
	}
	return claims.SiteIDs
}

func (s *TokenService) parse(raw string, validateClaims bool) *Claims {
	var opts []jwt.ParserOption
	if !validateClaims {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}
	parser := jwt.NewParser(opts...)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil
	}
	return claims
}
