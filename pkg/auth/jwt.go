package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
	apperrors "github.com/jeeprep/jee-prep-api/internal/pkg/errors"
)

const (
	audienceAPI = "jee-prep-user"
	audienceWS  = "jee-prep-ws"
	usageWS     = "websocket_auth"
	issuer      = "jee-prep-api"
)

// JWTCustomClaims are the claims carried by access tokens and websocket tickets.
type JWTCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Usage  string `json:"usage,omitempty"`
	jwt.RegisteredClaims
}

// JWTService issues and validates HS256 tokens. When a revocation store is
// set, tokens issued before a user's revocation time are rejected.
type JWTService struct {
	secret         []byte
	expiration     time.Duration
	wsTicketExpiry time.Duration
	revocations    RevocationStore
}

// NewJWTService creates a JWT service. The secret must be at least 32 bytes.
func NewJWTService(secret string, expiration, wsTicketExpiry time.Duration, revocations RevocationStore) (*JWTService, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}
	if expiration <= 0 {
		expiration = 30 * 24 * time.Hour
	}
	if wsTicketExpiry <= 0 {
		wsTicketExpiry = 60 * time.Second
	}
	return &JWTService{
		secret:         []byte(secret),
		expiration:     expiration,
		wsTicketExpiry: wsTicketExpiry,
		revocations:    revocations,
	}, nil
}

// Expiration returns the lifetime of access tokens.
func (s *JWTService) Expiration() time.Duration {
	return s.expiration
}

// GenerateToken issues an access token for user.
func (s *JWTService) GenerateToken(user *entity.User) (string, error) {
	return s.sign(user.ID, user.Email, user.Role, "", audienceAPI, s.expiration)
}

// GenerateWSTicket issues a short-lived ticket for the websocket handshake.
func (s *JWTService) GenerateWSTicket(userID uint, email string) (string, error) {
	return s.sign(userID, email, "", usageWS, audienceWS, s.wsTicketExpiry)
}

func (s *JWTService) sign(userID uint, email, role, usage, audience string, ttl time.Duration) (string, error) {
	// Second precision keeps IssuedAt comparable with revocation markers.
	now := time.Now().Truncate(time.Second)
	claims := &JWTCustomClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		Usage:  usage,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   fmt.Sprintf("%d", userID),
			Audience:  jwt.ClaimStrings{audience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates an access token and returns its claims.
func (s *JWTService) ParseToken(ctx context.Context, tokenString string) (*JWTCustomClaims, error) {
	claims, err := s.parse(tokenString, audienceAPI)
	if err != nil {
		return nil, err
	}
	if claims.Usage != "" {
		return nil, fmt.Errorf("%w: websocket ticket used as access token", apperrors.ErrUnauthorized)
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseWSTicket validates a websocket ticket.
func (s *JWTService) ParseWSTicket(ctx context.Context, ticket string) (*JWTCustomClaims, error) {
	claims, err := s.parse(ticket, audienceWS)
	if err != nil {
		return nil, err
	}
	if claims.Usage != usageWS {
		return nil, fmt.Errorf("%w: not a websocket ticket", apperrors.ErrUnauthorized)
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *JWTService) parse(tokenString, audience string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, apperrors.ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnauthorized, err)
	}
	if !token.Valid {
		return nil, apperrors.ErrUnauthorized
	}
	if !claims.VerifyAudience(audience, true) {
		return nil, fmt.Errorf("%w: wrong token audience", apperrors.ErrUnauthorized)
	}
	return claims, nil
}

func (s *JWTService) checkRevoked(ctx context.Context, claims *JWTCustomClaims) error {
	if s.revocations == nil || claims.IssuedAt == nil {
		return nil
	}
	revokedAt, ok, err := s.revocations.RevokedAt(ctx, claims.UserID)
	if err != nil {
		// Tokens stay valid when the store is unreachable.
		log.Printf("[JWT] Revocation lookup failed for user #%d: %v", claims.UserID, err)
		return nil
	}
	if ok && !claims.IssuedAt.Time.After(revokedAt) {
		return fmt.Errorf("%w: token revoked", apperrors.ErrExpiredToken)
	}
	return nil
}

// RevokeUserTokens invalidates every token of the user issued up to now.
func (s *JWTService) RevokeUserTokens(ctx context.Context, userID uint) error {
	if s.revocations == nil {
		return nil
	}
	return s.revocations.Revoke(ctx, userID, time.Now().Truncate(time.Second), s.expiration)
}
