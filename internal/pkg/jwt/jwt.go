package jwt

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TokenTypeAccess       = "access"
	TokenTypeRefresh      = "refresh"
	TokenTypeVerification = "verify"
)

var ErrWrongTokenType = errors.New("unexpected token type")

// AccessClaims is the identity carried by an access token.
type AccessClaims struct {
	UserID     string
	Username   string
	Email      string
	EmployeeID string
	Role       user.Role
}

type Service interface {
	GenerateAccessToken(claims AccessClaims) (token string, expiresAt int64, err error)
	GenerateRefreshToken(userID string) (token string, expiresAt int64, err error)
	GenerateVerificationToken(userID string) (token string, expiresAt int64, err error)
	// ParseToken validates signature, expiry and type and returns the subject user ID.
	ParseToken(tokenString string, tokenType string) (userID string, err error)
	JWTAuth() *jwtauth.JWTAuth
	RefreshTokenCookie(token string, expiresAt int64) *http.Cookie
	RevokeToken(token string)
	IsTokenRevoked(token string) bool
	// PruneRevokedTokens forgets revocations old enough that the token has expired anyway.
	PruneRevokedTokens() int
}

type JWTService struct {
	accessTokenExpiration       time.Duration
	refreshTokenExpiration      time.Duration
	verificationTokenExpiration time.Duration
	tokenAuth                   *jwtauth.JWTAuth
	revokedTokens               map[string]int64
	mu                          sync.RWMutex
	now                         func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

// NewJWTService parses the expiration durations up front.
func NewJWTService(secretKey string, accessExpiration, refreshExpiration, verificationExpiration string) (Service, error) {
	access, err := time.ParseDuration(accessExpiration)
	if err != nil {
		return nil, err
	}
	refresh, err := time.ParseDuration(refreshExpiration)
	if err != nil {
		return nil, err
	}
	verification, err := time.ParseDuration(verificationExpiration)
	if err != nil {
		return nil, err
	}
	return &JWTService{
		accessTokenExpiration:       access,
		refreshTokenExpiration:      refresh,
		verificationTokenExpiration: verification,
		tokenAuth:                   jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		revokedTokens:               make(map[string]int64),
		now:                         time.Now,
	}, nil
}

func (j *JWTService) GenerateAccessToken(c AccessClaims) (token string, expiresAt int64, err error) {
	expiresAt = j.now().Add(j.accessTokenExpiration).Unix()

	claims := map[string]interface{}{
		"user_id":     c.UserID,
		"username":    c.Username,
		"email":       c.Email,
		"employee_id": c.EmployeeID,
		"role":        string(c.Role),
		"type":        TokenTypeAccess,
		"exp":         expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

func (j *JWTService) GenerateRefreshToken(userID string) (token string, expiresAt int64, err error) {
	return j.generateSubjectToken(userID, TokenTypeRefresh, j.refreshTokenExpiration)
}

// GenerateVerificationToken issues the token embedded in the email verification link.
func (j *JWTService) GenerateVerificationToken(userID string) (token string, expiresAt int64, err error) {
	return j.generateSubjectToken(userID, TokenTypeVerification, j.verificationTokenExpiration)
}

func (j *JWTService) generateSubjectToken(userID, tokenType string, ttl time.Duration) (string, int64, error) {
	expiresAt := j.now().Add(ttl).Unix()
	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id": userID,
		"exp":     expiresAt,
		"type":    tokenType,
	})
	return tokenString, expiresAt, err
}

func (j *JWTService) ParseToken(tokenString string, tokenType string) (userID string, err error) {
	// VerifyToken checks the signature and exp with the configured skew
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return "", err
	}

	typ, ok := token.Get("type")
	if !ok || typ != tokenType {
		return "", ErrWrongTokenType
	}

	userIDVal, ok := token.Get("user_id")
	if !ok {
		return "", jwt.ErrInvalidJWT()
	}
	userID, ok = userIDVal.(string)
	if !ok || userID == "" {
		return "", jwt.ErrInvalidJWT()
	}

	return userID, nil
}

func (j *JWTService) RefreshTokenCookie(token string, expiresAt int64) *http.Cookie {
	return &http.Cookie{
		Name:     "refresh_token",
		Value:    token,
		Path:     "/api/v1/auth",
		Expires:  time.Unix(expiresAt, 0),
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteStrictMode,
	}
}

func (j *JWTService) RevokeToken(token string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.revokedTokens[token] = j.now().Unix()
}

func (j *JWTService) IsTokenRevoked(token string) bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	_, revoked := j.revokedTokens[token]
	return revoked
}

func (j *JWTService) PruneRevokedTokens() int {
	cutoff := j.now().Add(-j.refreshTokenExpiration).Unix()

	j.mu.Lock()
	defer j.mu.Unlock()
	pruned := 0
	for token, revokedAt := range j.revokedTokens {
		if revokedAt < cutoff {
			delete(j.revokedTokens, token)
			pruned++
		}
	}
	return pruned
}

// ErrMissingClaims is returned when the context carries no usable access token.
var ErrMissingClaims = errors.New("access token claims missing from context")

// ClaimsFromContext reads the identity of the authenticated caller from ctx,
// as placed there by jwtauth.Verifier.
func ClaimsFromContext(ctx context.Context) (AccessClaims, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return AccessClaims{}, ErrMissingClaims
	}

	var c AccessClaims
	c.UserID, _ = claims["user_id"].(string)
	c.Username, _ = claims["username"].(string)
	c.Email, _ = claims["email"].(string)
	c.EmployeeID, _ = claims["employee_id"].(string)
	role, _ := claims["role"].(string)
	c.Role = user.Role(role)

	if c.UserID == "" {
		return AccessClaims{}, ErrMissingClaims
	}
	return c, nil
}
