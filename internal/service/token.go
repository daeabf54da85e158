package service

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/authgate-dev/authgate/internal/domain"
	internal_errors "github.com/authgate-dev/authgate/internal/errors"
	"github.com/authgate-dev/authgate/internal/logger"
)

// Detail codes carried by TOKEN_INVALID errors. Clients only ever see the
// outer code; these stay internal so callers (and logs) can tell the cases
// apart without parsing message text.
const (
	TokenDetailExpired         = "EXPIRED"
	TokenDetailSignature       = "SIGNATURE_INVALID"
	TokenDetailMalformed       = "MALFORMED"
	TokenDetailTypeRequired    = "TYPE_REQUIRED"
	TokenDetailTypeMismatch    = "TYPE_MISMATCH"
	TokenDetailSubjectRequired = "SUBJECT_REQUIRED"
	TokenDetailNotFound        = "NOT_FOUND"
	TokenDetailSecretMismatch  = "SECRET_MISMATCH"
)

// TokenStorage persists opaque one-time tokens. Session JWTs never touch it.
type TokenStorage interface {
	SaveToken(token domain.Token) error
	// LiveToken returns the token with the given id and type that is neither
	// expired nor used. Absent, expired and already-used rows are all
	// reported as a single not-found error.
	LiveToken(id, tokenType string, now time.Time) (domain.Token, error)
	// ClaimToken atomically flips used from false to true. It fails with a
	// not-found error when the token was already claimed, which serializes
	// concurrent redemption attempts.
	ClaimToken(id string) error
	UserById(id domain.UserId) (domain.User, error)
}

type SessionClaims struct {
	Sub      domain.UserId
	ClientId int64
	Type     string
	IssuedAt time.Time
	Expires  time.Time
}

// Token issues and verifies the two token families: stateless session JWTs
// and persisted single-use opaque tokens (activation, password reset).
type Token struct {
	storage    TokenStorage
	secret     string
	method     jwt.SigningMethod
	bcryptCost int
	now        func() time.Time
}

func NewToken(storage TokenStorage, secret, algorithm string, bcryptCost int) *Token {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		method = jwt.SigningMethodHS256
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Token{
		storage:    storage,
		secret:     secret,
		method:     method,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

func tokenInvalid(detail string) *internal_errors.Error {
	return internal_errors.NewBusiness("TOKEN_INVALID", detail)
}

// Random returns cryptographically secure random data. Supported encodings:
// "hex", "base64", "urlsafe" (base64 with +/ replaced by -_ and no padding)
// and "raw".
func Random(length int, encoding string) (string, error) {
	if length < 1 {
		return "", fmt.Errorf("length must be at least 1")
	}
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	switch encoding {
	case "hex":
		return hex.EncodeToString(bytes), nil
	case "base64":
		return base64.StdEncoding.EncodeToString(bytes), nil
	case "urlsafe":
		return base64.RawURLEncoding.EncodeToString(bytes), nil
	case "raw":
		return string(bytes), nil
	default:
		return "", fmt.Errorf("invalid encoding: %s", encoding)
	}
}

// CreateSessionJwt signs a stateless session token for the user, scoped to
// the tenant the login happened under.
func (t *Token) CreateSessionJwt(user domain.User, ttl time.Duration) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"sub":       user.Id,
		"client_id": user.ClientId,
		"type":      domain.TokenTypeSession,
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(t.method, claims)
	signed, err := token.SignedString([]byte(t.secret))
	if err != nil {
		logger.Log.Error("failed to sign session token", "user_id", user.Id, "error", err)
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// DecodeSessionJwt verifies signature and expiry, then checks the session
// claims. Every failure is a TOKEN_INVALID error with a distinct detail code.
func (t *Token) DecodeSessionJwt(tokenStr string) (*SessionClaims, error) {
	parsed, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != t.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(t.secret), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, tokenInvalid(TokenDetailExpired)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, tokenInvalid(TokenDetailSignature)
		default:
			return nil, tokenInvalid(TokenDetailMalformed)
		}
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, tokenInvalid(TokenDetailMalformed)
	}

	tokenType, ok := claims["type"].(string)
	if !ok {
		return nil, tokenInvalid(TokenDetailTypeRequired)
	}
	if tokenType != domain.TokenTypeSession {
		return nil, tokenInvalid(TokenDetailTypeMismatch)
	}

	sub, ok := claims["sub"].(float64)
	if !ok {
		return nil, tokenInvalid(TokenDetailSubjectRequired)
	}

	result := &SessionClaims{
		Sub:  domain.UserId(sub),
		Type: tokenType,
	}
	if clientId, ok := claims["client_id"].(float64); ok {
		result.ClientId = int64(clientId)
	}
	if iat, ok := claims["iat"].(float64); ok {
		result.IssuedAt = time.Unix(int64(iat), 0)
	}
	if exp, ok := claims["exp"].(float64); ok {
		result.Expires = time.Unix(int64(exp), 0)
	}
	return result, nil
}

// CreateToken mints a persisted single-use token and returns its external
// form "id.secret". Only the bcrypt hash of the secret is stored.
func (t *Token) CreateToken(tokenType string, user domain.User, ttl time.Duration) (string, error) {
	id, err := Random(16, "hex") // 128-bit lookup key
	if err != nil {
		return "", err
	}
	secret, err := Random(32, "urlsafe") // 256-bit secret
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), t.bcryptCost)
	if err != nil {
		logger.Log.Error("failed to hash token secret", "error", err)
		return "", fmt.Errorf("failed to hash token secret: %w", err)
	}

	now := t.now()
	token := domain.Token{
		Id:        id,
		UserId:    user.Id,
		Type:      tokenType,
		TokenHash: string(hash),
		ExpiresAt: now.Add(ttl),
		Created:   now,
	}
	if err := t.storage.SaveToken(token); err != nil {
		return "", err
	}
	return id + "." + secret, nil
}

// VerifyToken redeems an opaque token. Absent, expired and already-used
// tokens all fail identically toward the caller; the detail codes keep them
// apart in logs. On success the token is permanently spent.
func (t *Token) VerifyToken(fullToken, tokenType string) (*domain.User, error) {
	dot := strings.Index(fullToken, ".")
	if dot < 0 {
		return nil, tokenInvalid(TokenDetailMalformed)
	}
	id, secret := fullToken[:dot], fullToken[dot+1:]

	token, err := t.storage.LiveToken(id, tokenType, t.now())
	if err != nil {
		if internal_errors.IsNotFound(err) {
			logger.Log.Info("token redemption failed", "token_id", id, "type", tokenType, "reason", "no live token")
			return nil, tokenInvalid(TokenDetailNotFound)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(token.TokenHash), []byte(secret)); err != nil {
		logger.Log.Warn("token redemption failed", "token_id", id, "type", tokenType, "reason", "secret mismatch")
		return nil, tokenInvalid(TokenDetailSecretMismatch)
	}

	if err := t.storage.ClaimToken(id); err != nil {
		if internal_errors.IsNotFound(err) {
			// Lost a race against a concurrent redemption of the same token.
			logger.Log.Info("token redemption failed", "token_id", id, "type", tokenType, "reason", "already claimed")
			return nil, tokenInvalid(TokenDetailNotFound)
		}
		return nil, err
	}

	user, err := t.storage.UserById(token.UserId)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
