package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token body shared by both APIs.
type Claims struct {
	UniqueName string `json:"unique_name,omitempty"`
	Name       string `json:"name,omitempty"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

type JWTOptions struct {
	Secret    string
	Issuer    string
	Audience  string
	Expiry    time.Duration
	ClockSkew time.Duration
}

type JWTManager struct {
	key       []byte
	issuer    string
	audience  string
	expiry    time.Duration
	clockSkew time.Duration
	now       func() time.Time
}

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

func NewJWTManager(opts JWTOptions) *JWTManager {
	expiry := opts.Expiry
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &JWTManager{
		key:       SigningKey(opts.Secret),
		issuer:    opts.Issuer,
		audience:  opts.Audience,
		expiry:    expiry,
		clockSkew: opts.ClockSkew,
		now:       time.Now,
	}
}

// Expiry is the lifetime given to issued tokens.
func (m *JWTManager) Expiry() time.Duration {
	return m.expiry
}

// Generate signs a token for p and returns it with its expiry instant.
func (m *JWTManager) Generate(p Principal) (string, time.Time, error) {
	if p.ID == "" || p.Role == "" {
		return "", time.Time{}, ErrInvalidToken
	}

	now := m.now()
	expiresAt := now.Add(m.expiry)
	claims := &Claims{
		UniqueName: p.Username,
		Name:       p.DisplayName,
		Role:       string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if m.audience != "" {
		claims.Audience = jwt.ClaimStrings{m.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (m *JWTManager) Validate(tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(m.clockSkew),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.key, nil
	}, opts...)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Principal converts validated claims into the caller identity.
func (c *Claims) Principal() Principal {
	return Principal{
		ID:          c.Subject,
		Username:    c.UniqueName,
		DisplayName: c.Name,
		Role:        NormalizeRole(c.Role),
	}
}

// TokenFromHeader accepts "Bearer <token>" as well as a bare token.
func TokenFromHeader(authHeader string) (string, error) {
	parts := strings.Fields(authHeader)
	switch {
	case len(parts) == 1 && !strings.EqualFold(parts[0], "bearer"):
		return parts[0], nil
	case len(parts) == 2 && strings.EqualFold(parts[0], "bearer"):
		return parts[1], nil
	}
	return "", ErrMissingToken
}
