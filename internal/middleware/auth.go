package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/Domenick1991/seatbooking/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

const actorKey = "actor"

// Claims carries the directory object id in sub and app roles in roles.
type Claims struct {
	Name  string   `json:"name,omitempty"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

type JWTValidator struct {
	secret    []byte
	adminRole string
	now       func() time.Time
}

func NewJWTValidator(secret, adminRole string) *JWTValidator {
	return &JWTValidator{
		secret:    []byte(strings.TrimSpace(secret)),
		adminRole: adminRole,
		now:       time.Now,
	}
}

func (v *JWTValidator) Validate(token string) (*Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("%w: jwt secret not configured", ErrInvalidToken)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithLeeway(5*time.Second), jwt.WithTimeFunc(v.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

// Actor maps validated claims to the caller identity used by the services.
func (v *JWTValidator) Actor(claims *Claims) domain.Actor {
	return domain.Actor{
		UserID:  claims.Subject,
		IsAdmin: slices.Contains(claims.Roles, v.adminRole),
	}
}

// Auth rejects requests without a valid bearer token and stores the actor in
// the context.
func Auth(v *JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			token = ""
		}

		claims, err := v.Validate(token)
		if err != nil {
			message := "invalid token"
			if errors.Is(err, ErrMissingToken) {
				message = "authentication required"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
			return
		}

		c.Set(actorKey, v.Actor(claims))
		c.Next()
	}
}

func SetActor(c *gin.Context, actor domain.Actor) {
	c.Set(actorKey, actor)
}

func ActorFrom(c *gin.Context) (domain.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return domain.Actor{}, false
	}
	actor, ok := v.(domain.Actor)
	return actor, ok
}
