package webserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/talkincode/storefront/pkg/common"
)

const userContextKey = "user"

// Claims carried by storefront access tokens
type Claims struct {
	UserID int64  `json:"uid,string"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// CurrentUser identity resolved from the bearer token
type CurrentUser struct {
	ID    int64
	Email string
	Role  string
}

func (u CurrentUser) IsAdmin() bool {
	return common.IsAdmin(u.Role)
}

// IssueToken signs an HS256 token for the user valid for expire
func IssueToken(secret string, user CurrentUser, expire time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expire)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken verifies signature and expiry
func ParseToken(secret, token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.UserID == 0 {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// GetCurrentUser the authenticated user; ok is false on public routes without a token
func GetCurrentUser(c echo.Context) (CurrentUser, bool) {
	claims, ok := c.Get(userContextKey).(*Claims)
	if !ok || claims == nil {
		return CurrentUser{}, false
	}
	return CurrentUser{ID: claims.UserID, Email: claims.Email, Role: claims.Role}, true
}

func jwtMiddleware(secret string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: userContextKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return ParseToken(secret, auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return Fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		},
	})
}

func requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := GetCurrentUser(c)
		if !ok || !user.IsAdmin() {
			return Fail(c, http.StatusForbidden, "FORBIDDEN", "Admin access required", nil)
		}
		return next(c)
	}
}
