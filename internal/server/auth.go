package server

import (
	"fmt"
	"net/http"
	"time"

	"aura/internal/domain/errors"
	"aura/internal/domain/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenCookie = "jwt_token"
	ctxUserID   = "userID"
	ctxEmail    = "email"
)

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func (a *TaskAPI) issueToken(user *models.User, now time.Time) (string, error) {
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(a.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (a *TaskAPI) parseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(a.cfg.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return nil, errors.ErrInvalidToken
	}
	return claims, nil
}

func (a *TaskAPI) setTokenCookie(ctx *gin.Context, value string, maxAge int) {
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(tokenCookie, value, maxAge, "/", "", a.cfg.SecureCookie, true)
}

func (a *TaskAPI) clearTokenCookie(ctx *gin.Context) {
	a.setTokenCookie(ctx, "", -1)
}

// authMiddleware requires a valid session cookie. A missing cookie is 401,
// a bad or expired token is 400 and the cookie is cleared.
func (a *TaskAPI) authMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		raw, err := ctx.Cookie(tokenCookie)
		if err != nil || raw == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errors.ErrUnauthorized.Error()})
			return
		}

		claims, err := a.parseToken(raw)
		if err != nil {
			a.clearTokenCookie(ctx)
			ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": errors.ErrInvalidToken.Error()})
			return
		}

		ctx.Set(ctxUserID, claims.UserID)
		ctx.Set(ctxEmail, claims.Email)
		ctx.Next()
	}
}
