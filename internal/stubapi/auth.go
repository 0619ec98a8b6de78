package stubapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	authClaimsKey       = "auth_claims"
	headerAuthorization = "Authorization"
	bearerPrefix        = "Bearer "
)

// Claims is the bearer token payload.
type Claims struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	jwt.RegisteredClaims
}

func mintToken(signingKey []byte, issuer string, user User, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		UserID:   user.UserID,
		UserName: user.UserName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
}

func parseToken(signingKey []byte, issuer string, raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return signingKey, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func authMiddleware(signingKey []byte, issuer string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader(headerAuthorization)
		if !strings.HasPrefix(header, bearerPrefix) {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorDetail("Authorization token required"))
			return
		}
		claims, err := parseToken(signingKey, issuer, strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorDetail("Invalid or expired token"))
			return
		}
		ctx.Set(authClaimsKey, claims)
		ctx.Next()
	}
}

func getClaims(ctx *gin.Context) *Claims {
	claimsValue, ok := ctx.Get(authClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := claimsValue.(*Claims)
	return claims
}
