package apitest

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer     = "hoteldesk-apitest"
	claimsKey       = "apitest_claims"
	defaultTokenTTL = time.Hour
)

// accountClaims are embedded in the bearer tokens issued by the fake service.
type accountClaims struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

func mintToken(accountID string, email string, signingKey []byte, ttl time.Duration) (string, error) {
	issuedAt := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accountClaims{
		AccountID: accountID,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt.Add(-30 * time.Second)),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	})
	return token.SignedString(signingKey)
}

func parseToken(tokenString string, signingKey []byte) (*accountClaims, error) {
	parsedToken, parseErr := jwt.ParseWithClaims(tokenString, &accountClaims{}, func(parsed *jwt.Token) (interface{}, error) {
		return signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if parseErr != nil {
		return nil, parseErr
	}
	claims, ok := parsedToken.Claims.(*accountClaims)
	if !ok || !parsedToken.Valid {
		return nil, errors.New("apitest.invalid_token")
	}
	return claims, nil
}

// requireBearer validates the Authorization header and injects the claims.
func requireBearer(signingKey []byte) gin.HandlerFunc {
	return func(contextGin *gin.Context) {
		header := contextGin.GetHeader("Authorization")
		tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if tokenString == "" {
			contextGin.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing token"})
			return
		}
		claims, err := parseToken(tokenString, signingKey)
		if err != nil {
			contextGin.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
			return
		}
		contextGin.Set(claimsKey, claims)
		contextGin.Next()
	}
}
