package util

import (
	"reading_coach_backend/internal/model"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	AccountID uint              `json:"account_id"`
	CoachID   *uint             `json:"coach_id,omitempty"`
	Role      model.AccountRole `json:"role"`
	Email     string            `json:"email"`
	jwt.RegisteredClaims
}

func GenerateJWT(account *model.Account, secret string, expiration time.Duration) (string, error) {
	expirationTime := time.Now().Add(expiration)

	claims := &Claims{
		AccountID: account.ID,
		CoachID:   account.CoachID,
		Role:      account.Role,
		Email:     account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseJWT(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, err
}

func GetUserFromContext(c *gin.Context) *Claims {
	user, exists := c.Get("user")
	if !exists {
		return nil
	}
	claims, ok := user.(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// IsAdmin 管理员放行判断
func (cl *Claims) IsAdmin() bool {
	return cl.Role == model.RoleAdmin
}

// OwnsCoach 是否为该教练本人
func (cl *Claims) OwnsCoach(coachID uint) bool {
	return cl.CoachID != nil && *cl.CoachID == coachID
}
