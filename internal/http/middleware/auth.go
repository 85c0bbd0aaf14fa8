package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/Nixie-Tech-LLC/minbar/internal/model"
)

// is returned when the operator name/password don't match.
var ErrInvalidCredentials = errors.New("invalid operator or password")

const currentOperatorKey = "currentUser"

// uses bcrypt to hash a plaintext password.
func HashPassword(plain string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(bytes), err
}

// compares a bcrypt hash with the plaintext.
func CheckPassword(hash, plain string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	return err == nil
}

// retrieves *model.Operator from Gin context (after JWTMiddleware has run).
func GetCurrentOperator(c *gin.Context) (*model.Operator, bool) {
	u, exists := c.Get(currentOperatorKey)
	if !exists {
		return nil, false
	}
	op, ok := u.(*model.Operator)
	return op, ok
}
