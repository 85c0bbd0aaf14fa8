package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/minbar/internal/http/api"
	"github.com/Nixie-Tech-LLC/minbar/internal/http/api/control/packets"
	"github.com/Nixie-Tech-LLC/minbar/internal/http/middleware"
)

// Credentials is the single operator account allowed on the control surface.
type Credentials struct {
	Name         string
	PasswordHash string // bcrypt
}

type AccountManager struct {
	jwtSecret string
	operator  Credentials
}

// AuthPublicModule mounts POST /auth/login.
func AuthPublicModule(secret string, operator Credentials) api.Module {
	ctl := &AccountManager{jwtSecret: secret, operator: operator}
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_POST("/auth/login", ctl.login)
	})
}

// POST /api/control/auth/login
func (a *AccountManager) login(ctx *gin.Context) (any, *api.APIError) {
	var request packets.LoginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	if a.operator.PasswordHash == "" ||
		request.Name != a.operator.Name ||
		!middleware.CheckPassword(a.operator.PasswordHash, request.Password) {
		log.Warn().Str("name", request.Name).Str("ip", ctx.ClientIP()).Msg("operator login failed")
		return nil, &api.APIError{Code: http.StatusUnauthorized, Message: middleware.ErrInvalidCredentials.Error()}
	}

	token, err := middleware.GenerateJWT(request.Name, a.jwtSecret)
	if err != nil {
		log.Error().Err(err).Str("name", request.Name).Msg("could not generate JWT")
		return nil, api.Internal("Something went wrong, please try again")
	}

	log.Info().Str("name", request.Name).Msg("operator logged in")
	return packets.LoginResponse{Token: token}, nil
}
