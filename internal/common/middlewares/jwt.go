package middlewares

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/c14220110/rekap-billing/pkg/utils"
)

// ContextKeyClaims adalah key klaim JWT di echo.Context.
const ContextKeyClaims = "claims"

func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, map[string]interface{}{
		"status":  http.StatusUnauthorized,
		"message": message,
		"data":    nil,
	})
}

// JWTMiddleware memverifikasi header Authorization: Bearer <token>. Handshake websocket
// boleh mengirim token lewat query ?token=.
// Secret kosong berarti verifikasi dimatikan (mis. di belakang gateway SIMRS).
func JWTMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if secret == "" {
			return next
		}
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" && websocketUpgrade(c.Request()) {
				// browser tidak bisa mengirim header pada handshake websocket
				if token := c.QueryParam("token"); token != "" {
					authHeader = "Bearer " + token
				}
			}
			if authHeader == "" {
				return unauthorized(c, "Authorization header missing")
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return unauthorized(c, "Invalid authorization header")
			}
			claims, err := utils.ValidateJWTToken(secret, parts[1])
			if err != nil {
				return unauthorized(c, "Invalid token: "+err.Error())
			}
			c.Set(ContextKeyClaims, claims)
			return next(c)
		}
	}
}

func websocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// ClaimsFrom mengambil klaim yang disimpan JWTMiddleware; nil bila verifikasi dimatikan.
func ClaimsFrom(c echo.Context) *utils.Claims {
	claims, _ := c.Get(ContextKeyClaims).(*utils.Claims)
	return claims
}
