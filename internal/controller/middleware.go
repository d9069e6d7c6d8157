package controller

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"service-marketplace-api/internal/auth"

	"github.com/labstack/echo"
)

const callbackSecretHeader = "X-Callback-Secret"

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			attrs := []any{
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", status,
				"latency", time.Since(start),
			}
			switch {
			case status >= http.StatusInternalServerError:
				logger.Error("request", append(attrs, "error", err)...)
			case status >= http.StatusBadRequest:
				logger.Warn("request", attrs...)
			default:
				logger.Info("request", attrs...)
			}

			return nil
		}
	}
}

// authenticate resolves the bearer token into the actor every service call runs as.
func authenticate(tokens *auth.Tokens) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				// EventSource can't set headers, the stream passes the token in the query.
				header = c.QueryParam("access_token")
			}
			actor, err := tokens.Parse(header)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorResponse{err.Error()})
			}

			req := c.Request()
			c.SetRequest(req.WithContext(auth.WithActor(req.Context(), actor)))

			return next(c)
		}
	}
}

// callbackAuth admits gateway callbacks carrying the shared secret and runs them as the system actor.
func callbackAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			given := c.Request().Header.Get(callbackSecretHeader)
			if secret == "" || subtle.ConstantTimeCompare([]byte(given), []byte(secret)) != 1 {
				return c.JSON(http.StatusUnauthorized, errorResponse{"Invalid callback secret"})
			}

			req := c.Request()
			c.SetRequest(req.WithContext(auth.WithActor(req.Context(), auth.System)))

			return next(c)
		}
	}
}
