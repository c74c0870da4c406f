package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"donation_app_echo/internal/services"
)

// NewErrorHandler returns a centralized Echo error handler that maps the
// service error taxonomy onto HTTP status classes. Internal details never
// reach the response body.
func NewErrorHandler(logger *zap.SugaredLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "서버 오류가 발생했습니다"

		var validationErr *services.ValidationError
		var upstreamErr *services.UpstreamError
		var httpErr *echo.HTTPError

		switch {
		case errors.As(err, &validationErr):
			code = http.StatusBadRequest
			message = validationErr.Message
		case errors.Is(err, services.ErrUnauthorized):
			code = http.StatusUnauthorized
			message = "Unauthorized"
		case errors.Is(err, services.ErrDonationNotFound):
			code = http.StatusNotFound
			message = "결제 정보를 찾을 수 없습니다"
		case errors.Is(err, services.ErrNoEligibleDonations):
			code = http.StatusNotFound
			message = "발급 가능한 영수증이 없습니다"
		case errors.Is(err, services.ErrInvalidDonationState):
			code = http.StatusConflict
			message = "처리할 수 없는 상태입니다"
		case errors.Is(err, services.ErrNotConfigured):
			code = http.StatusInternalServerError
			message = "결제 설정이 필요합니다"
		case errors.As(err, &upstreamErr):
			code = http.StatusBadGateway
			message = "결제 처리 중 오류가 발생했습니다"
		case errors.As(err, &httpErr):
			code = httpErr.Code
			if msg, ok := httpErr.Message.(string); ok && msg != "" {
				message = msg
			} else {
				message = http.StatusText(code)
			}
		}

		if code >= http.StatusInternalServerError {
			logger.Errorw("request failed",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", code,
				"error", err)
		}

		if err := c.JSON(code, map[string]string{"error": message}); err != nil {
			logger.Errorw("failed to write error response", "error", err)
		}
	}
}
