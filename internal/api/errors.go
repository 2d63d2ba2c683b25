package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/roach88/cube/internal/store"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
}

// errorHandler maps not-found to 404, bad input to 400 and any other error
// to a generic 500.
func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		resp := ErrorResponse{
			Code:        http.StatusInternalServerError,
			Description: http.StatusText(http.StatusInternalServerError),
		}

		var (
			httpErr *echo.HTTPError
			verrs   validator.ValidationErrors
		)
		switch {
		case errors.Is(err, store.ErrNotFound):
			resp = ErrorResponse{Code: http.StatusNotFound, Description: err.Error()}
		case errors.As(err, &verrs):
			resp = ErrorResponse{Code: http.StatusBadRequest, Description: verrs.Error()}
		case errors.As(err, &httpErr):
			resp = ErrorResponse{Code: httpErr.Code, Description: fmt.Sprint(httpErr.Message)}
		default:
			logger.Error("request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"error", err,
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(resp.Code)
		} else {
			err = c.JSON(resp.Code, resp)
		}
		if err != nil {
			logger.Error("failed to write error response", "error", err)
		}
	}
}
