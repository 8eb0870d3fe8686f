package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"grove/internal/service"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": apiError{Code: code, Message: msg}})
}

func badRequest(c *gin.Context, err error) {
	abort(c, http.StatusBadRequest, "BAD_REQUEST", service.Describe(err))
}

// fail maps a service error onto its status and error code.
func (s *Server) fail(c *gin.Context, err error) {
	var mismatch *service.QuoteMismatchError
	switch {
	case errors.As(err, &mismatch):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error": apiError{Code: "CONFLICT", Message: err.Error()},
			"quote": mismatch.Quote,
		})
	case errors.Is(err, service.ErrNotFound):
		abort(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrForbidden):
		abort(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		abort(c, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
	case errors.Is(err, service.ErrValidation):
		abort(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
	case errors.Is(err, service.ErrConflict):
		abort(c, http.StatusConflict, "CONFLICT", err.Error())
	default:
		s.Log.Error().Err(err).Str("route", c.FullPath()).Msg("request failed")
		abort(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal error")
	}
}
