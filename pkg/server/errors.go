// Copyright 2025 Certen Protocol
//
// Maps pkg/aigerr's kinds onto the HTTP status codes spec §6 names.

package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/certen/aig/pkg/aigerr"
)

func writeEngineError(c echo.Context, err error) error {
	kind, ok := aigerr.KindOf(err)
	if !ok {
		return c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
	}

	status := http.StatusInternalServerError
	switch kind {
	case aigerr.KindNotFound:
		status = http.StatusNotFound
	case aigerr.KindValidation, aigerr.KindNamespaceMismatch:
		status = http.StatusBadRequest
	case aigerr.KindPartialWrite, aigerr.KindStorageFailure:
		status = http.StatusInternalServerError
	}
	return c.JSON(status, errorBody(err.Error()))
}
