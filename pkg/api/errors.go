package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrosense/agrosense/pkg/agrierr"
)

// mapServiceError translates typed pipeline errors into HTTP responses.
// Internal detail is logged upstream; clients get the kind and a message.
func mapServiceError(c *gin.Context, err error) {
	kind := agrierr.KindOf(err)
	c.JSON(statusForKind(kind), ErrorResponse{Error: err.Error(), Kind: string(kind)})
}

func statusForKind(kind agrierr.Kind) int {
	switch kind {
	case agrierr.KindBadRequest, agrierr.KindValidation:
		return http.StatusBadRequest
	case agrierr.KindMapping:
		return http.StatusUnprocessableEntity
	case agrierr.KindEmptyResult:
		return http.StatusNotFound
	case agrierr.KindLLMUnavailable:
		return http.StatusServiceUnavailable
	case agrierr.KindTimeout:
		return http.StatusGatewayTimeout
	case agrierr.KindCancelled:
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}
