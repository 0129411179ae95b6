package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/carebridge/telehealth-api/internal/apperr"
	"github.com/carebridge/telehealth-api/internal/dto"
)

// respondError maps a classified error to its HTTP status and JSON body
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	c.JSON(kind.HTTPStatus(), dto.ErrorResponse{
		Error:   kind.Label(),
		Message: apperr.MessageOf(err),
	})
}

// abortError is respondError plus aborting the middleware chain
func abortError(c *gin.Context, err error) {
	respondError(c, err)
	c.Abort()
}
