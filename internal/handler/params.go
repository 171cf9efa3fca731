package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// UUIDParam parses a path parameter, responding 400 when it is not an id.
func UUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, apperrors.InvalidField(name, "must be a valid id"))
		return uuid.Nil, false
	}
	return id, true
}

// UUIDQuery parses an optional query parameter. An absent value is Nil.
func UUIDQuery(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		RespondError(c, apperrors.InvalidField(name, "must be a valid id"))
		return uuid.Nil, false
	}
	return id, true
}
