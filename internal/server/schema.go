package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/flowrun/pkg/api"
)

func (s *Server) listSchemas(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"schemas": api.SchemaNames()})
}

func (s *Server) getSchema(c *gin.Context) {
	schema, err := api.RequestSchema(c.Param("name"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, schema)
	case errors.Is(err, api.ErrUnknownSchema):
		respondError(c, http.StatusNotFound, err)
	default:
		respondError(c, http.StatusInternalServerError, err)
	}
}
