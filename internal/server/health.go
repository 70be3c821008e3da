package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/flowrun"
	"github.com/kode4food/flowrun/pkg/api"
)

func (s *Server) handleHealth(c *gin.Context) {
	res := api.HealthResponse{
		Service: flowrun.Name,
		Version: flowrun.Version,
		Status:  api.HealthOK,
		Redis:   api.HealthOK,
	}

	if err := s.store.Ping(c.Request.Context()); err != nil {
		res.Status = api.HealthDegraded
		res.Redis = err.Error()
		c.JSON(http.StatusServiceUnavailable, res)
		return
	}
	c.JSON(http.StatusOK, res)
}
