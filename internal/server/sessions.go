package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/flowrun/internal/store"
	"github.com/kode4food/flowrun/pkg/api"
)

var (
	ErrGetSession    = errors.New("failed to get session")
	ErrDeleteSession = errors.New("failed to delete session")
)

func (s *Server) getSession(c *gin.Context) {
	sessionID := api.SessionID(c.Param("sessionID"))

	msgs, err := s.store.Sessions.Messages(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, http.StatusInternalServerError,
			fmt.Errorf("%w: %w", ErrGetSession, err))
		return
	}

	c.JSON(http.StatusOK, api.SessionResponse{
		SessionID: sessionID,
		Messages:  msgs,
		Count:     len(msgs),
	})
}

func (s *Server) deleteSession(c *gin.Context) {
	sessionID := api.SessionID(c.Param("sessionID"))

	err := s.store.Sessions.Clear(c.Request.Context(), sessionID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, api.MessageResponse{
			Message: "Session deleted",
		})
	case errors.Is(err, store.ErrSessionNotFound):
		respondError(c, http.StatusNotFound, err)
	default:
		respondError(c, http.StatusInternalServerError,
			fmt.Errorf("%w: %w", ErrDeleteSession, err))
	}
}
