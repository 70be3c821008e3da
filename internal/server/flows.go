package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kode4food/flowrun/internal/store"
	"github.com/kode4food/flowrun/pkg/api"
)

var (
	ErrListFlows    = errors.New("failed to list flows")
	ErrRegisterFlow = errors.New("failed to register flow")
	ErrGetFlow      = errors.New("failed to get flow")
	ErrDeleteFlow   = errors.New("failed to delete flow")
	ErrFlowMismatch = errors.New("flow ID in URL does not match flow ID in body")
)

func (s *Server) listFlows(c *gin.Context) {
	flows, err := s.store.Flows.List(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError,
			fmt.Errorf("%w: %w", ErrListFlows, err))
		return
	}

	c.JSON(http.StatusOK, api.FlowsListResponse{
		Flows: flows,
		Count: len(flows),
	})
}

func (s *Server) createFlow(c *gin.Context) {
	var fl api.Flow
	if err := c.ShouldBindJSON(&fl); err != nil {
		respondError(c, http.StatusBadRequest,
			fmt.Errorf("%w: %w", ErrInvalidJSON, err))
		return
	}

	if fl.ID == "" {
		fl.ID = api.FlowID(uuid.NewString())
	}
	fl.ID = api.SanitizeID(fl.ID)

	if err := fl.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	err := s.store.Flows.Create(c.Request.Context(), &fl)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, api.FlowRegisteredResponse{
			Message: "Flow registered",
			Flow:    &fl,
		})
	case errors.Is(err, store.ErrFlowExists):
		respondError(c, http.StatusConflict, err)
	default:
		respondError(c, http.StatusInternalServerError,
			fmt.Errorf("%w: %w", ErrRegisterFlow, err))
	}
}

func (s *Server) getFlow(c *gin.Context) {
	fl, ok := s.lookupFlow(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, fl)
}

func (s *Server) updateFlow(c *gin.Context) {
	flowID := api.SanitizeID(api.FlowID(c.Param("flowID")))

	var fl api.Flow
	if err := c.ShouldBindJSON(&fl); err != nil {
		respondError(c, http.StatusBadRequest,
			fmt.Errorf("%w: %w", ErrInvalidJSON, err))
		return
	}

	if fl.ID == "" {
		fl.ID = flowID
	}
	fl.ID = api.SanitizeID(fl.ID)
	if fl.ID != flowID {
		respondError(c, http.StatusBadRequest, ErrFlowMismatch)
		return
	}

	if err := fl.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	if err := s.store.Flows.Put(c.Request.Context(), &fl); err != nil {
		respondError(c, http.StatusInternalServerError,
			fmt.Errorf("%w: %w", ErrRegisterFlow, err))
		return
	}

	c.JSON(http.StatusOK, api.FlowRegisteredResponse{
		Message: "Flow updated",
		Flow:    &fl,
	})
}

func (s *Server) deleteFlow(c *gin.Context) {
	flowID := api.SanitizeID(api.FlowID(c.Param("flowID")))

	err := s.store.Flows.Delete(c.Request.Context(), flowID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, api.MessageResponse{
			Message: "Flow deleted",
		})
	case errors.Is(err, store.ErrFlowNotFound):
		respondError(c, http.StatusNotFound, err)
	default:
		respondError(c, http.StatusInternalServerError,
			fmt.Errorf("%w: %w", ErrDeleteFlow, err))
	}
}

// lookupFlow loads the flow named by the flowID path parameter, writing an
// error response when it cannot
func (s *Server) lookupFlow(c *gin.Context) (*api.Flow, bool) {
	flowID := api.SanitizeID(api.FlowID(c.Param("flowID")))

	fl, err := s.store.Flows.Get(c.Request.Context(), flowID)
	switch {
	case err == nil:
		return fl, true
	case errors.Is(err, store.ErrFlowNotFound):
		respondError(c, http.StatusNotFound, err)
	default:
		respondError(c, http.StatusInternalServerError,
			fmt.Errorf("%w: %w", ErrGetFlow, err))
	}
	return nil, false
}
