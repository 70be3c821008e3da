package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/flowrun/internal/runner"
	"github.com/kode4food/flowrun/internal/tweaks"
	"github.com/kode4food/flowrun/pkg/api"
	"github.com/kode4food/flowrun/pkg/log"
)

var (
	ErrReadBody = errors.New("failed to read request body")
	ErrNullBody = fmt.Errorf("%w: %w", api.ErrValidation, api.ErrNotObject)
)

func (s *Server) runFlow(c *gin.Context) {
	req := api.NewSimplifiedAPIRequest()
	if !decodeBody(c, req) {
		return
	}

	fl, ok := s.lookupFlow(c)
	if !ok {
		return
	}

	res, err := s.runSimplified(c.Request.Context(), fl, req, nil)
	if err != nil {
		respondError(c, runErrorStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) runAdvanced(c *gin.Context) {
	req := &api.RunFlowRequest{}
	if !decodeBody(c, req) {
		return
	}

	fl, ok := s.lookupFlow(c)
	if !ok {
		return
	}

	tweaked, err := tweaks.Apply(fl, req.Tweaks, req.Stream)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	res, err := s.execute(c.Request.Context(), tweaked, &runner.Request{
		SessionID: req.SessionID,
		Inputs:    req.Inputs,
		Outputs:   req.Outputs,
	})
	if err != nil {
		respondError(c, runErrorStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) runSimplified(
	ctx context.Context, fl *api.Flow, req *api.SimplifiedAPIRequest,
	sink runner.EventSink,
) (*api.RunResponse, error) {
	tweaked, err := tweaks.Apply(fl, req.Tweaks, sink != nil)
	if err != nil {
		return nil, err
	}

	return s.execute(ctx, tweaked, &runner.Request{
		Sink:      sink,
		SessionID: req.SessionID,
		Inputs:    req.Inputs(),
		Outputs: runner.SelectOutputs(
			tweaked, req.OutputType, req.OutputComponent,
		),
	})
}

func (s *Server) execute(
	ctx context.Context, fl *api.Flow, req *runner.Request,
) (*api.RunResponse, error) {
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}
	return s.runner.Run(ctx, fl, req)
}

// decodeBody unmarshals the request body into v. An empty body leaves v
// untouched so that its defaults apply
func decodeBody(c *gin.Context, v json.Unmarshaler) bool {
	data, err := c.GetRawData()
	if err != nil {
		respondError(c, http.StatusBadRequest,
			fmt.Errorf("%w: %w", ErrReadBody, err))
		return false
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return true
	}

	if err := unmarshalBody(data, v); err != nil {
		respondError(c, decodeErrorStatus(err), err)
		return false
	}
	return true
}

// unmarshalBody decodes a request document into v. Unlike a nested value,
// a top-level null is not a request
func unmarshalBody(data []byte, v json.Unmarshaler) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return ErrNullBody
	}
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}

	var ve *api.ValidationError
	if errors.As(err, &ve) {
		slog.Debug("Request validation failed",
			log.Schema(ve.Schema),
			log.Error(err))
	}
	return decodeError(err)
}

func decodeError(err error) error {
	if errors.Is(err, api.ErrValidation) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
}

func decodeErrorStatus(err error) int {
	if errors.Is(err, api.ErrValidation) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}

func runErrorStatus(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, runner.ErrOutputNotFound),
		errors.Is(err, runner.ErrInvalidJSONData),
		errors.Is(err, tweaks.ErrInvalidNestedDict),
		errors.Is(err, api.ErrCyclicFlow):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
