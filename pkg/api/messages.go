package api

import "time"

type (
	// RunResponse is returned by the run endpoints
	RunResponse struct {
		Outputs   []*RunOutputs `json:"outputs"`
		SessionID SessionID     `json:"session_id"`
	}

	// RunOutputs holds the results of one pass over the graph for one set
	// of inputs
	RunOutputs struct {
		Inputs  map[string]any `json:"inputs"`
		Outputs []*ResultData  `json:"outputs"`
	}

	// ResultData is the result produced by a single component
	ResultData struct {
		Results              map[string]any `json:"results"`
		Messages             []*ChatMessage `json:"messages,omitempty"`
		ComponentID          ComponentID    `json:"component_id"`
		ComponentDisplayName string         `json:"component_display_name"`
		Duration             string         `json:"duration"`
		Timedelta            float64        `json:"timedelta"`
	}

	// ChatMessage is a message recorded in a session's history
	ChatMessage struct {
		Timestamp   time.Time   `json:"timestamp"`
		ID          string      `json:"id"`
		SessionID   SessionID   `json:"session_id"`
		FlowID      FlowID      `json:"flow_id"`
		ComponentID ComponentID `json:"component_id"`
		Sender      string      `json:"sender"`
		Text        string      `json:"text"`
	}

	// RunEvent is streamed to clients while a run progresses
	RunEvent struct {
		Data  any    `json:"data"`
		Event string `json:"event"`
	}

	// VertexBuilt is the payload of an EventVertexBuilt event
	VertexBuilt struct {
		ID    ComponentID `json:"id"`
		Valid bool        `json:"valid"`
	}

	// FlowRegisteredResponse is returned when a flow is stored
	FlowRegisteredResponse struct {
		Flow    *Flow  `json:"flow"`
		Message string `json:"message"`
	}

	// FlowsListResponse contains the registered flows
	FlowsListResponse struct {
		Flows []*Flow `json:"flows"`
		Count int     `json:"count"`
	}

	// SessionResponse contains a session's recorded messages
	SessionResponse struct {
		SessionID SessionID      `json:"session_id"`
		Messages  []*ChatMessage `json:"messages"`
		Count     int            `json:"count"`
	}

	// HealthResponse provides service health information
	HealthResponse struct {
		Service string `json:"service"`
		Version string `json:"version"`
		Status  string `json:"status"`
		Redis   string `json:"redis"`
	}

	// MessageResponse contains a simple message string
	MessageResponse struct {
		Message string `json:"message"`
	}

	// ErrorResponse contains error details for failed requests
	ErrorResponse struct {
		Error  string       `json:"error"`
		Fields []FieldError `json:"fields,omitempty"`
		Status int          `json:"status,omitempty"`
	}
)

const (
	EventVertexBuilt = "vertex_built"
	EventEnd         = "end"
	EventError       = "error"

	SenderUser    = "User"
	SenderMachine = "Machine"

	HealthOK       = "ok"
	HealthDegraded = "degraded"
)
