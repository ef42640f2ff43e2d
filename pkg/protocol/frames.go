// Package protocol defines the wire format spoken between the pairing client
// and the relay server. Frames are JSON objects carried over a WebSocket.
package protocol

import "encoding/json"

// Protocol version. Sent in the connect handshake; the relay rejects mismatches.
const ProtocolVersion = 4

// Frame types
const (
	FrameTypeRequest  = "req"
	FrameTypeResponse = "res"
	FrameTypeEvent    = "event"
)

// RequestFrame is sent by the client to invoke a relay method.
type RequestFrame struct {
	Type   string          `json:"type"`   // always "req"
	ID     string          `json:"id"`     // unique request ID (client-generated)
	Method string          `json:"method"` // relay method name
	Params json.RawMessage `json:"params,omitempty"`
}

// ResponseFrame is sent by the relay in response to a request.
type ResponseFrame struct {
	Type    string          `json:"type"`              // always "res"
	ID      string          `json:"id"`                // matches request ID
	OK      bool            `json:"ok"`                // true if success
	Payload json.RawMessage `json:"payload,omitempty"` // response data (when ok=true)
	Error   *ErrorShape     `json:"error,omitempty"`   // error info (when ok=false)
}

// ErrorShape describes a protocol error.
type ErrorShape struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Retryable    bool   `json:"retryable,omitempty"`
	RetryAfterMs int    `json:"retryAfterMs,omitempty"`
}

func (e *ErrorShape) Error() string {
	return e.Code + ": " + e.Message
}

// EventFrame is pushed from the relay without a preceding request.
type EventFrame struct {
	Type    string          `json:"type"`              // always "event"
	Event   string          `json:"event"`             // event name
	Payload json.RawMessage `json:"payload,omitempty"` // event data, decoded per event name
	Seq     int64           `json:"seq,omitempty"`     // relay-side sequence, informational only
}

// NewRequest builds a request frame, marshalling params.
func NewRequest(id, method string, params interface{}) (*RequestFrame, error) {
	req := &RequestFrame{
		Type:   FrameTypeRequest,
		ID:     id,
		Method: method,
	}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		req.Params = raw
	}
	return req, nil
}

// NewEvent creates an event frame. Used by tests and the mock relay.
func NewEvent(event string, payload interface{}) (*EventFrame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &EventFrame{
		Type:    FrameTypeEvent,
		Event:   event,
		Payload: raw,
	}, nil
}

// ParseFrameType extracts the frame type from raw JSON bytes.
func ParseFrameType(data []byte) (string, error) {
	var raw struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", err
	}
	return raw.Type, nil
}

// NewOKResponse creates a successful response frame.
func NewOKResponse(id string, payload interface{}) *ResponseFrame {
	resp := &ResponseFrame{
		Type: FrameTypeResponse,
		ID:   id,
		OK:   true,
	}
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			resp.Payload = raw
		}
	}
	return resp
}

// NewErrorResponse creates an error response frame.
func NewErrorResponse(id, code, message string) *ResponseFrame {
	return &ResponseFrame{
		Type:  FrameTypeResponse,
		ID:    id,
		OK:    false,
		Error: &ErrorShape{Code: code, Message: message},
	}
}
