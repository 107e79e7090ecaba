// Package models defines the request and response shapes of the HTTP API.
package models

import "fmt"

// DefaultSessionID is used when the caller supplies no session identifier.
const DefaultSessionID = "default_user"

// ChatRequest is the direct-match request body. An empty message is allowed;
// it is embedded like any other text.
type ChatRequest struct {
	Message string `json:"message"`
}

// AskRequest is the conversational request body.
type AskRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// Validate requires a message and fills in the default session ID.
func (r *AskRequest) Validate() error {
	if r.Message == "" {
		return fmt.Errorf("No message received")
	}
	if r.SessionID == "" {
		r.SessionID = DefaultSessionID
	}
	return nil
}

// ChatResponse is returned by both endpoints. ResponseTime is seconds,
// rounded to two decimals.
type ChatResponse struct {
	Response     string  `json:"response"`
	Context      string  `json:"context"`
	ResponseTime float64 `json:"response_time"`
}

// ErrorResponse carries a non-success error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
