package permission

import (
	"context"
	"encoding/json"
)

// Request represents a request for permission to run a tool
type Request struct {
	// ToolName is the name of the tool requesting permission
	ToolName string

	// Arguments contains the raw JSON arguments chosen by the model
	Arguments json.RawMessage

	// Title is a short description of the permission being requested
	Title string

	// Context provides detailed information about the permission request
	Context string
}

// Response represents the response to a permission request
type Response struct {
	// Granted indicates whether permission was granted
	Granted bool

	// AlternateAction contains alternative instructions if permission was denied
	AlternateAction string
}

// Handler asks someone, usually the user, for permission
type Handler interface {
	// RequestPermission blocks until the request is answered or ctx ends
	RequestPermission(ctx context.Context, request Request) Response
}
