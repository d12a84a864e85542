package permission

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/recrsn/mcpchat/internal/config"
	"github.com/stretchr/testify/assert"
)

// mockHandler implements Handler for testing
type mockHandler struct {
	response Response
	asked    int
}

func (m *mockHandler) RequestPermission(_ context.Context, _ Request) Response {
	m.asked++
	return m.response
}

func TestManager_RequestPermission(t *testing.T) {
	getStudent := Request{
		ToolName:  "GetStudent",
		Arguments: json.RawMessage(`{"name":"Ann Lee"}`),
		Title:     "GetStudent",
	}

	tests := []struct {
		name      string
		config    config.PermissionConfig
		handler   *mockHandler
		request   Request
		granted   bool
		wantAsked int
	}{
		{
			name:    "Auto-approved tool",
			config:  config.PermissionConfig{AutoApprove: map[string]bool{"GetStudent": true}},
			request: getStudent,
			granted: true,
		},
		{
			name:    "Config keys are case-insensitive",
			config:  config.PermissionConfig{AutoApprove: map[string]bool{"getstudent": true}},
			request: getStudent,
			granted: true,
		},
		{
			name:    "Wildcard approves everything",
			config:  config.DefaultPermissionConfig(),
			request: getStudent,
			granted: true,
		},
		{
			name:      "Explicit entry beats wildcard",
			config:    config.PermissionConfig{AutoApprove: map[string]bool{"*": true, "getstudent": false}},
			handler:   &mockHandler{response: Response{Granted: false, AlternateAction: "Ask me first"}},
			request:   getStudent,
			granted:   false,
			wantAsked: 1,
		},
		{
			name:      "Non-auto-approved tool with approval",
			config:    config.PermissionConfig{AutoApprove: map[string]bool{"GetStudents": true}},
			handler:   &mockHandler{response: Response{Granted: true}},
			request:   getStudent,
			granted:   true,
			wantAsked: 1,
		},
		{
			name:    "Default policy with no handler",
			config:  config.PermissionConfig{},
			request: getStudent,
			granted: false, // Default policy is to deny
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var handler Handler
			if tc.handler != nil {
				handler = tc.handler
			}
			manager := NewManager(tc.config, handler)
			result := manager.RequestPermission(context.Background(), tc.request)

			assert.Equal(t, tc.granted, result.Granted)
			if tc.handler != nil {
				assert.Equal(t, tc.wantAsked, tc.handler.asked)
			}
		})
	}
}

func TestManager_CancelledContextDenies(t *testing.T) {
	handler := &mockHandler{response: Response{Granted: true}}
	manager := NewManager(config.PermissionConfig{}, handler)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := manager.RequestPermission(ctx, Request{ToolName: "GetStudent"})
	assert.False(t, result.Granted)
	assert.Zero(t, handler.asked)
}
