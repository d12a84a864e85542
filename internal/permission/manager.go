// Package permission decides whether a tool call may run, either from
// configured auto-approvals or by asking a Handler.
package permission

import (
	"context"
	"strings"

	"github.com/recrsn/mcpchat/internal/config"
)

// Wildcard matches every tool without an entry of its own
const Wildcard = "*"

// Manager handles permission requests based on configuration
type Manager struct {
	autoApprove   map[string]bool
	handler       Handler
	defaultPolicy bool // Default policy if no specific rule exists
}

// NewManager creates a new permission manager
func NewManager(cfg config.PermissionConfig, handler Handler) *Manager {
	// config keys arrive lower-cased from the config file
	autoApprove := make(map[string]bool, len(cfg.AutoApprove))
	for name, ok := range cfg.AutoApprove {
		autoApprove[strings.ToLower(name)] = ok
	}
	return &Manager{
		autoApprove:   autoApprove,
		handler:       handler,
		defaultPolicy: false, // Default to requiring permission
	}
}

// RequestPermission handles a permission request
func (m *Manager) RequestPermission(ctx context.Context, request Request) Response {
	if m.autoApproved(request.ToolName) {
		return Response{Granted: true}
	}

	if err := ctx.Err(); err != nil {
		return Response{Granted: false, AlternateAction: err.Error()}
	}

	// If not auto-approved and we have a UI handler, ask the user
	if m.handler != nil {
		return m.handler.RequestPermission(ctx, request)
	}

	// If no UI handler, use the default policy
	return Response{
		Granted:         m.defaultPolicy,
		AlternateAction: "Permission denied by default policy",
	}
}

// autoApproved applies the tool's own entry first, then the wildcard
func (m *Manager) autoApproved(tool string) bool {
	if ok, found := m.autoApprove[strings.ToLower(tool)]; found {
		return ok
	}
	return m.autoApprove[Wildcard]
}
