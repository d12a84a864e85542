package config

// PermissionConfig holds configuration for permission handling
type PermissionConfig struct {
	// AutoApprove maps tool names to automatic approval. "*" matches any
	// tool without an entry of its own.
	AutoApprove map[string]bool `mapstructure:"auto_approve"`
}

// DefaultPermissionConfig returns the default permission configuration
func DefaultPermissionConfig() PermissionConfig {
	return PermissionConfig{
		AutoApprove: map[string]bool{
			"*": true,
		},
	}
}
