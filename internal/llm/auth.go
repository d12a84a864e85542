package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const (
	cognitiveServicesResource = "https://cognitiveservices.azure.com"
	tokenRefreshMargin        = 5 * time.Minute
)

// Authenticator decorates outgoing requests with credentials
type Authenticator interface {
	Authenticate(ctx context.Context, req *http.Request) error
	Method() string
}

// BearerKey authenticates with an Authorization: Bearer header
type BearerKey string

func (k BearerKey) Authenticate(_ context.Context, req *http.Request) error {
	if k != "" {
		req.Header.Set("Authorization", "Bearer "+string(k))
	}
	return nil
}

func (k BearerKey) Method() string { return "API Key" }

// AzureKey authenticates with the api-key header used by Azure OpenAI
type AzureKey string

func (k AzureKey) Authenticate(_ context.Context, req *http.Request) error {
	req.Header.Set("api-key", string(k))
	return nil
}

func (k AzureKey) Method() string { return "API Key" }

// commandRunner runs an external command and returns its stdout
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", err, msg)
	}
	return out, nil
}

// AzureCredential obtains Microsoft Entra tokens for Azure OpenAI. A token in
// AZURE_OPENAI_AD_TOKEN wins; otherwise the Azure CLI is asked for one. CLI
// tokens are cached until shortly before they expire.
type AzureCredential struct {
	run commandRunner
	now func() time.Time
	env func(string) string

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewAzureCredential creates a credential backed by the environment and the
// az command line tool
func NewAzureCredential() *AzureCredential {
	return &AzureCredential{run: runCommand, now: time.Now, env: os.Getenv}
}

func (c *AzureCredential) Method() string { return "DefaultAzureCredential" }

func (c *AzureCredential) Authenticate(ctx context.Context, req *http.Request) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// Token returns a valid access token for Azure Cognitive Services
func (c *AzureCredential) Token(ctx context.Context) (string, error) {
	if token := strings.TrimSpace(c.env("AZURE_OPENAI_AD_TOKEN")); token != "" {
		return token, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Add(tokenRefreshMargin).Before(c.expires) {
		return c.token, nil
	}

	out, err := c.run(ctx, "az", "account", "get-access-token",
		"--resource", cognitiveServicesResource, "--output", "json")
	if err != nil {
		return "", fmt.Errorf("acquiring Azure token: %w", err)
	}

	var resp struct {
		AccessToken string `json:"accessToken"`
		ExpiresOn   string `json:"expiresOn"`
		ExpiresAt   int64  `json:"expires_on"`
	}
	if err := json.Unmarshal(out, &resp); err != nil {
		return "", fmt.Errorf("parsing Azure token: %w", err)
	}
	if resp.AccessToken == "" {
		return "", errors.New("parsing Azure token: empty access token")
	}

	c.token = resp.AccessToken
	c.expires = c.now().Add(time.Hour)
	if resp.ExpiresAt > 0 {
		c.expires = time.Unix(resp.ExpiresAt, 0)
	} else if t, err := time.ParseInLocation("2006-01-02 15:04:05.999999", resp.ExpiresOn, time.Local); err == nil {
		c.expires = t
	}
	return c.token, nil
}
