package toolhost

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/recrsn/mcpchat/internal/catalog"
	"github.com/recrsn/mcpchat/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stdioHostEnv makes the test binary act as a stdio tool host
const stdioHostEnv = "MCPCHAT_TOOLHOST_STDIO_SERVER"

func TestMain(m *testing.M) {
	if os.Getenv(stdioHostEnv) == "1" {
		server := mcpsdk.NewServer(&mcpsdk.Implementation{Name: "students", Version: "stdio"}, nil)
		registerTestTools(server)
		if err := server.Run(context.Background(), &mcpsdk.StdioTransport{}); err != nil {
			os.Exit(1)
		}
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func TestClient_StdioHostOutlivesFetchContext(t *testing.T) {
	exe, err := os.Executable()
	require.NoError(t, err)
	if strings.ContainsAny(exe, " \t") {
		t.Skip("test binary path contains whitespace")
	}
	t.Setenv(stdioHostEnv, "1")

	client := NewClient(config.ToolHostConfig{Command: exe}, nil)
	t.Cleanup(func() { _ = client.Close() })

	fetchCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	cat, err := catalog.Fetch(fetchCtx, client)
	cancel()
	require.NoError(t, err)
	assert.Equal(t, 3, cat.Len())
	assert.Equal(t, "students stdio", client.ServerName())

	ctx, cancelCall := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelCall()
	out, err := client.InvokeTool(ctx, "GetStudent", json.RawMessage(`{"name":"Ann Lee"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"firstName":"Ann Lee"}`, out)
}
