package rpcjson

import (
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/atvirokodosprendimai/tokip/internal/adapters/db/memory"
	"github.com/atvirokodosprendimai/tokip/internal/application"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcResult struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func startTestServer(t *testing.T) (*json.Encoder, *json.Decoder) {
	t.Helper()
	// Unix socket paths have a short length limit; TempDir under /tmp keeps it small.
	dir, err := os.MkdirTemp("", "tokip")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	svc := application.NewGoalService(memory.NewStore())
	srv, err := Start(filepath.Join(dir, "rpc.sock"), svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := net.Dial("unix", srv.Path())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return json.NewEncoder(conn), json.NewDecoder(conn)
}

func call(t *testing.T, enc *json.Encoder, dec *json.Decoder, method string, params any) rpcResult {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	require.NoError(t, enc.Encode(request{JSONRPC: "2.0", Method: method, Params: raw, ID: 1}))
	var out rpcResult
	require.NoError(t, dec.Decode(&out))
	return out
}

func TestRecordLifecycleOverSocket(t *testing.T) {
	enc, dec := startTestServer(t)

	created := call(t, enc, dec, "records.create", map[string]any{"kind": "theme", "title": "Physique"})
	require.Nil(t, created.Error)

	var theme struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(created.Result, &theme))
	assert.Equal(t, uint(1), theme.ID)
	assert.Equal(t, "NotStarted", theme.Status)

	orphan := call(t, enc, dec, "records.create", map[string]any{"kind": "objective", "title": "x", "parent_id": 9})
	require.NotNil(t, orphan.Error)
	assert.Equal(t, 42200, orphan.Error.Code)

	missing := call(t, enc, dec, "records.get", map[string]any{"kind": "theme", "id": 9})
	require.NotNil(t, missing.Error)
	assert.Equal(t, 40400, missing.Error.Code)
	assert.Contains(t, missing.Error.Message, "Theme Not Found")

	deleted := call(t, enc, dec, "records.delete", map[string]any{"kind": "themes", "id": 1})
	require.Nil(t, deleted.Error)
	again := call(t, enc, dec, "records.delete", map[string]any{"kind": "theme", "id": 1})
	require.Nil(t, again.Error)
}

func TestSeedAndTree(t *testing.T) {
	enc, dec := startTestServer(t)

	seeded := call(t, enc, dec, "records.seed", nil)
	require.Nil(t, seeded.Error)

	tree := call(t, enc, dec, "records.tree", nil)
	require.Nil(t, tree.Error)
	var forest []application.TreeNode
	require.NoError(t, json.Unmarshal(tree.Result, &forest))
	require.Len(t, forest, 1)
	assert.Equal(t, "Physique", forest[0].Record.Title)
}

func TestUnknownMethod(t *testing.T) {
	enc, dec := startTestServer(t)
	out := call(t, enc, dec, "records.explode", nil)
	require.NotNil(t, out.Error)
	assert.Equal(t, -32601, out.Error.Code)
}
