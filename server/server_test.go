package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/colorfulnotion/intcode/intcode"
	"github.com/colorfulnotion/intcode/storage"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...intcode.Option) (*Server, *httptest.Server) {
	return newTestServerWithConfig(t, Config{MachineOptions: opts})
}

func newTestServerWithConfig(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	ps, err := storage.NewMemoryPersistenceStore()
	require.NoError(t, err)
	t.Cleanup(func() { ps.Close() })
	s := New(cfg, storage.NewSnapshotStore(ps), storage.NewProgramStore(ps))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func call(t *testing.T, conn *websocket.Conn, req Request) Response {
	t.Helper()
	require.NoError(t, conn.WriteJSON(req))
	var resp Response
	require.NoError(t, conn.ReadJSON(&resp))
	return resp
}

func ptr(v int64) *int64 { return &v }

func TestSessionRoundTrip(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts)

	resp := call(t, conn, Request{Op: OpExecute})
	assert.Equal(t, KindError, resp.Kind)
	assert.Equal(t, "D3", resp.Code)

	resp = call(t, conn, Request{Op: OpLoad, Program: []int64{3, 0, 4, 0, 99}})
	require.Equal(t, KindLoaded, resp.Kind)
	assert.Equal(t, intcode.Program{3, 0, 4, 0, 99}.Hash().Hex(), resp.Hash)

	resp = call(t, conn, Request{Op: OpExecute})
	assert.Equal(t, KindInput, resp.Kind)

	resp = call(t, conn, Request{Op: OpResume, Input: ptr(42)})
	require.Equal(t, KindOutput, resp.Kind)
	assert.Equal(t, int64(42), *resp.Value)
	assert.Equal(t, int64(4), resp.PC)

	resp = call(t, conn, Request{Op: OpExecute})
	require.Equal(t, KindHalt, resp.Kind)
	assert.Equal(t, int64(42), *resp.Value)

	resp = call(t, conn, Request{Op: OpExecute})
	assert.Equal(t, KindError, resp.Kind)
	assert.Equal(t, "I6", resp.Code)
}

func TestRunOp(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts)
	call(t, conn, Request{Op: OpLoad, Program: []int64{3, 0, 4, 0, 3, 0, 4, 0, 99}})

	resp := call(t, conn, Request{Op: OpRun, Inputs: []int64{7}})
	assert.Equal(t, KindInput, resp.Kind)
	assert.Equal(t, []int64{7}, resp.Outputs)

	resp = call(t, conn, Request{Op: OpRun, Inputs: []int64{8}})
	assert.Equal(t, KindHalt, resp.Kind)
	assert.Equal(t, []int64{8}, resp.Outputs)
}

func TestSnapshotAcrossSessions(t *testing.T) {
	_, ts := newTestServer(t)
	first := dial(t, ts)
	call(t, first, Request{Op: OpLoad, Program: []int64{3, 0, 4, 0, 99}})
	call(t, first, Request{Op: OpExecute})
	resp := call(t, first, Request{Op: OpSnapshot, Name: "echo"})
	require.Equal(t, KindSaved, resp.Kind)

	second := dial(t, ts)
	resp = call(t, second, Request{Op: OpRestore, Name: "echo"})
	require.Equal(t, KindRestored, resp.Kind)
	assert.Equal(t, "suspended_input", resp.State)

	resp = call(t, second, Request{Op: OpResume, Input: ptr(5)})
	require.Equal(t, KindOutput, resp.Kind)
	assert.Equal(t, int64(5), *resp.Value)

	resp = call(t, second, Request{Op: OpRestore, Name: "missing"})
	assert.Equal(t, "D4", resp.Code)

	// the program was stored alongside the snapshot and can be loaded by hash
	resp = call(t, second, Request{Op: OpLoad, Hash: intcode.Program{3, 0, 4, 0, 99}.Hash().Hex()})
	assert.Equal(t, KindLoaded, resp.Kind)
}

func TestBadRequests(t *testing.T) {
	_, ts := newTestServer(t, intcode.WithStepBudget(5))
	conn := dial(t, ts)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	var resp Response
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, KindError, resp.Kind)

	resp = call(t, conn, Request{Op: OpLoad})
	assert.Equal(t, "I8", resp.Code)

	call(t, conn, Request{Op: OpLoad, Program: []int64{1105, 1, 0}})
	resp = call(t, conn, Request{Op: "jump"})
	assert.Equal(t, KindError, resp.Kind)

	resp = call(t, conn, Request{Op: OpExecute})
	assert.Equal(t, "I5", resp.Code)
	resp = call(t, conn, Request{Op: OpState})
	assert.Equal(t, "faulted", resp.State)
	assert.Equal(t, uint64(5), resp.Steps)
}

func TestSessionsAreBounded(t *testing.T) {
	_, ts := newTestServerWithConfig(t, Config{StepBudget: 1000})
	conn := dial(t, ts)

	call(t, conn, Request{Op: OpLoad, Program: []int64{1105, 1, 0}})
	resp := call(t, conn, Request{Op: OpRun})
	assert.Equal(t, KindError, resp.Kind)
	assert.Equal(t, "I5", resp.Code)
	resp = call(t, conn, Request{Op: OpState})
	assert.Equal(t, uint64(1000), resp.Steps)

	call(t, conn, Request{Op: OpLoad, Program: []int64{4, 10000000000, 99}})
	resp = call(t, conn, Request{Op: OpRun})
	assert.Equal(t, KindError, resp.Kind)
	assert.Equal(t, "I9", resp.Code)
}

func TestDefaultSessionLimits(t *testing.T) {
	s := New(Config{}, nil, nil)
	assert.Equal(t, DefaultStepBudget, s.cfg.StepBudget)
	assert.Equal(t, DefaultMemoryLimit, s.cfg.MemoryLimit)

	ss := &session{srv: s, id: "t"}
	m := intcode.New([]int64{99}, ss.machineOptions()...)
	assert.Equal(t, DefaultStepBudget, m.Budget().Limit())
	assert.Equal(t, DefaultMemoryLimit, m.Memory().Limit())
}

func TestHealthz(t *testing.T) {
	s, ts := newTestServer(t)
	conn := dial(t, ts)
	call(t, conn, Request{Op: OpLoad, Program: []int64{99}})
	assert.Equal(t, int64(1), s.Sessions())

	res, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(1), body["sessions"])
}
