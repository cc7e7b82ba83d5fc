// Package server exposes Intcode machines over a websocket. Every connection owns one
// machine and drives it with JSON requests, one reply per request.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/colorfulnotion/intcode/common"
	"github.com/colorfulnotion/intcode/intcode"
	"github.com/colorfulnotion/intcode/log"
	"github.com/colorfulnotion/intcode/storage"
	"github.com/colorfulnotion/intcode/vmerrors"
	"github.com/gorilla/websocket"
)

const (
	OpLoad     = "load"
	OpExecute  = "execute"
	OpResume   = "resume"
	OpRun      = "run"
	OpSnapshot = "snapshot"
	OpRestore  = "restore"
	OpState    = "state"
)

const (
	KindLoaded   = "loaded"
	KindInput    = "input"
	KindOutput   = "output"
	KindHalt     = "halt"
	KindSaved    = "saved"
	KindRestored = "restored"
	KindState    = "state"
	KindError    = "error"
)

const pongWait = 60 * time.Second

type Request struct {
	Op      string  `json:"op"`
	Program []int64 `json:"program,omitempty"`
	Hash    string  `json:"hash,omitempty"`
	Input   *int64  `json:"input,omitempty"`
	Inputs  []int64 `json:"inputs,omitempty"`
	Name    string  `json:"name,omitempty"`
}

type Response struct {
	Kind    string  `json:"kind"`
	Value   *int64  `json:"value,omitempty"`
	Outputs []int64 `json:"outputs,omitempty"`
	Error   string  `json:"error,omitempty"`
	Code    string  `json:"code,omitempty"`
	Hash    string  `json:"hash,omitempty"`
	PC      int64   `json:"pc"`
	Steps   uint64  `json:"steps"`
	State   string  `json:"state,omitempty"`
}

// Session machines run client programs, so they are always bounded. Zero config values
// fall back to these.
const (
	DefaultStepBudget  uint64 = 10_000_000
	DefaultMemoryLimit int64  = 1 << 20
)

type Config struct {
	Listen      string
	ReadLimit   int64
	StepBudget  uint64
	MemoryLimit int64
	// MachineOptions are applied after the budget and memory limit.
	MachineOptions []intcode.Option
}

type Server struct {
	cfg      Config
	snaps    *storage.SnapshotStore
	programs *storage.ProgramStore
	upgrader websocket.Upgrader
	sessions atomic.Int64
	nextID   atomic.Uint64
}

func New(cfg Config, snaps *storage.SnapshotStore, programs *storage.ProgramStore) *Server {
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = 1 << 20
	}
	if cfg.StepBudget == 0 {
		cfg.StepBudget = DefaultStepBudget
	}
	if cfg.MemoryLimit <= 0 {
		cfg.MemoryLimit = DefaultMemoryLimit
	}
	return &Server{
		cfg:      cfg,
		snaps:    snaps,
		programs: programs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Sessions reports how many websocket sessions are open.
func (s *Server) Sessions() int64 {
	return s.sessions.Load()
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWs)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok", "sessions": s.Sessions()})
	})
	return mux
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Listen, Handler: s.Handler()}
	errCh := make(chan error, 1)
	go func() {
		log.Info(log.ServerMonitoring, "listening", "addr", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error(log.ServerMonitoring, "serveWs Upgrade error", "err", err)
		return
	}
	defer conn.Close()

	s.sessions.Add(1)
	defer s.sessions.Add(-1)
	sess := &session{srv: s, id: fmt.Sprintf("ws-%d", s.nextID.Add(1))}
	log.Debug(log.ServerMonitoring, "session opened", "id", sess.id, "remote", r.RemoteAddr)

	conn.SetReadLimit(s.cfg.ReadLimit)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn(log.ServerMonitoring, "session read error", "id", sess.id, "err", err)
			}
			log.Debug(log.ServerMonitoring, "session closed", "id", sess.id)
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		var req Request
		var resp Response
		if err := json.Unmarshal(message, &req); err != nil {
			resp = errorResponse(fmt.Errorf("invalid request: %w", err))
		} else {
			resp = sess.handle(req)
		}
		if err := conn.WriteJSON(resp); err != nil {
			log.Warn(log.ServerMonitoring, "session write error", "id", sess.id, "err", err)
			return
		}
	}
}

func errorResponse(err error) Response {
	return Response{Kind: KindError, Error: err.Error(), Code: vmerrors.Code(err)}
}

type session struct {
	srv     *Server
	id      string
	m       *intcode.Machine
	program intcode.Program
}

func (ss *session) machineOptions() []intcode.Option {
	cfg := ss.srv.cfg
	opts := []intcode.Option{
		intcode.WithIdentifier(ss.id),
		intcode.WithLogging(log.ServerMonitoring),
		intcode.WithStepBudget(cfg.StepBudget),
		intcode.WithMemoryLimit(cfg.MemoryLimit),
	}
	return append(opts, cfg.MachineOptions...)
}

func (ss *session) status(kind string) Response {
	return Response{Kind: kind, PC: ss.m.PC(), Steps: ss.m.Steps(), State: ss.m.State().String()}
}

func (ss *session) result(r intcode.IOResult) Response {
	resp := ss.status("")
	switch r.Kind {
	case intcode.InputRequired:
		resp.Kind = KindInput
	case intcode.Output:
		resp.Kind = KindOutput
		v := r.Value
		resp.Value = &v
	case intcode.Halt:
		resp.Kind = KindHalt
		v := r.Value
		resp.Value = &v
	}
	return resp
}

func (ss *session) handle(req Request) Response {
	log.Trace(log.ServerMonitoring, "request", "id", ss.id, "op", req.Op)
	if req.Op != OpLoad && req.Op != OpRestore && ss.m == nil {
		return errorResponse(fmt.Errorf("%s: %w", req.Op, vmerrors.ErrNoMachineLoaded))
	}
	switch req.Op {
	case OpLoad:
		return ss.load(req)
	case OpExecute:
		return ss.resume(nil)
	case OpResume:
		return ss.resume(req.Input)
	case OpRun:
		return ss.run(req.Inputs)
	case OpSnapshot:
		return ss.snapshot(req.Name)
	case OpRestore:
		return ss.restore(req.Name)
	case OpState:
		return ss.status(KindState)
	default:
		return errorResponse(fmt.Errorf("unknown op %q: %w", req.Op, vmerrors.ErrUnexpectedResult))
	}
}

func (ss *session) load(req Request) Response {
	prog := intcode.Program(req.Program)
	switch {
	case len(prog) > 0:
		if ss.srv.programs != nil {
			if _, err := ss.srv.programs.Put(prog); err != nil {
				return errorResponse(err)
			}
		}
	case req.Hash != "" && ss.srv.programs != nil:
		stored, ok, err := ss.srv.programs.Get(common.HexToHash(req.Hash))
		if err != nil {
			return errorResponse(err)
		}
		if !ok {
			return errorResponse(fmt.Errorf("load: no program %s: %w", req.Hash, vmerrors.ErrInvalidProgramImage))
		}
		prog = stored
	default:
		return errorResponse(fmt.Errorf("load: empty program: %w", vmerrors.ErrInvalidProgramImage))
	}
	ss.program = prog.Clone()
	ss.m = intcode.New(ss.program, ss.machineOptions()...)
	resp := ss.status(KindLoaded)
	resp.Hash = ss.m.ProgramHash().Hex()
	return resp
}

func (ss *session) resume(input *int64) Response {
	r, err := ss.m.Resume(input)
	if err != nil {
		return errorResponse(err)
	}
	return ss.result(r)
}

// run feeds inputs whenever the machine asks and collects outputs until it halts or
// asks for more input than was sent.
func (ss *session) run(inputs []int64) Response {
	var outputs []int64
	var pending *int64
	for {
		r, err := ss.m.Resume(pending)
		pending = nil
		if err != nil {
			resp := errorResponse(err)
			resp.Outputs = outputs
			return resp
		}
		switch r.Kind {
		case intcode.Output:
			outputs = append(outputs, r.Value)
			continue
		case intcode.InputRequired:
			if len(inputs) > 0 {
				v := inputs[0]
				inputs = inputs[1:]
				pending = &v
				continue
			}
		}
		resp := ss.result(r)
		resp.Outputs = outputs
		return resp
	}
}

func (ss *session) snapshot(name string) Response {
	if ss.srv.snaps == nil {
		return errorResponse(fmt.Errorf("snapshot: no store configured"))
	}
	var err error
	if len(ss.program) > 0 {
		err = ss.srv.snaps.SaveWithProgram(name, ss.m.Snapshot(), ss.program)
	} else {
		err = ss.srv.snaps.Save(name, ss.m.Snapshot())
	}
	if err != nil {
		return errorResponse(err)
	}
	return ss.status(KindSaved)
}

func (ss *session) restore(name string) Response {
	if ss.srv.snaps == nil {
		return errorResponse(fmt.Errorf("restore: no store configured"))
	}
	snap, err := ss.srv.snaps.Load(name)
	if err != nil {
		return errorResponse(err)
	}
	m, err := intcode.Restore(snap, ss.machineOptions()...)
	if err != nil {
		return errorResponse(err)
	}
	ss.program = nil
	if ss.srv.programs != nil {
		if prog, ok, err := ss.srv.programs.Get(snap.ProgramHash); err == nil && ok {
			ss.program = prog
		}
	}
	ss.m = m
	resp := ss.status(KindRestored)
	resp.Hash = snap.ProgramHash.Hex()
	return resp
}
