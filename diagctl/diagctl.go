/*Package diagctl implements the opt-in, loopback-only diagnostics HTTP
surface: a read-only JSON snapshot of the shared Store and the Command
Egress previous-command cache, routed with go-chi/chi the way the wider
device-control codebase's HTTP servers are, but without any of that
codebase's actuation routes — diagctl never accepts a write.
*/
package diagctl

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/vcu-labs/vcu/store"
)

// CacheReader exposes the egress package's previous-command cache for
// the /egress route without diagctl importing package egress, avoiding a
// dependency cycle (egress may in turn want to report via diagctl in a
// future revision).
type CacheReader interface {
	PreviousCommand() interface{}
}

// Server is a loopback-only diagnostics HTTP server.
type Server struct {
	addr   string
	store  *store.Store
	cache  CacheReader
	log    *log.Logger
	router chi.Router
}

// New builds a Server listening at addr (expected to be a 127.0.0.1
// address; New does not itself enforce this — the caller decides
// whether to bind at all per configuration's Diag.Enabled flag).
func New(addr string, s *store.Store, cache CacheReader, logger *log.Logger) *Server {
	srv := &Server{addr: addr, store: s, cache: cache, log: logger}
	srv.router = srv.buildRoutes()
	return srv
}

func (s *Server) buildRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/snapshot", s.handleSnapshot)
	r.Get("/egress", s.handleEgress)
	r.Get("/route-graph", s.handleRouteGraph)
	return r
}

type snapshotPayload struct {
	Joystick interface{} `json:"joystick"`
	Sensor   interface{} `json:"sensor"`
	Mode     string      `json:"mode"`
	Engine   bool        `json:"engine_on"`
	Command  interface{} `json:"last_command"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.store.SnapshotInputs()
	payload := snapshotPayload{
		Joystick: snap.Joystick,
		Sensor:   snap.Sensor,
		Mode:     snap.Mode.String(),
		Engine:   snap.Engine.On,
		Command:  s.store.Command(),
	}
	s.writeJSON(w, payload)
}

func (s *Server) handleEgress(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		http.Error(w, "egress cache not wired", http.StatusNotImplemented)
		return
	}
	s.writeJSON(w, s.cache.PreviousCommand())
}

func (s *Server) handleRouteGraph(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, []string{"/snapshot", "/egress", "/route-graph"})
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("diagctl: error encoding response: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ServeHTTP implements http.Handler, delegating to the underlying chi
// router; this is what ListenAndServe binds and what tests exercise
// directly via httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe binds and serves forever, the way cmd/multiserver's run()
// does. It is expected to be run in its own goroutine; the diagnostics
// surface is best-effort and a bind failure is logged, not fatal to the
// rest of the process.
func (s *Server) ListenAndServe() error {
	return http.ListenAndServe(s.addr, s.router)
}
