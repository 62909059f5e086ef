package api

import (
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"energy_simulator/internal/action"
	"energy_simulator/internal/simulator"
	"energy_simulator/internal/store"
	"energy_simulator/internal/util"
)

// Options configure the optional parts of the HTTP server.
type Options struct {
	Latitude  float64
	Longitude float64
	Location  *time.Location

	// DiscoveryCount is the number of descriptors a discovery returns.
	DiscoveryCount int

	WebSocket   http.Handler
	Metrics     http.Handler
	FrontendDir string
}

// Server exposes devices, actions and simulation control over HTTP.
type Server struct {
	log      *util.Logger
	store    *store.Store
	engine   *simulator.Engine
	executor *action.Executor
	opts     Options
	router   *mux.Router
}

func New(s *store.Store, engine *simulator.Engine, executor *action.Executor, opts Options) *Server {
	if opts.Location == nil {
		opts.Location = time.Local
	}

	srv := &Server{
		log:      util.NewLogger("api"),
		store:    s,
		engine:   engine,
		executor: executor,
		opts:     opts,
		router:   mux.NewRouter(),
	}
	srv.routes()
	return srv
}

// Router returns the underlying router.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Handler wraps the router with compression, CORS and request logging.
func (s *Server) Handler() http.Handler {
	h := handlers.CompressHandler(s.router)
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(h)
	return handlers.LoggingHandler(s.log.DEBUG.Writer(), h)
}

func (s *Server) routes() {
	r := s.router

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", s.state).Methods(http.MethodGet)
	api.HandleFunc("/sim/{command:start|pause|step}", s.simCommand).Methods(http.MethodPost)
	api.HandleFunc("/devices", s.devices).Methods(http.MethodGet)
	api.HandleFunc("/devices", s.addDevice).Methods(http.MethodPost)
	api.HandleFunc("/devices/{id}", s.device).Methods(http.MethodGet)
	api.HandleFunc("/devices/{id}", s.removeDevice).Methods(http.MethodDelete)
	api.HandleFunc("/devices/{id}/actions", s.deviceAction).Methods(http.MethodPost)
	api.HandleFunc("/discovery/{class}", s.discovery).Methods(http.MethodGet)
	api.HandleFunc("/sun", s.sun).Methods(http.MethodGet)

	if s.opts.Metrics != nil {
		r.Handle("/metrics", s.opts.Metrics).Methods(http.MethodGet)
	}
	if s.opts.WebSocket != nil {
		r.Handle("/ws", s.opts.WebSocket)
	}

	if dir := s.opts.FrontendDir; dir != "" {
		if _, err := os.Stat(dir); err == nil {
			s.log.INFO.Printf("serving frontend from %s", dir)
			r.PathPrefix("/").Handler(http.FileServer(http.Dir(dir)))
		}
	}
}
