package formkit

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/G-Node/formkit/assets"
	"github.com/G-Node/formkit/formkit/db"
	"github.com/G-Node/formkit/formkit/form"
	"github.com/G-Node/formkit/formkit/metrics"
	"github.com/G-Node/formkit/formkit/web"
	"github.com/G-Node/formkit/formkit/worker"
)

// Env is handed to a LayoutFunc for every new session.
type Env struct {
	// SessionID of the browser session the forms are built for.
	SessionID string
	Logger    *log.Logger
	Observer  form.Observer
}

// Options fills the host's logger and observer into opts, unless they are
// already set.
func (env *Env) Options(opts form.Options) form.Options {
	if opts.Logger == nil {
		opts.Logger = env.Logger
	}
	if opts.Observer == nil {
		opts.Observer = env.Observer
	}
	return opts
}

// LayoutFunc builds the forms of one browser session.
type LayoutFunc func(env *Env) (*form.Masonry, error)

// Service represents a full service which contains a web server, a database
// for jobs and sessions, a worker that runs the jobs, and the live forms of
// every browser session.
type Service struct {
	web      *web.Server
	live     *web.Live
	db       *db.Connection
	worker   *worker.Worker
	metrics  *metrics.Metrics
	log      *log.Logger
	layout   LayoutFunc
	sessions *sessionStore
	assets   fs.FS
	sweep    chan bool
	started  bool
	Config   *Config
}

// NewService creates a new Service with a layout for the forms of each
// session and a custom job action.
func NewService(layout LayoutFunc, action worker.JobAction, cfg Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	srv := new(Service)
	srv.Config = &cfg
	srv.log = log.New(log.Writer(), log.Prefix(), log.Flags())
	srv.layout = layout
	srv.sessions = newSessionStore()
	srv.sweep = make(chan bool)

	// DB
	srv.log.Printf("Initialising database %s", cfg.DBPath)
	conn, err := db.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	srv.db = conn

	srv.metrics = metrics.New()

	// Worker
	srv.worker = worker.New(srv.db, cfg.QueueLength)
	srv.worker.Action = action
	srv.worker.Monitor = srv.metrics

	srv.assets = assets.FS
	if cfg.AssetsDir != "" {
		srv.assets = os.DirFS(cfg.AssetsDir)
	}

	// Web server
	srv.web = web.New(cfg.Port)
	srv.live = web.NewLive(srv.liveSession, srv.handleLive)
	srv.setupWebRoutes()

	return srv, nil
}

// SetLogger sets the logger of the service and all its parts.
func (srv *Service) SetLogger(logger *log.Logger) {
	srv.log = logger
	srv.web.SetLogger(logger)
	srv.live.SetLogger(logger)
	srv.worker.SetLogger(logger)
}

// Start the service (worker, session sweeper and web server).  The layout is
// built once to catch errors before the first request.
func (srv *Service) Start() error {
	if srv.layout == nil {
		return fmt.Errorf("nil layout function is invalid")
	}
	if srv.worker.Action == nil {
		return fmt.Errorf("nil job function is invalid")
	}
	sample, err := srv.layout(&Env{Logger: srv.log})
	if err != nil {
		return fmt.Errorf("failed to build layout: %w", err)
	}
	if sample == nil || len(sample.Forms()) == 0 {
		return fmt.Errorf("nil or empty layout is invalid")
	}
	sample.Close()

	srv.log.Print("Starting worker")
	srv.worker.Start()

	go srv.sweepLoop()

	srv.log.Print("Starting web service")
	srv.web.Start()
	srv.started = true
	srv.log.Printf("Web server started on %s", srv.web.Addr)
	return nil
}

// WaitForInterrupt blocks until the service receives an interrupt signal (SIGINT).
func (srv *Service) WaitForInterrupt() {
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, os.Interrupt)
	<-sigchan
}

// Stop the service by gracefully shutting down the web service, stopping the
// worker, and closing the database connection, in that order.  Stop also
// releases a service that failed to start.
func (srv *Service) Stop() {
	srv.log.Print("Stopping web service")
	srv.live.Close()
	srv.web.Stop()

	if srv.started {
		srv.log.Print("Stopping worker queue")
		srv.worker.Stop()
		srv.sweep <- true
		srv.started = false
	}

	srv.sessions.closeAll()

	srv.log.Print("Closing database connection")
	if err := srv.db.Close(); err != nil {
		srv.log.Printf("Error closing database: %v", err)
	}
	srv.log.Print("Service stopped")
}

// SetJobAction can be used to set or override the custom job action for the service.
func (srv *Service) SetJobAction(f worker.JobAction) {
	srv.worker.Action = f
}

// sweepLoop closes idle sessions until the service stops.
func (srv *Service) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			srv.sweepSessions(now)
		case <-srv.sweep:
			return
		}
	}
}
