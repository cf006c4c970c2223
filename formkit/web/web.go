package web

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/G-Node/formkit/templates"
	"github.com/gorilla/mux"
)

// ErrorResponse logs message and renders it in an error page, returning the
// given status code to the user.
func (ws *Server) ErrorResponse(w http.ResponseWriter, status int, message string) {
	ws.log.Printf("%d %s: %s", status, http.StatusText(status), message)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	tmpl, err := template.New("layout").Parse(templates.Layout)
	if err == nil {
		tmpl, err = tmpl.Parse(templates.Fail)
	}
	if err != nil {
		ws.log.Printf("Error parsing fail page: %v", err)
		w.Write([]byte(template.HTMLEscapeString(message)))
		return
	}
	errinfo := map[string]interface{}{
		"title":      http.StatusText(status),
		"StatusCode": status,
		"StatusText": http.StatusText(status),
		"Message":    message,
	}
	if err := tmpl.ExecuteTemplate(w, "layout", errinfo); err != nil {
		ws.log.Printf("Error rendering fail page: %v", err)
	}
}

// Server implements the web server for the form service.
type Server struct {
	*http.Server
	Router *mux.Router
	// ShutdownTimeout bounds how long Stop waits for open requests.
	ShutdownTimeout time.Duration
	log             *log.Logger
}

// New returns a web Server with an initialised mux.Router and http.Server
// listening on the given port.
func New(port uint16) *Server {
	srv := new(Server)
	srv.Router = new(mux.Router)
	httpsrv := new(http.Server)
	httpsrv.Handler = srv.Router

	httpsrv.Addr = fmt.Sprintf(":%d", port)
	httpsrv.WriteTimeout = time.Second * 15
	httpsrv.ReadTimeout = time.Second * 15
	httpsrv.IdleTimeout = time.Second * 60
	srv.Server = httpsrv
	srv.ShutdownTimeout = 30 * time.Second
	srv.log = log.New(log.Writer(), log.Prefix(), log.Flags())
	return srv
}

// SetLogger replaces the server's logger.
func (ws *Server) SetLogger(logger *log.Logger) {
	ws.log = logger
}

// Start runs ListenAndServe in a goroutine and returns.  Listen errors are
// logged.
func (ws *Server) Start() {
	go func() {
		if err := ws.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			ws.log.Printf("Web server stopped: %v", err)
		}
	}()
}

// Stop shuts the server down, letting open requests finish within
// ShutdownTimeout.
func (ws *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), ws.ShutdownTimeout)
	defer cancel()
	if err := ws.Shutdown(ctx); err != nil {
		ws.log.Printf("Error shutting down web server: %v", err)
	}
}
