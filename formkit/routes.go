// Common routes and pages
package formkit

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/G-Node/formkit/assets"
	"github.com/G-Node/formkit/formkit/db"
	"github.com/G-Node/formkit/formkit/form"
	"github.com/G-Node/formkit/formkit/pathcomplete"
	"github.com/G-Node/formkit/formkit/web"
	"github.com/G-Node/formkit/formkit/worker"
	"github.com/G-Node/formkit/templates"
	"github.com/gorilla/mux"
)

const (
	timefmt         = "15:04:05 Mon Jan 2 2006"
	completionLimit = 50
)

// stateMessage carries the facet state of one form to the browser.
type stateMessage struct {
	Form   string            `json:"form"`
	Fields []form.FieldState `json:"fields"`
	Error  string            `json:"error,omitempty"`
}

// setupWebRoutes sets up the common routes shared by all instances of the service.
//
// Form, field interaction, job log, metrics and asset routes
func (srv *Service) setupWebRoutes() {
	router := srv.web.Router
	router.StrictSlash(true)

	router.HandleFunc("/", srv.renderForm).Methods("GET")
	router.HandleFunc("/", srv.processForm).Methods("POST")
	router.HandleFunc("/field/{form}/{name}", srv.changeField).Methods("POST")
	router.HandleFunc("/click/{form}/{name}", srv.clickField).Methods("POST")
	router.HandleFunc("/complete/{form}/{name}", srv.completePath).Methods("GET")
	router.Handle("/live", srv.live).Methods("GET")
	router.HandleFunc("/log", srv.renderLog).Methods("GET")
	router.HandleFunc("/log/{id:[0-9]+}", srv.showJob).Methods("GET")
	if srv.Config.Metrics {
		router.Handle("/metrics", srv.metrics.Handler()).Methods("GET")
	}

	router.PathPrefix("/assets/").Handler(http.StripPrefix("/assets/", http.FileServer(http.FS(srv.assets))))
}

// page parses the layout together with the given content templates.
func page(content ...string) (*template.Template, error) {
	tmpl, err := template.New("layout").Parse(templates.Layout)
	if err != nil {
		return nil, err
	}
	for _, c := range content {
		if tmpl, err = tmpl.Parse(c); err != nil {
			return nil, err
		}
	}
	return tmpl, nil
}

func (srv *Service) renderForm(w http.ResponseWriter, r *http.Request) {
	sess, err := srv.session(w, r)
	if err != nil {
		srv.log.Printf("Failed to open session: %v", err)
		srv.web.ErrorResponse(w, http.StatusInternalServerError, "Failed to set up the forms")
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	srv.renderPage(w, http.StatusOK, sess, "")
}

// renderPage writes the forms of sess.  Callers hold sess.mu.
func (srv *Service) renderPage(w http.ResponseWriter, status int, sess *session, rejected string) {
	tmpl, err := page(templates.Widgets, templates.Page)
	if err != nil {
		srv.log.Printf("Failed to parse form page: %v", err)
		srv.web.ErrorResponse(w, http.StatusInternalServerError, "Error showing forms")
		return
	}

	view := sess.masonry.View()
	view.Stylesheets = assets.Load(srv.log, srv.assets, assets.DefaultStylesheets...)

	data := make(map[string]interface{})
	data["title"] = srv.Config.Title
	data["view"] = view
	data["launch"] = srv.Config.LaunchLabel
	if rejected != "" {
		data["rejected"] = rejected
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		srv.log.Printf("Failed to render form: %v", err)
	}
}

// processForm applies the posted values, validates every form and launches a
// job.  A rejected launch shows the forms again with the blocking fields
// flagged.
func (srv *Service) processForm(w http.ResponseWriter, r *http.Request) {
	sess, err := srv.session(w, r)
	if err != nil {
		srv.log.Printf("Failed to open session: %v", err)
		srv.web.ErrorResponse(w, http.StatusInternalServerError, "Failed to set up the forms")
		return
	}
	if err := r.ParseForm(); err != nil {
		srv.log.Printf("Failed to parse form: %v", err)
	}

	job, ok := srv.prepareJob(w, sess, r.PostForm)
	if !ok {
		return
	}
	// Enqueue blocks on a full queue and runs without sess.mu
	if err := srv.worker.Enqueue(job); err != nil {
		srv.web.ErrorResponse(w, http.StatusInternalServerError, "Failed to launch job")
		return
	}

	// redirect to job log
	http.Redirect(w, r, "/log", http.StatusSeeOther)
}

// prepareJob applies the posted values and validates the forms of sess.  A
// rejection is answered here and reported as false.
func (srv *Service) prepareJob(w http.ResponseWriter, sess *session, posted url.Values) (*worker.Job, bool) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	srv.applyPosted(sess.masonry, posted)

	values, err := sess.masonry.CheckAndReturnValues()
	if err != nil {
		var rejected *form.RejectedError
		if !errors.As(err, &rejected) {
			srv.web.ErrorResponse(w, http.StatusInternalServerError, err.Error())
			return nil, false
		}
		srv.pushState(sess)
		srv.renderPage(w, http.StatusUnprocessableEntity, sess, "Cannot launch: "+rejected.Error())
		return nil, false
	}
	return worker.NewJob(sess.id, "", values, sess.masonry.Secrets()), true
}

// applyPosted assigns posted values to the enabled, visible fields whose
// names are unique across the forms.  A checkbox missing from the post is
// unchecked.  The browser script keeps the forms in sync while editing, so
// this matters only without it.
func (srv *Service) applyPosted(masonry *form.Masonry, posted url.Values) {
	if len(posted) == 0 {
		return
	}
	count := make(map[string]int)
	for _, f := range masonry.Forms() {
		for _, name := range f.Names() {
			count[name]++
		}
	}
	for _, f := range masonry.Forms() {
		for _, name := range f.Names() {
			c, _ := f.Control(name)
			if count[name] > 1 || !c.Kind.HasValue() || c.Disabled() || c.Hidden() {
				continue
			}
			raw, present := posted[name]
			switch {
			case c.Kind == form.Checkbox:
				err := f.SetString(name, strconv.FormatBool(present))
				srv.logSetError(f, name, err)
			case present && len(raw) > 0:
				srv.logSetError(f, name, f.SetString(name, raw[0]))
			}
		}
	}
}

func (srv *Service) logSetError(f *form.Form, name string, err error) {
	if err != nil {
		srv.log.Printf("Warning: %s/%s: %v", f.Title(), name, err)
	}
}

// field resolves the form and control named in the route.
func (srv *Service) field(w http.ResponseWriter, r *http.Request) (*session, *form.Form, bool) {
	sess, ok := srv.existingSession(r)
	if !ok {
		writeJSON(w, http.StatusForbidden, stateMessage{Error: "no session"})
		return nil, nil, false
	}
	vars := mux.Vars(r)
	f, ok := sess.masonry.Form(vars["form"])
	if !ok {
		writeJSON(w, http.StatusNotFound, stateMessage{Error: "no such form"})
		return nil, nil, false
	}
	if _, ok := f.Control(vars["name"]); !ok {
		writeJSON(w, http.StatusNotFound, stateMessage{Form: f.ID, Error: "no such field"})
		return nil, nil, false
	}
	return sess, f, true
}

func (srv *Service) changeField(w http.ResponseWriter, r *http.Request) {
	sess, f, ok := srv.field(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		srv.log.Printf("Failed to parse field value: %v", err)
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	name := mux.Vars(r)["name"]
	err := f.SetString(name, r.PostForm.Get("value"))
	srv.metrics.LiveMessage("change", err)
	msg := stateMessage{Form: f.ID, Fields: f.State()}
	status := http.StatusOK
	if err != nil {
		msg.Error = err.Error()
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, msg)
}

func (srv *Service) clickField(w http.ResponseWriter, r *http.Request) {
	sess, f, ok := srv.field(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	c, _ := f.Control(mux.Vars(r)["name"])
	c.Click()
	srv.metrics.LiveMessage("click", nil)
	writeJSON(w, http.StatusOK, stateMessage{Form: f.ID, Fields: f.State()})
}

func (srv *Service) completePath(w http.ResponseWriter, r *http.Request) {
	sess, f, ok := srv.field(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	c, _ := f.Control(mux.Vars(r)["name"])
	kind := c.Kind
	sess.mu.Unlock()
	if kind != form.FileInput {
		writeJSON(w, http.StatusBadRequest, stateMessage{Form: f.ID, Error: "not a file field"})
		return
	}
	paths, err := pathcomplete.Complete(srv.Config.CompletionRoot, r.URL.Query().Get("prefix"), completionLimit)
	if errors.Is(err, pathcomplete.ErrOutsideRoot) {
		writeJSON(w, http.StatusForbidden, stateMessage{Form: f.ID, Error: "path outside the completion root"})
		return
	}
	if err != nil {
		srv.log.Printf("Path completion failed: %v", err)
		paths = []string{}
	}
	writeJSON(w, http.StatusOK, paths)
}

// handleLive applies a change or click sent over the live channel and
// replies with the form state.
func (srv *Service) handleLive(sid string, msg web.Message) (interface{}, error) {
	sess, ok := srv.sessions.get(sid)
	if !ok {
		return nil, errors.New("session closed")
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	f, ok := sess.masonry.Form(msg.Form)
	if !ok {
		return nil, errors.New("no such form")
	}
	var err error
	switch msg.Type {
	case "change":
		err = f.SetString(msg.Field, msg.Value)
	case "click":
		c, ok := f.Control(msg.Field)
		if !ok {
			err = errors.New("no such field")
			break
		}
		c.Click()
	default:
		err = errors.New("unknown message type " + strconv.Quote(msg.Type))
	}
	srv.metrics.LiveMessage(msg.Type, err)
	reply := stateMessage{Form: f.ID, Fields: f.State()}
	if err != nil {
		reply.Error = err.Error()
	}
	return reply, err
}

// pushState sends the state of every form of sess to its live clients.
// Callers hold sess.mu.
func (srv *Service) pushState(sess *session) {
	for _, f := range sess.masonry.Forms() {
		srv.live.Push(sess.id, stateMessage{Form: f.ID, Fields: f.State()})
	}
}

func (srv *Service) showJob(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobid, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		srv.web.ErrorResponse(w, http.StatusBadRequest, "Invalid ID")
		return
	}
	// jobs of other sessions are reported as missing
	sid, ok := srv.sessionID(r)
	job, err := srv.db.GetJob(jobid)
	if !ok || err != nil || job == nil || job.SessionID != sid {
		srv.web.ErrorResponse(w, http.StatusNotFound, "No such job")
		return
	}

	tmpl, err := page(templates.JobView)
	if err != nil {
		srv.log.Printf("Failed to parse job page: %v", err)
		srv.web.ErrorResponse(w, http.StatusInternalServerError, "Error showing job")
		return
	}

	type keyValue struct{ Key, Value string }
	values := make([]keyValue, 0, len(job.ValueMap))
	for k, v := range job.ValueMap {
		values = append(values, keyValue{k, v})
	}
	sort.Slice(values, func(i, j int) bool { return values[i].Key < values[j].Key })

	// Add timestamps and exit message to template data
	data := make(map[string]interface{})
	data["title"] = srv.Config.Title
	data["job"] = job
	data["values"] = values
	data["submit_time"] = job.SubmitTime.Format(timefmt)
	if job.IsFinished() {
		data["end_time"] = job.EndTime.Format(timefmt)
	}

	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		srv.log.Printf("Failed to render job: %v", err)
	}
}

func (srv *Service) renderLog(w http.ResponseWriter, r *http.Request) {
	tmpl, err := page(templates.LogView)
	if err != nil {
		srv.log.Printf("Failed to parse log page: %v", err)
		srv.web.ErrorResponse(w, http.StatusInternalServerError, "Error showing job listing")
		return
	}

	joblog := make([]db.Job, 0)
	if sid, ok := srv.sessionID(r); ok {
		joblog, err = srv.db.GetSessionJobs(sid)
		if err != nil {
			srv.web.ErrorResponse(w, http.StatusInternalServerError, "Error reading jobs from DB")
			return
		}
	}
	data := map[string]interface{}{
		"title":   srv.Config.Title,
		"jobs":    joblog,
		"timefmt": timefmt,
	}
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		srv.log.Printf("Failed to render log: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
