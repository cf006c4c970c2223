package formkit

import (
	"bytes"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/G-Node/formkit/formkit/form"
	"github.com/G-Node/formkit/formkit/worker"
)

// testLayout builds a launch form and a parameter form with a file field, a
// disable condition and a button that resets dims.
func testLayout(env *Env) (*form.Masonry, error) {
	launch, err := form.New(form.Spec{
		form.Field("name", "run1"),
		form.Field("flag", false),
		form.Field("password", "secret"),
	}, env.Options(form.Options{
		Title:     "launch",
		Mandatory: []string{"name"},
	}))
	if err != nil {
		return nil, err
	}
	params, err := form.New(form.Spec{
		form.Field("dims", 3),
		form.Field("disable_dims", false),
		form.Field("atmos_file", filepath.Join("input", "atmos")),
		form.Field("reset", nil),
	}, env.Options(form.Options{
		Title:   "params",
		Disable: form.Conditions{"dims": func(v form.Values) bool { return v.Bool("disable_dims") }},
		Check:   form.Conditions{"dims": func(v form.Values) bool { return v.Int("dims") > 0 }},
	}))
	if err != nil {
		return nil, err
	}
	reset, _ := params.Control("reset")
	reset.OnClick(func() { params.Set("dims", 3) })
	return form.NewMasonry(launch, params)
}

func testConfig(t *testing.T, port uint16) Config {
	cfg := DefaultConfig()
	cfg.Port = port
	cfg.CookieName = "test-cookie"
	cfg.DBPath = filepath.Join(t.TempDir(), "test.db")
	return cfg
}

func newTestService(t *testing.T, port uint16) *Service {
	srv, err := NewService(testLayout, echoAction, testConfig(t, port))
	if err != nil {
		t.Fatalf("Failed to initialise service: %s", err.Error())
	}
	t.Cleanup(func() { srv.db.Close() })
	return srv
}

func echoAction(values map[string]form.Values) ([]string, error) {
	echo := make([]string, 0)
	for section, vals := range values {
		for k, v := range vals {
			echo = append(echo, fmt.Sprintf("%s.%s:%v", section, k, v))
		}
	}
	sort.Strings(echo)
	return echo, nil
}

func TestServiceFailStart(t *testing.T) {
	s, err := NewService(nil, echoAction, testConfig(t, 4300))
	if err != nil {
		t.Fatalf("Failed to initialise service: %s", err.Error())
	}
	if s.Start() == nil {
		s.Stop()
		t.Fatal("Service start succeeded with nil layout; should have failed")
	}
	s.Stop()

	s, err = NewService(testLayout, nil, testConfig(t, 4300))
	if err != nil {
		t.Fatalf("Failed to initialise service: %s", err.Error())
	}
	if s.Start() == nil {
		s.Stop()
		t.Fatal("Service start succeeded with nil action; should have failed")
	}
	s.Stop()

	broken := func(*Env) (*form.Masonry, error) {
		_, err := form.New(form.Spec{form.Row([]string{"a", "b"}, 1)}, form.Options{})
		return nil, err
	}
	s, err = NewService(broken, echoAction, testConfig(t, 4300))
	if err != nil {
		t.Fatalf("Failed to initialise service: %s", err.Error())
	}
	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatal("Service start succeeded with broken layout; should have failed")
	} else if !strings.Contains(err.Error(), "failed to build layout") {
		t.Fatalf("Unexpected start error: %v", err)
	}
	s.Stop()
}

func TestServiceInvalidConfig(t *testing.T) {
	cfg := testConfig(t, 4301)
	cfg.CookieName = ""
	if _, err := NewService(testLayout, echoAction, cfg); err == nil {
		t.Fatal("Service initialised with invalid configuration")
	}
}

func TestServiceWithLayout(t *testing.T) {
	srv, err := NewService(testLayout, echoAction, testConfig(t, 4302))
	if err != nil {
		t.Fatalf("Failed to initialise service: %s", err.Error())
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Failed to start service: %s", err.Error())
	}

	srv.Stop()
}

func TestServiceJob(t *testing.T) {
	srv, err := NewService(testLayout, echoAction, testConfig(t, 4303))
	if err != nil {
		t.Fatalf("Failed to initialise service: %s", err.Error())
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Failed to start service: %s", err.Error())
	}
	defer srv.Stop()

	j := worker.NewJob("", "testjob", map[string]form.Values{"α": {"alpha": 1}, "ω": {"omega": true}}, nil)
	if err := srv.worker.Enqueue(j); err != nil {
		t.Fatalf("Failed to enqueue job: %v", err)
	}
	j.Wait()

	if len(j.Messages) != 2 {
		t.Fatalf("Unexpected job output messages: %+v", j.Messages)
	}
	if j.Messages[0] != "α.alpha:1" {
		t.Fatalf("Unexpected job output message [0]: %q", j.Messages[0])
	}
	if j.Messages[1] != "ω.omega:true" {
		t.Fatalf("Unexpected job output message [1]: %s", j.Messages[1])
	}
}

type LogBuffer struct {
	b   bytes.Buffer
	mux sync.Mutex
}

func (lb *LogBuffer) Write(b []byte) (int, error) {
	lb.mux.Lock()
	defer lb.mux.Unlock()
	return lb.b.Write(b)
}

func (lb *LogBuffer) String() string {
	lb.mux.Lock()
	defer lb.mux.Unlock()
	return lb.b.String()
}

func TestLoggers(t *testing.T) {
	srv, err := NewService(testLayout, echoAction, testConfig(t, 4304))
	if err != nil {
		t.Fatalf("Failed to initialise service: %s", err.Error())
	}

	prefix := "[formkittest] "

	lb := new(LogBuffer)
	logger := log.New(lb, prefix, 0)

	srv.SetLogger(logger)

	if err := srv.Start(); err != nil {
		t.Fatalf("Failed to start service: %s", err.Error())
	}
	srv.Stop()

	logstring := lb.String()

	expMessages := []string{
		"Starting worker",
		"Worker started",
		"Starting web service",
		"Web server started",
		"Stopping web service",
		"Stopping worker queue",
		"Closing database connection",
		"Service stopped",
	}

	for _, msg := range expMessages {
		expmsg := fmt.Sprintf("%s%s", prefix, msg)
		if !strings.Contains(logstring, expmsg) {
			t.Fatalf("Expected message %q not found in log", expmsg)
		}
	}
}

func TestEnvOptions(t *testing.T) {
	logger := log.New(new(LogBuffer), "", 0)
	env := &Env{Logger: logger}

	opts := env.Options(form.Options{Title: "t"})
	if opts.Logger != logger || opts.Title != "t" {
		t.Fatalf("Env did not fill the logger: %+v", opts)
	}

	own := log.New(new(LogBuffer), "own", 0)
	if opts := env.Options(form.Options{Logger: own}); opts.Logger != own {
		t.Fatal("Env replaced a logger that was set")
	}
}
