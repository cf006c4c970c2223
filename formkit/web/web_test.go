package web

import (
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestGracefulStop(t *testing.T) {
	srv := New(4242)
	started := make(chan struct{})
	srv.Router.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		close(started)
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte("done"))
	})
	srv.Router.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {})
	srv.Start()

	if _, err := getRetry("http://localhost:4242/ping"); err != nil {
		t.Fatalf("Server did not start: %v", err)
	}

	type result struct {
		body string
		err  error
	}
	res := make(chan result, 1)
	go func() {
		resp, err := http.Get("http://localhost:4242/slow")
		if err != nil {
			res <- result{err: err}
			return
		}
		defer resp.Body.Close()
		b, err := ioutil.ReadAll(resp.Body)
		res <- result{string(b), err}
	}()

	<-started
	srv.Stop()
	if r := <-res; r.err != nil || r.body != "done" {
		t.Fatalf("Open request not finished on stop: %q (%v)", r.body, r.err)
	}
	if _, err := http.Get("http://localhost:4242/ping"); err == nil {
		t.Fatal("Server still accepts requests after stop")
	}
}

func TestSetLogger(t *testing.T) {
	first := New(4245)
	first.Router.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {})
	first.Start()
	defer first.Stop()
	if _, err := getRetry("http://localhost:4245/ping"); err != nil {
		t.Fatalf("Server did not start: %v", err)
	}

	// a second server on the same port fails to listen and logs it
	buf := new(syncBuffer)
	second := New(4245)
	second.SetLogger(log.New(buf, "", 0))
	second.Start()
	for idx := 0; idx < 50 && !strings.Contains(buf.String(), "Web server stopped"); idx++ {
		time.Sleep(10 * time.Millisecond)
	}
	if !strings.Contains(buf.String(), "Web server stopped") {
		t.Fatalf("Listen error not logged: %q", buf.String())
	}

	rr := httptest.NewRecorder()
	second.ErrorResponse(rr, http.StatusNotFound, "no such job")
	if !strings.Contains(buf.String(), "404 Not Found: no such job") {
		t.Fatalf("Error response not logged: %q", buf.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("Unexpected content type: %q", ct)
	}
}

func TestWebWithRoutes(t *testing.T) {
	srv := New(4243)

	router := srv.Router
	router.StrictSlash(true)

	testget := func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("(get) hello"))
	}

	testpost := func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		if err != nil {
			t.Fatalf("Post request handler failed to read form data: %v", err.Error())
		}
		resp := r.PostForm.Get("response")
		w.Write([]byte(fmt.Sprintf("(post) hello: %s", resp)))
	}

	router.HandleFunc("/test", testget).Methods("GET")
	router.HandleFunc("/test", testpost).Methods("POST")

	srv.Start()
	defer srv.Stop()

	if resp, err := getRetry("http://localhost:4243/test"); err != nil {
		t.Fatalf("Error testing get request: %v", err.Error())
	} else if b, err := ioutil.ReadAll(resp.Body); err != nil {
		t.Fatalf("Error reading get request body: %v", err.Error())
	} else if string(b) != "(get) hello" {
		t.Fatalf("Got unexpected response from get request: %s", string(b))
	}

	if resp, err := http.PostForm("http://localhost:4243/test", url.Values{"response": {"formvalue"}}); err != nil {
		t.Fatalf("Error testing post request: %v", err.Error())
	} else if b, err := ioutil.ReadAll(resp.Body); err != nil {
		t.Fatalf("Error reading post request body: %v", err.Error())
	} else if string(b) != "(post) hello: formvalue" {
		t.Fatalf("Got unexpected response from post request: %s", string(b))
	}
}

func TestErrorResponse(t *testing.T) {
	srv := New(4244)

	router := srv.Router
	router.StrictSlash(true)

	expresp := "TESTING:UNPROCESSABLE"
	testget := func(w http.ResponseWriter, r *http.Request) {
		srv.ErrorResponse(w, http.StatusUnprocessableEntity, expresp)
	}
	router.HandleFunc("/test", testget).Methods("GET")
	srv.Start()
	defer srv.Stop()

	resp, err := getRetry("http://localhost:4244/test")
	if err != nil {
		t.Fatalf("Error testing get request: %v", err.Error())
	}
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("Unexpected status code: %d", resp.StatusCode)
	}
	if b, err := ioutil.ReadAll(resp.Body); err != nil {
		t.Fatalf("Error reading get request body: %v", err.Error())
	} else if !strings.Contains(string(b), expresp) {
		t.Fatalf("Got unexpected response from get request: %s", string(b))
	}
}
