package formkit

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/G-Node/formkit/formkit/db"
	"github.com/G-Node/formkit/formkit/form"
)

// session holds the live forms of one browser.  The form engine is not safe
// for concurrent use, so every access goes through mu.
type session struct {
	id      string
	mu      sync.Mutex
	masonry *form.Masonry
}

type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*session)}
}

func (st *sessionStore) get(id string) (*session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	sess, ok := st.sessions[id]
	return sess, ok
}

// add stores sess unless a session with the same ID was added first, in
// which case that one is returned.
func (st *sessionStore) add(sess *session) (*session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if existing, ok := st.sessions[sess.id]; ok {
		return existing, false
	}
	st.sessions[sess.id] = sess
	return sess, true
}

func (st *sessionStore) remove(id string) (*session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	sess, ok := st.sessions[id]
	delete(st.sessions, id)
	return sess, ok
}

func (st *sessionStore) closeAll() {
	st.mu.Lock()
	defer st.mu.Unlock()
	for id, sess := range st.sessions {
		sess.mu.Lock()
		sess.masonry.Close()
		sess.mu.Unlock()
		delete(st.sessions, id)
	}
}

// session returns the session of the request, creating it and setting the
// cookie if the browser has none.  A session known to the database but not
// in memory (after a restart) gets fresh forms.
func (srv *Service) session(w http.ResponseWriter, r *http.Request) (*session, error) {
	if cookie, err := r.Cookie(srv.Config.CookieName); err == nil && cookie.Value != "" {
		if sess, ok := srv.sessions.get(cookie.Value); ok {
			srv.touch(sess.id)
			return sess, nil
		}
		if _, err := srv.db.GetSession(cookie.Value); err == nil {
			srv.touch(cookie.Value)
			return srv.openSession(cookie.Value)
		}
	}

	rec := db.NewSession()
	if err := srv.db.InsertSession(rec); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	sess, err := srv.openSession(rec.ID)
	if err != nil {
		srv.db.DeleteSession(rec.ID)
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     srv.Config.CookieName,
		Value:    rec.ID,
		Path:     "/",
		Expires:  time.Now().Add(srv.Config.SessionTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

// existingSession returns the in-memory session named by the request cookie.
func (srv *Service) existingSession(r *http.Request) (*session, bool) {
	cookie, err := r.Cookie(srv.Config.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	sess, ok := srv.sessions.get(cookie.Value)
	if ok {
		srv.touch(sess.id)
	}
	return sess, ok
}

// sessionID returns the session named by the request cookie, if it is still
// open or stored.  It never creates a session.
func (srv *Service) sessionID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(srv.Config.CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	if _, ok := srv.sessions.get(cookie.Value); ok {
		return cookie.Value, true
	}
	if _, err := srv.db.GetSession(cookie.Value); err == nil {
		return cookie.Value, true
	}
	return "", false
}

// liveSession identifies the session of a live channel request.
func (srv *Service) liveSession(r *http.Request) string {
	if sess, ok := srv.existingSession(r); ok {
		return sess.id
	}
	return ""
}

func (srv *Service) openSession(id string) (*session, error) {
	masonry, err := srv.layout(&Env{SessionID: id, Logger: srv.log, Observer: srv.metrics})
	if err != nil {
		return nil, fmt.Errorf("failed to build forms: %w", err)
	}
	sess, added := srv.sessions.add(&session{id: id, masonry: masonry})
	if !added {
		masonry.Close()
		return sess, nil
	}
	srv.metrics.SessionOpened()
	srv.log.Printf("Opened session %s", id)
	return sess, nil
}

func (srv *Service) touch(id string) {
	if err := srv.db.TouchSession(id); err != nil {
		srv.log.Printf("Error updating session %s: %v", id, err)
	}
}

// sweepSessions closes and deletes the sessions idle since before
// now - SessionTTL.
func (srv *Service) sweepSessions(now time.Time) {
	expired, err := srv.db.ExpiredSessions(now.Add(-srv.Config.SessionTTL))
	if err != nil {
		srv.log.Printf("Error listing expired sessions: %v", err)
		return
	}
	for _, rec := range expired {
		if sess, ok := srv.sessions.remove(rec.ID); ok {
			sess.mu.Lock()
			sess.masonry.Close()
			sess.mu.Unlock()
			srv.metrics.SessionClosed()
		}
		if err := srv.db.DeleteSession(rec.ID); err != nil {
			srv.log.Printf("Error deleting session %s: %v", rec.ID, err)
			continue
		}
		srv.log.Printf("Closed idle session %s", rec.ID)
	}
}
