package db

import (
	"io/ioutil"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *Connection {
	tmpfile, err := ioutil.TempFile("", "testdb")
	if err != nil {
		t.Fatalf("Failed to create temporary database file: %s", err.Error())
	}
	t.Cleanup(func() { os.Remove(tmpfile.Name()) })

	conn, err := New(tmpfile.Name())
	if err != nil {
		t.Fatalf("Failed to initialise database connection to file %q: %s", tmpfile.Name(), err.Error())
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestInitEmpty(t *testing.T) {
	db := newTestDB(t)

	// db should be empty
	jobs, err := db.AllJobs()
	if err != nil {
		t.Fatalf("Failed to retrieve all jobs from empty db: %s", err.Error())
	}

	if jobs == nil {
		t.Fatal("Job listing returned nil instead of empty slice")
	}

	if len(jobs) != 0 {
		t.Fatalf("Job listing returned %d entries; should be 0", len(jobs))
	}

	sessions := make([]Session, 0)
	if err := db.engine.Find(&sessions); err != nil {
		t.Fatalf("Failed to retrieve all sessions from empty db: %s", err.Error())
	}

	if len(sessions) != 0 {
		t.Fatalf("Session listing returned %d entries; should be 0", len(sessions))
	}
}

func TestSessionStore(t *testing.T) {
	db := newTestDB(t)

	sess := NewSession()
	if sess.ID == "" {
		t.Fatal("New session has no ID")
	}
	if err := db.InsertSession(sess); err != nil {
		t.Fatalf("Failed inserting new session: %s", err.Error())
	}

	if db.InsertSession(sess) == nil {
		t.Fatal("Succeeded inserting duplicate session")
	}

	other := NewSession()
	if other.ID == sess.ID {
		t.Fatalf("Two new sessions share the ID %s", sess.ID)
	}
	if err := db.InsertSession(other); err != nil {
		t.Fatalf("Failed inserting second session: %s", err.Error())
	}

	if s, err := db.GetSession(sess.ID); err != nil {
		t.Fatalf("Failed to retrieve test session from db: %s", err.Error())
	} else if s.ID != sess.ID {
		t.Fatalf("Unexpected session returned from db: %+v (not %+v)", s, sess)
	}

	if s, err := db.GetSession("not-a-session"); err == nil {
		t.Fatalf("Succeeded retrieving session using invalid ID: %+v", s)
	}

	if err := db.DeleteSession(sess.ID); err != nil {
		t.Fatalf("Failed to delete session: %s", err.Error())
	}
	if _, err := db.GetSession(sess.ID); err == nil {
		t.Fatal("Session still found in db after deletion")
	}

	sessions := make([]Session, 0)
	if err := db.engine.Find(&sessions); err != nil {
		t.Fatalf("Failed to retrieve all sessions from db: %s", err.Error())
	}
	if len(sessions) != 1 || sessions[0].ID != other.ID {
		t.Fatalf("Unexpected sessions found in db after deletion: %+v", sessions)
	}
}

func TestSessionExpiry(t *testing.T) {
	db := newTestDB(t)

	old := NewSession()
	old.LastSeen = time.Now().Add(-48 * time.Hour)
	if err := db.InsertSession(old); err != nil {
		t.Fatalf("Failed inserting old session: %s", err.Error())
	}
	fresh := NewSession()
	if err := db.InsertSession(fresh); err != nil {
		t.Fatalf("Failed inserting fresh session: %s", err.Error())
	}
	cutoff := time.Now().Add(-24 * time.Hour)
	// seconds on either side of the cutoff
	justBefore := NewSession()
	justBefore.LastSeen = cutoff.Add(-2 * time.Second)
	justAfter := NewSession()
	justAfter.LastSeen = cutoff.Add(2 * time.Second)
	for _, sess := range []*Session{justBefore, justAfter} {
		if err := db.InsertSession(sess); err != nil {
			t.Fatalf("Failed inserting session: %s", err.Error())
		}
	}

	expired, err := db.ExpiredSessions(cutoff)
	if err != nil {
		t.Fatalf("Failed to list expired sessions: %s", err.Error())
	}
	ids := make(map[string]bool)
	for _, sess := range expired {
		ids[sess.ID] = true
	}
	if len(expired) != 2 || !ids[old.ID] || !ids[justBefore.ID] {
		t.Fatalf("Unexpected expired sessions: %+v", expired)
	}

	for _, id := range []string{old.ID, justBefore.ID} {
		if err := db.TouchSession(id); err != nil {
			t.Fatalf("Failed to touch session: %s", err.Error())
		}
	}
	if expired, err := db.ExpiredSessions(cutoff); err != nil {
		t.Fatalf("Failed to list expired sessions: %s", err.Error())
	} else if len(expired) != 0 {
		t.Fatalf("Touched session still expired: %+v", expired)
	}
}

func TestJobStore(t *testing.T) {
	db := newTestDB(t)

	empty := &Job{}
	if err := db.InsertJob(empty); err != nil {
		t.Fatalf("Failed inserting empty job: %s", err.Error())
	}

	if empty.ID != 1 {
		t.Fatalf("Job ID autoincrement failed: %d", empty.ID)
	}

	if db.InsertJob(empty) == nil {
		t.Fatal("Succeeded while entering duplicate empty job")
	}

	job := new(Job)
	job.Label = "test"
	job.ValueMap = map[string]string{
		"atmos.atmos_file": "model.mod",
		"atmos.dims":       "23",
		"m3d.ngrid":        "0.5",
		"launch.verbose":   "true",
	}
	job.Messages = []string{"one", "two"}
	if err := db.InsertJob(job); err != nil {
		t.Fatalf("Failed inserting new job: %s", err.Error())
	}

	if db.InsertJob(job) == nil {
		t.Fatal("Succeeded inserting duplicate job")
	}

	nExpected := 2
	if jobs, err := db.AllJobs(); err != nil {
		t.Fatalf("Failed to retrieve all jobs from db: %s", err.Error())
	} else if len(jobs) != nExpected {
		t.Fatalf("Unexpected number of jobs found: %d (expected %d)", len(jobs), nExpected)
	} else if jobs[0].ID != job.ID {
		t.Fatalf("Job listing not ordered newest first: %+v", jobs)
	}

	if j, err := db.GetJob(job.ID); err != nil {
		t.Fatalf("Failed to retrieve test job from db: %s", err.Error())
	} else if j.ID != job.ID {
		t.Fatalf("Unexpected job returned from db: %+v (not %+v)", j, job)
	} else if len(j.ValueMap) != len(job.ValueMap) {
		t.Fatalf("Job ValueMap mismatch: %+v (not %+v)", j, job)
	} else if len(j.Messages) != 2 {
		t.Fatalf("Job Messages mismatch: %+v (not %+v)", j.Messages, job.Messages)
	} else {
		for k := range job.ValueMap {
			if j.ValueMap[k] != job.ValueMap[k] {
				t.Fatalf("Job ValueMap value mismatch: %s (not %s)", j.ValueMap[k], job.ValueMap[k])
			}
		}
	}

	if j, err := db.GetJob(1000); err == nil {
		t.Fatalf("Succeeded retrieving job using invalid ID: %+v", j)
	}

	fjob := new(Job)
	if db.InsertJob(fjob) != nil {
		t.Fatalf("Failed to insert job in db: %v", fjob)
	}
	if fjob.IsFinished() {
		t.Fatalf("New (unfinished) job appears finished: %+v", fjob)
	}
	fjob.EndTime = time.Now()
	fjob.Error = "failed"
	if !fjob.IsFinished() {
		t.Fatalf("Finished job appears unfinished: %+v", fjob)
	}
	if err := db.UpdateJob(fjob); err != nil {
		t.Fatalf("Failed to update job (finished): %s", err.Error())
	}
	if fjobr, err := db.GetJob(fjob.ID); err != nil {
		t.Fatalf("Failed to retrieve finished job from db: %s", err.Error())
	} else if !fjobr.IsFinished() {
		t.Fatalf("Finished job, loaded from db, appears unfinished: %+v", fjobr)
	} else if fjobr.Error != "failed" {
		t.Fatalf("Job error not stored: %q", fjobr.Error)
	}
}

func TestSessionJobs(t *testing.T) {
	db := newTestDB(t)

	// 200 entries for one session
	testid := NewSession().ID
	ntest := 200
	testlabel := "testsessionjob"
	for idx := 0; idx < ntest; idx++ {
		db.InsertJob(&Job{SessionID: testid, SubmitTime: time.Now().Add(-time.Duration(time.Second)), EndTime: time.Now(), Label: testlabel})
	}

	// 1000 entries spread over a handful of other sessions
	others := []string{NewSession().ID, NewSession().ID, NewSession().ID}
	rand.Seed(time.Now().UnixNano())
	for idx := 0; idx < 1000; idx++ {
		db.InsertJob(&Job{SessionID: others[rand.Intn(len(others))], SubmitTime: time.Now().Add(-time.Duration(time.Second)), EndTime: time.Now(), Label: "OtherJob"})
	}

	if ftjobs, err := db.GetSessionJobs(testid); err != nil {
		t.Fatalf("Failed to get jobs for session %s: %s", testid, err.Error())
	} else if len(ftjobs) != ntest {
		t.Fatalf("Unexpected job count: %d (expected %d)", len(ftjobs), ntest)
	} else {
		for idx := range ftjobs {
			if ftjobs[idx].Label != testlabel {
				t.Fatalf("Unexpected label found for job: %s (expected %s)", ftjobs[idx].Label, testlabel)
			}
		}
	}

	// jobs of other sessions never match an empty session ID
	if nosess, err := db.GetSessionJobs(""); err != nil {
		t.Fatalf("Failed to get jobs without session: %s", err.Error())
	} else if len(nosess) != 0 {
		t.Fatalf("Empty session ID matched %d jobs", len(nosess))
	}

	if alljobs, err := db.AllJobs(); err != nil {
		t.Fatalf("Failed to retrieve all jobs: %s", err.Error())
	} else {
		nother := 0
		for idx := range alljobs {
			j := alljobs[idx]
			if j.SessionID == testid {
				if j.Label != testlabel {
					t.Fatalf("Unexpected row found in db: SID %s; Label: %s", j.SessionID, j.Label)
				}
			} else if j.Label != "OtherJob" {
				t.Fatalf("Unexpected row found in db: SID %s; Label: %s", j.SessionID, j.Label)
			} else {
				nother++
			}
		}
		if nother != 1000 {
			t.Fatalf("Unexpected job count: %d (expected 1000)", nother)
		}
	}
}

func TestReopenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	conn, err := New(path)
	if err != nil {
		t.Fatalf("Failed to create store: %s", err.Error())
	}
	sess := NewSession()
	sess.LastSeen = time.Now().Add(-time.Hour)
	if err := conn.InsertSession(sess); err != nil {
		t.Fatalf("Failed inserting session: %s", err.Error())
	}
	conn.Close()

	conn, err = New(path)
	if err != nil {
		t.Fatalf("Failed to reopen store: %s", err.Error())
	}
	defer conn.Close()
	stored, err := conn.GetSession(sess.ID)
	if err != nil {
		t.Fatalf("Session lost on reopen: %s", err.Error())
	}
	if d := stored.LastSeen.Sub(sess.LastSeen); d > time.Second || d < -time.Second {
		t.Fatalf("Stored last seen %v differs from %v", stored.LastSeen, sess.LastSeen)
	}
	if expired, err := conn.ExpiredSessions(time.Now().Add(-30 * time.Minute)); err != nil || len(expired) != 1 {
		t.Fatalf("Reopened session not expired: %+v (%v)", expired, err)
	}
}

func TestNewBadPath(t *testing.T) {
	if conn, err := New(filepath.Join(t.TempDir(), "missing", "dir", "store.db")); err == nil {
		conn.Close()
		t.Fatal("Opened a store in a directory that does not exist")
	}
}
