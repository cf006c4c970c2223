package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const timeLayout = "2006-01-02 15:04:05"

// Session holds the information for a browser session.  Each session owns
// its own set of live forms; only the session record is stored.
type Session struct {
	// Session ID (stored in the cookie)
	ID string `xorm:"pk"`
	// Time when the session was created
	Created time.Time
	// Time of the last request in the session
	LastSeen time.Time
}

// NewSession creates a new session with a new unique ID.
func NewSession() *Session {
	sess := new(Session)
	sess.ID = uuid.New().String()
	sess.Created = time.Now()
	sess.LastSeen = sess.Created
	return sess
}

// InsertSession inserts a new Session into the database.
func (conn *Connection) InsertSession(sess *Session) error {
	_, err := conn.engine.Insert(sess)
	return err
}

// GetSession retrieves a session from the database given its ID.
func (conn *Connection) GetSession(id string) (*Session, error) {
	sess := new(Session)
	if has, err := conn.engine.ID(id).Get(sess); err != nil {
		return nil, err
	} else if !has {
		return nil, fmt.Errorf("session %q: not found", id)
	}
	return sess, nil
}

// TouchSession updates the last seen time of a session.
func (conn *Connection) TouchSession(id string) error {
	_, err := conn.engine.ID(id).Cols("last_seen").Update(&Session{LastSeen: time.Now()})
	return err
}

// DeleteSession removes a session from the database.
func (conn *Connection) DeleteSession(id string) error {
	_, err := conn.engine.ID(id).Delete(new(Session))
	return err
}

// ExpiredSessions returns the sessions not seen since the given time.
func (conn *Connection) ExpiredSessions(before time.Time) ([]Session, error) {
	expired := make([]Session, 0)
	// times are stored as text in the database time zone
	cutoff := before.In(conn.engine.DatabaseTZ).Format(timeLayout)
	if err := conn.engine.Where("last_seen < ?", cutoff).Find(&expired); err != nil {
		return nil, err
	}
	return expired, nil
}
