package db

import (
	"fmt"
	"time"
)

// Job holds all the information for a launch of the form values.
type Job struct {
	// Job ID (auto)
	ID int64 `xorm:"pk autoincr"`
	// ID of the browser session that launched the job
	SessionID string `xorm:"index"`
	// Name/label of the job
	Label string
	// Form values that created the job, keyed by "<form>.<field>"
	ValueMap map[string]string
	// Messages returned from the job action
	Messages []string
	// Error returned from a failed job
	Error string
	// Time when the job was submitted to the queue
	SubmitTime time.Time
	// Time when the job finished (0 if ongoing)
	EndTime time.Time
}

// InsertJob inserts a new Job into the database.  Upon successful return, the
// Job has a new unique ID.
func (conn *Connection) InsertJob(job *Job) error {
	_, err := conn.engine.Insert(job) // job ID is assigned on insertion
	return err
}

// UpdateJob updates an existing Job entry in the database.
func (conn *Connection) UpdateJob(job *Job) error {
	_, err := conn.engine.ID(job.ID).AllCols().Update(job)
	return err
}

// GetSessionJobs retrieves all the Jobs launched from a given session, newest
// first.  An empty session ID matches only jobs stored without a session.
func (conn *Connection) GetSessionJobs(sid string) ([]Job, error) {
	sessjobs := make([]Job, 0)
	if err := conn.engine.Where("session_id = ?", sid).Desc("id").Find(&sessjobs); err != nil {
		return nil, err
	}

	return sessjobs, nil
}

// IsFinished returns true if the Job has finished (has an EndTime).
func (job *Job) IsFinished() bool {
	return !job.EndTime.IsZero()
}

// AllJobs returns all Job entries in the database, newest first.
func (conn *Connection) AllJobs() ([]Job, error) {
	alljobs := make([]Job, 0)
	if err := conn.engine.Desc("id").Find(&alljobs); err != nil {
		return nil, err
	}

	return alljobs, nil
}

// GetJob retrieves a Job from the database given its ID.
func (conn *Connection) GetJob(id int64) (*Job, error) {
	job := new(Job)
	if has, err := conn.engine.ID(id).Get(job); err != nil {
		return nil, err
	} else if !has {
		return nil, fmt.Errorf("job %d: not found", id)
	}
	return job, nil
}
