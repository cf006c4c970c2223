package worker

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/G-Node/formkit/formkit/db"
	"github.com/G-Node/formkit/formkit/form"
)

// JobAction runs a launch.  It receives the validated values of every form,
// keyed by form title, and returns messages to store with the job.
type JobAction func(values map[string]form.Values) ([]string, error)

// Monitor is notified of job activity.
type Monitor interface {
	Queued()
	Finished(elapsed time.Duration, err error)
}

type nopMonitor struct{}

func (nopMonitor) Queued() {}
func (nopMonitor) Finished(time.Duration, error) {}

// Job couples the stored job entry with the typed values it was launched
// with.
type Job struct {
	*db.Job
	Values map[string]form.Values
	done   chan struct{}
}

// Masked replaces secret values in the stored value map.
const Masked = "********"

// NewJob creates a job for the given session.  The stored value map holds
// every value stringified under "<form>.<field>"; fields named in secrets
// (by form title, then field name) are stored as Masked.  The action still
// receives the real values.
func NewJob(sessionID, label string, values map[string]form.Values, secrets map[string]map[string]bool) *Job {
	j := &Job{Job: new(db.Job), Values: values, done: make(chan struct{})}
	j.SessionID = sessionID
	j.Label = label
	j.ValueMap = make(map[string]string)
	for section, vals := range values {
		for name, v := range vals {
			stored := fmt.Sprint(v)
			if secrets[section][name] {
				stored = Masked
			}
			j.ValueMap[fmt.Sprintf("%s.%s", section, name)] = stored
		}
	}
	return j
}

// Wait blocks until the job has run.
func (j *Job) Wait() {
	<-j.done
}

// Worker with queue for running Jobs asynchronously.
type Worker struct {
	queue   chan *Job
	stop    chan bool
	Action  JobAction
	Monitor Monitor
	db      *db.Connection
	log     *log.Logger
}

// New returns a worker storing its jobs through dbconn.  A queue length of
// zero or less makes Enqueue block until the worker picks up the job.
func New(dbconn *db.Connection, queueLength int) *Worker {
	w := new(Worker)
	if queueLength < 0 {
		queueLength = 0
	}
	w.queue = make(chan *Job, queueLength)
	w.stop = make(chan bool)
	w.db = dbconn
	w.Monitor = nopMonitor{}
	w.log = log.New(log.Writer(), log.Prefix(), log.Flags())
	return w
}

// SetLogger replaces the worker's logger.
func (w *Worker) SetLogger(logger *log.Logger) {
	w.log = logger
}

// Enqueue stores the job in the database and adds it to the queue.
func (w *Worker) Enqueue(j *Job) error {
	j.SubmitTime = time.Now()
	if j.Label == "" {
		j.Label = defaultLabel(j.Values)
	}
	if err := w.db.InsertJob(j.Job); err != nil {
		w.log.Printf("Error inserting job %q into db: %v", j.Label, err)
		return err
	}
	w.Monitor.Queued()
	w.queue <- j
	return nil
}

// defaultLabel names a job after its first form title.
func defaultLabel(values map[string]form.Values) string {
	titles := make([]string, 0, len(values))
	for title := range values {
		titles = append(titles, title)
	}
	if len(titles) == 0 {
		return "job"
	}
	sort.Strings(titles)
	return titles[0]
}

// Stop the worker.  A job that is running is finished first; queued jobs
// stay in the database unfinished.
func (w *Worker) Stop() {
	w.stop <- true
}

func (w *Worker) run(j *Job) {
	defer close(j.done)
	defer func() {
		// Update job entry in db when done
		if err := w.db.UpdateJob(j.Job); err != nil {
			w.log.Printf("Error updating job [J%d] in db: %v", j.ID, err)
		}
	}()
	w.log.Printf("Starting job [J%d] %s", j.ID, j.Label)
	start := time.Now()
	msgs, err := w.call(j.Values)
	j.EndTime = time.Now()
	j.Messages = msgs
	w.Monitor.Finished(j.EndTime.Sub(start), err)
	if err == nil {
		w.log.Printf("Job [J%d] %s finished", j.ID, j.Label)
	} else {
		w.log.Printf("Job [J%d] %s failed: %s", j.ID, j.Label, err)
		j.Error = err.Error()
	}
}

// call runs the action, turning a panic into a job error.
func (w *Worker) call(values map[string]form.Values) (msgs []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job action panicked: %v", r)
		}
	}()
	return w.Action(values)
}

// Start the worker loop in a goroutine.
func (w *Worker) Start() {
	go func() {
		for {
			select {
			case job := <-w.queue:
				w.run(job)
			case <-w.stop:
				return
			}
		}
	}()
	w.log.Print("Worker started")
}
