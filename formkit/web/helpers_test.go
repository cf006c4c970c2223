package web

import (
	"bytes"
	"net/http"
	"sync"
	"time"
)

// getRetry retries a GET until the server started in the background accepts
// connections.
func getRetry(url string) (*http.Response, error) {
	var resp *http.Response
	var err error
	for idx := 0; idx < 50; idx++ {
		if resp, err = http.Get(url); err == nil {
			return resp, nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return nil, err
}

// syncBuffer is a bytes.Buffer safe for a logger writing from another
// goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
