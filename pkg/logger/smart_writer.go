package logger

import (
	"bufio"
	"bytes"
	"io"
	"sync"
	"time"
)

const smartWriterBufferSize = 256 * 1024

// flushMarkers identify lines that must reach the output immediately.
// JSON lines carry "level":"error"; console lines carry the padded upper-case level.
var flushMarkers = [][]byte{
	[]byte(`"level":"error"`),
	[]byte(`"level":"fatal"`),
	[]byte(`"level":"panic"`),
	[]byte(" ERROR "),
	[]byte(" FATAL "),
	[]byte(" PANIC "),
}

// SmartWriter buffers log lines and writes them out when the buffer fills,
// every flushInterval, or at once for error and fatal lines. A settlement
// failure is therefore on disk before the process can die.
type SmartWriter struct {
	mu        sync.Mutex
	out       *bufio.Writer
	interval  time.Duration
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewSmartWriter starts the background flusher for w
func NewSmartWriter(w io.Writer, flushInterval time.Duration) *SmartWriter {
	if flushInterval <= 0 {
		flushInterval = time.Second
	}
	sw := &SmartWriter{
		out:      bufio.NewWriterSize(w, smartWriterBufferSize),
		interval: flushInterval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go sw.flushLoop()
	return sw
}

func urgent(p []byte) bool {
	for _, m := range flushMarkers {
		if bytes.Contains(p, m) {
			return true
		}
	}
	return false
}

// Write implements io.Writer
func (sw *SmartWriter) Write(p []byte) (int, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	n, err := sw.out.Write(p)
	if err == nil && urgent(p) {
		err = sw.out.Flush()
	}
	return n, err
}

// Sync flushes whatever is buffered
func (sw *SmartWriter) Sync() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.out.Flush()
}

// Close stops the flusher and writes out the buffer. Safe to call twice.
func (sw *SmartWriter) Close() error {
	sw.closeOnce.Do(func() {
		close(sw.stop)
		<-sw.done
	})
	return sw.Sync()
}

func (sw *SmartWriter) flushLoop() {
	defer close(sw.done)
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = sw.Sync()
		case <-sw.stop:
			return
		}
	}
}
