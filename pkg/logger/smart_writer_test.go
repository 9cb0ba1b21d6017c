package logger

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// lockedBuffer captures writes from the flusher goroutine safely
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *lockedBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

func TestSmartWriter_ImmediateFlushOnError(t *testing.T) {
	out := &lockedBuffer{}
	sw := NewSmartWriter(out, 10*time.Second)
	defer sw.Close()

	infoLog := []byte(`{"level":"info","message":"wager placed"}` + "\n")
	n, err := sw.Write(infoLog)
	assert.NoError(t, err)
	assert.Equal(t, len(infoLog), n)
	assert.Equal(t, 0, out.Len(), "info log should stay buffered")

	errorLog := []byte(`{"level":"error","message":"credit failed"}` + "\n")
	_, err = sw.Write(errorLog)
	assert.NoError(t, err)

	assert.Equal(t, string(infoLog)+string(errorLog), out.String(), "error log should flush everything buffered")
}

func TestSmartWriter_AutoFlush(t *testing.T) {
	out := &lockedBuffer{}
	sw := NewSmartWriter(out, 50*time.Millisecond)
	defer sw.Close()

	infoLog := []byte(`{"level":"info","message":"round started"}` + "\n")
	_, _ = sw.Write(infoLog)
	assert.Equal(t, 0, out.Len())

	assert.Eventually(t, func() bool {
		return out.String() == string(infoLog)
	}, time.Second, 10*time.Millisecond)
}

func TestSmartWriter_ExplicitSync(t *testing.T) {
	out := &lockedBuffer{}
	sw := NewSmartWriter(out, 10*time.Second)
	defer sw.Close()

	infoLog := []byte(`{"level":"info","message":"round ended"}` + "\n")
	_, _ = sw.Write(infoLog)
	assert.Equal(t, 0, out.Len())

	assert.NoError(t, sw.Sync())
	assert.Equal(t, string(infoLog), out.String())
}

func TestSmartWriter_ConsoleErrorFlushes(t *testing.T) {
	out := &lockedBuffer{}
	sw := NewSmartWriter(out, 10*time.Second)
	defer sw.Close()

	line := []byte("2026-01-02 15:04:05.000 ERROR   usecase/round_controller.go:120 credit failed\n")
	_, err := sw.Write(line)
	assert.NoError(t, err)
	assert.Equal(t, string(line), out.String())
}

func TestSmartWriter_CloseTwice(t *testing.T) {
	out := &lockedBuffer{}
	sw := NewSmartWriter(out, 10*time.Second)

	_, _ = sw.Write([]byte(`{"level":"info"}` + "\n"))
	assert.NoError(t, sw.Close())
	assert.NoError(t, sw.Close())
	assert.Equal(t, `{"level":"info"}`+"\n", out.String())
}
