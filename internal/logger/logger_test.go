package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// capture routes output to a buffer for the duration of the test.
func capture(t *testing.T, v bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(v)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetVerbose(false)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, true)
	assert.True(t, IsVerbose())
	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name    string
		log     func(string, ...any)
		verbose string
		quiet   string
	}{
		{"debug", Debug, "[DEBUG] indexed 3 chunks\n", ""},
		{"info", Info, "[INFO] indexed 3 chunks\n", ""},
		{"warn", Warn, "[WARN] indexed 3 chunks\n", ""},
		{"error", Error, "[ERROR] indexed 3 chunks\n", "[ERROR] indexed 3 chunks\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, true)
			tt.log("indexed %d chunks", 3)
			assert.Equal(t, tt.verbose, buf.String())

			buf = capture(t, false)
			tt.log("indexed %d chunks", 3)
			assert.Equal(t, tt.quiet, buf.String())
		})
	}
}

func TestPercentInArgumentsIsNotFormatted(t *testing.T) {
	buf := capture(t, true)
	Warn("%s", "100%s done")
	assert.Equal(t, "[WARN] 100%s done\n", buf.String())
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func TestConcurrentUse(t *testing.T) {
	out := &lockedBuffer{}
	SetOutput(out)
	t.Cleanup(func() { SetOutput(os.Stderr); SetVerbose(false) })

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			SetVerbose(i%2 == 0)
			Debug("worker %d", i)
			Error("worker %d", i)
		}()
	}
	wg.Wait()
	assert.Contains(t, out.buf.String(), "[ERROR] worker")
}
