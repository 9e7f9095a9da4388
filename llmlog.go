package questionforge

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LLMLogger writes a per-batch transcript of every prompt, raw response and
// attempt outcome, for offline inspection of what the completion service was
// actually asked and what it said.
type LLMLogger struct {
	file    *os.File
	mu      sync.Mutex
	batchID string
}

// NewLLMLogger creates a transcript log for one batch under dir.
func NewLLMLogger(dir, batchID string) (*LLMLogger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.Create(filepath.Join(dir, fmt.Sprintf("%s.log", batchID)))
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	l := &LLMLogger{file: file, batchID: batchID}
	l.Logf("=== Generation Batch Log ===\n")
	l.Logf("Batch ID: %s\n", batchID)
	l.Logf("Started: %s\n", time.Now().Format(time.RFC3339))
	l.Logf("============================\n\n")
	return l, nil
}

// Logf writes a formatted entry with a timestamp.
func (l *LLMLogger) Logf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(l.file, "[%s] %s", timestamp, fmt.Sprintf(format, args...))
	l.file.Sync()
}

// LogRequest records an outgoing prompt.
func (l *LLMLogger) LogRequest(stage, prompt string) {
	l.Logf("=== REQUEST (%s) ===\n%s\n====================\n\n", stage, prompt)
}

// LogResponse records a raw completion response.
func (l *LLMLogger) LogResponse(stage, response string) {
	l.Logf("=== RESPONSE (%s) ===\n%s\n=====================\n\n", stage, response)
}

// LogAttempt records how one generation attempt ended.
func (l *LLMLogger) LogAttempt(attempt int, outcome, detail string) {
	l.Logf("attempt %d: %s - %s\n", attempt, outcome, detail)
}

// Close finalizes and closes the transcript.
func (l *LLMLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(l.file, "[%s] === Batch Complete: %s ===\n", timestamp, time.Now().Format(time.RFC3339))
	return l.file.Close()
}
