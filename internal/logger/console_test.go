package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsoleLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleLogger(&buf, "warn")

	log.Tracef("trace message")
	log.Debugf("debug message")
	log.Infof("info message")
	log.Warnf("warn message")
	log.Errorf("error message")

	out := buf.String()
	assert.NotContains(t, out, "trace message")
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "[WARN] warn message")
	assert.Contains(t, out, "[ERROR] error message")
}

func TestConsoleLoggerDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleLogger(&buf, "not-a-level")

	log.Debugf("hidden")
	log.Infof("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestConsoleLoggerTimestampPrefix(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleLogger(&buf, "info")

	log.Infof("converted %d files", 3)

	line := strings.TrimSuffix(buf.String(), "\n")
	// "[HH:MM:SS] [INFO] converted 3 files"
	assert.Regexp(t, `^\[\d{2}:\d{2}:\d{2}\] \[INFO\] converted 3 files$`, line)
}

func TestConsoleLoggerSuccessf(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleLogger(&buf, "info")

	log.Successf("wrote %d rows", 12)

	assert.Contains(t, buf.String(), "[OK] wrote 12 rows")
}

func TestConsoleLoggerNilWriter(t *testing.T) {
	log := NewConsoleLogger(nil, "trace")

	// Must not panic.
	log.Infof("to nowhere")
	log.Successf("to nowhere")
}

func TestConsoleLoggerConcurrentUse(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleLogger(&buf, "trace")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			log.Infof("message %d", n)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 10)
	for _, line := range lines {
		assert.Contains(t, line, "[INFO] message ")
	}
}

func TestNoOpLogger(t *testing.T) {
	log := NewNoOpLogger()
	log.Tracef("x")
	log.Debugf("x")
	log.Infof("x")
	log.Warnf("x")
	log.Errorf("x")
	log.Successf("x")
}
