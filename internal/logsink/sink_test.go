package logsink

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func fixedTime() time.Time {
	return time.Date(2024, 3, 9, 7, 5, 2, 0, time.UTC)
}

func TestFileNames(t *testing.T) {
	info, errs := FileNames(fixedTime())
	if info != "log_20240309-070502.txt" {
		t.Errorf("info name = %q", info)
	}
	if errs != "log_20240309-070502.error.txt" {
		t.Errorf("error name = %q", errs)
	}
}

func TestSink_SplitsByLevel(t *testing.T) {
	dir := t.TempDir()
	s, err := New(Options{Dir: dir, Now: fixedTime()})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(s.ErrorPath()); !os.IsNotExist(err) {
		t.Fatalf("error log created before the first error: %v", err)
	}

	s.Info("hello info")
	s.Error("hello error")
	s.Debug("hidden debug")

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	info, err := os.ReadFile(s.InfoPath())
	if err != nil {
		t.Fatal(err)
	}
	errs, err := os.ReadFile(s.ErrorPath())
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Contains(info, []byte(" - hello info\n")) {
		t.Errorf("info log = %q", info)
	}
	if bytes.Contains(info, []byte("hello error")) || bytes.Contains(info, []byte("hidden debug")) {
		t.Errorf("info log contains foreign lines: %q", info)
	}
	if !bytes.Contains(errs, []byte(" - hello error\n")) {
		t.Errorf("error log = %q", errs)
	}
	if bytes.Contains(errs, []byte("hello info")) {
		t.Errorf("error log contains info line: %q", errs)
	}
}

func TestSink_LineFormat(t *testing.T) {
	dir := t.TempDir()
	s, err := New(Options{Dir: dir, Now: fixedTime()})
	if err != nil {
		t.Fatal(err)
	}
	s.Info("formatted")
	_ = s.Close()

	b, _ := os.ReadFile(s.InfoPath())
	line := strings.TrimSuffix(string(b), "\n")

	stamp, msg, ok := strings.Cut(line, " - ")
	if !ok || msg != "formatted" {
		t.Fatalf("line = %q", line)
	}
	if _, err := time.Parse("2006-01-02T15:04:05.000Z07:00", stamp); err != nil {
		t.Errorf("timestamp %q: %v", stamp, err)
	}
}

func TestSink_ConsoleTee(t *testing.T) {
	var console bytes.Buffer
	s, err := New(Options{Dir: t.TempDir(), Now: fixedTime(), Console: &console})
	if err != nil {
		t.Fatal(err)
	}
	s.Debug("debug line")
	s.Infof("info %d", 7)
	_ = s.Close()

	out := console.String()
	if !strings.Contains(out, "DEBUG - debug line") || !strings.Contains(out, "INFO - info 7") {
		t.Errorf("console = %q", out)
	}
}

func TestSink_ConcurrentAppendsKeepLinesWhole(t *testing.T) {
	s, err := New(Options{Dir: t.TempDir(), Now: fixedTime()})
	if err != nil {
		t.Fatal(err)
	}

	const writers, perWriter = 8, 50

	var wg sync.WaitGroup
	for w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWriter {
				s.Info(fmt.Sprintf("writer-%d line-%d %s", w, i, strings.Repeat("x", 64)))
			}
		}()
	}
	wg.Wait()
	_ = s.Close()

	b, _ := os.ReadFile(s.InfoPath())
	lines := strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")
	if len(lines) != writers*perWriter {
		t.Fatalf("got %d lines, want %d", len(lines), writers*perWriter)
	}
	for _, line := range lines {
		if !strings.HasSuffix(line, strings.Repeat("x", 64)) || strings.Count(line, " - ") != 1 {
			t.Fatalf("torn line: %q", line)
		}
	}
}

func TestSink_WriteFailureIsReportedNotFatal(t *testing.T) {
	dir := t.TempDir()
	_, errName := FileNames(fixedTime())

	// A directory in place of the error log makes every error write fail.
	if err := os.Mkdir(filepath.Join(dir, errName), 0o755); err != nil {
		t.Fatal(err)
	}

	var operator bytes.Buffer
	s, err := New(Options{Dir: dir, Now: fixedTime(), ErrorOutput: &operator})
	if err != nil {
		t.Fatal(err)
	}

	s.Error("cannot be written")
	s.Info("still works")
	_ = s.Close()

	if !strings.Contains(operator.String(), "write error") {
		t.Errorf("operator output = %q", operator.String())
	}

	b, _ := os.ReadFile(s.InfoPath())
	if !bytes.Contains(b, []byte("still works")) {
		t.Errorf("info log = %q", b)
	}
}

func TestNew_UnwritableDir(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := New(Options{Dir: filepath.Join(blocker, "logs")}); err == nil {
		t.Fatal("expected error for log dir below a regular file")
	}
}
