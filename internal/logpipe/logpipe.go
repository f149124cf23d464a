// Package logpipe captures a live process's merged output into durable
// JSON-lines log files and answers tail/time-window queries over them.
package logpipe

import (
	"bufio"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/d41928/shellherd/internal/apperr"
	"github.com/d41928/shellherd/internal/model"
)

const (
	// fileTimeFormat names log files by their creation instant. The
	// nanosecond suffix keeps an immediate restart from colliding with
	// the file it replaces.
	fileTimeFormat = "2006-01-02_15-04-05.000000000"
	// idlePoll is the drain loop's sleep when the stream has no data but
	// the process is still alive.
	idlePoll = 50 * time.Millisecond
	// joinTimeout bounds how long StopLogging waits for the drain task.
	joinTimeout = time.Second
)

// Pipeline owns the log directory and at most one active drain task.
// Writes are serialized through writeMu so overlapping drain activity
// never interleaves partial lines within a file.
type Pipeline struct {
	dir     string
	errLog  *log.Logger
	writeMu sync.Mutex

	mu    sync.Mutex
	drain *drainTask
}

type drainTask struct {
	stop chan struct{}
	done chan struct{}
}

// New creates a Pipeline writing under dir. Drain-task failures are
// reported to errLog; a nil errLog falls back to the default logger.
func New(dir string, errLog *log.Logger) *Pipeline {
	if errLog == nil {
		errLog = log.Default()
	}
	return &Pipeline{dir: dir, errLog: errLog}
}

// Dir returns the configured log directory.
func (p *Pipeline) Dir() string { return p.dir }

// CreateLogFile creates a fresh, empty, timestamp-named log file and
// returns its path. The directory is created if absent. A name collision
// within the same second surfaces as an OS error rather than reuse.
func (p *Pipeline) CreateLogFile() (string, error) {
	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return "", err
	}
	name := time.Now().UTC().Format(fileTimeFormat) + ".log"
	path := filepath.Join(p.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// StartLogging launches a background drain task reading the process's
// merged output line by line and appending timestamped records to logFile.
// A nil output is a no-op. The call never blocks on the stream.
func (p *Pipeline) StartLogging(output io.Reader, exited func() bool, logFile string) {
	if output == nil {
		return
	}
	task := &drainTask{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	p.mu.Lock()
	p.drain = task
	p.mu.Unlock()

	go p.drainLoop(task, output, exited, logFile)
}

// StopLogging signals the active drain task to stop and waits, bounded,
// for it to finish its current write. Safe to call with no task active.
func (p *Pipeline) StopLogging() {
	p.mu.Lock()
	task := p.drain
	p.drain = nil
	p.mu.Unlock()

	if task == nil {
		return
	}
	close(task.stop)
	select {
	case <-task.done:
	case <-time.After(joinTimeout):
	}
}

// drainLoop reads one line at a time until the stream ends and the
// process has exited, or the stop signal fires. Unexpected I/O failures
// are logged and end the task without disturbing the caller.
func (p *Pipeline) drainLoop(task *drainTask, output io.Reader, exited func() bool, logFile string) {
	defer close(task.done)

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		p.errLog.Printf("error opening log file %s: %v", logFile, err)
		return
	}
	defer f.Close()

	// The stop signal is only honored at EOF with the process still
	// alive. Anything already buffered in the stream is always written,
	// so a stop racing a process exit cannot drop trailing output.
	reader := bufio.NewReader(output)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			if werr := p.appendRecord(f, line); werr != nil {
				p.errLog.Printf("error writing log: %v", werr)
				return
			}
		}
		if err == nil {
			continue
		}
		if err != io.EOF {
			p.errLog.Printf("error reading process output: %v", err)
			return
		}
		// EOF with the process still alive just means no data yet.
		if exited == nil || exited() {
			return
		}
		select {
		case <-task.stop:
			return
		case <-time.After(idlePoll):
		}
	}
}

// appendRecord serializes one output line and flushes it immediately so a
// crash never loses acknowledged lines.
func (p *Pipeline) appendRecord(f *os.File, line string) error {
	rec := model.Record{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Line:      sanitizeLine(line),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return err
	}
	return f.Sync()
}

// sanitizeLine strips line endings and replaces invalid byte sequences
// rather than dropping the line.
func sanitizeLine(line string) string {
	line = strings.TrimRight(line, "\r\n")
	return strings.ToValidUTF8(line, "�")
}

// ReadLogs parses logFile as a sequence of records and applies at most
// one of the two filters: lines (tail) or seconds (time window). Lines
// that fail to parse as records are skipped, tolerating a partial trailing
// write. TotalLines counts parsed records before filtering.
func (p *Pipeline) ReadLogs(logFile string, lines, seconds *int) (*model.LogsResult, error) {
	if lines != nil && seconds != nil {
		return nil, apperr.BadRequestf("Cannot specify both 'lines' and 'seconds'")
	}

	f, err := os.Open(logFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NotFoundf("Log file not found: %s", logFile)
		}
		return nil, err
	}
	defer f.Close()

	var records []model.Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var rec model.Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	total := len(records)
	kept := records
	switch {
	case seconds != nil:
		cutoff := time.Now().UTC().Add(-time.Duration(*seconds) * time.Second)
		kept = make([]model.Record, 0, len(records))
		for _, rec := range records {
			ts, err := rec.Time()
			if err != nil {
				continue
			}
			if !ts.Before(cutoff) {
				kept = append(kept, rec)
			}
		}
	case lines != nil && *lines > 0:
		if *lines < len(kept) {
			kept = kept[len(kept)-*lines:]
		}
	}

	parts := make([]string, 0, len(kept))
	for _, rec := range kept {
		parts = append(parts, rec.Line)
	}

	return &model.LogsResult{
		LogFile:       logFile,
		TotalLines:    total,
		LinesReturned: len(kept),
		Content:       strings.Join(parts, "\n"),
	}, nil
}
