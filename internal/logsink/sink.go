package logsink

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// timestampLayout is used for the file name suffix.
const timestampLayout = "20060102-150405"

// Options configures a Sink.
type Options struct {
	// Dir is the directory holding the log files.
	Dir string
	// Now stamps the log file names. Zero means time.Now().
	Now time.Time
	// Console, when set, receives every line including debug messages.
	Console io.Writer
	// Color enables colored level names on Console.
	Color bool
	// ErrorOutput receives write failures. Defaults to os.Stderr.
	ErrorOutput io.Writer
}

// Sink is a leveled, append-only text log backed by two files.
type Sink struct {
	logger *zap.Logger
	info   *lazyFile
	errs   *lazyFile
}

// FileNames returns the info and error log file names for a run started at now.
func FileNames(now time.Time) (string, string) {
	stamp := now.Format(timestampLayout)

	return "log_" + stamp + ".txt", "log_" + stamp + ".error.txt"
}

// fileEncoderConfig renders "<timestamp> - <message>" without a level column.
func fileEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "ts",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       utcTimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " - ",
	}
}

func utcTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format("2006-01-02T15:04:05.000Z07:00"))
}

// New creates the info log file and prepares the error log file, which is
// only created once the first error is written.
func New(opts Options) (*Sink, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	if opts.ErrorOutput == nil {
		opts.ErrorOutput = os.Stderr
	}

	infoName, errName := FileNames(opts.Now)

	sink := &Sink{
		info: &lazyFile{path: filepath.Join(opts.Dir, infoName)},
		errs: &lazyFile{path: filepath.Join(opts.Dir, errName)},
	}

	if err := sink.info.open(); err != nil {
		return nil, err
	}

	encoder := zapcore.NewConsoleEncoder(fileEncoderConfig())

	infoLevel := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= zapcore.InfoLevel && l < zapcore.ErrorLevel
	})
	errLevel := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= zapcore.ErrorLevel
	})

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, sink.info, infoLevel),
		zapcore.NewCore(encoder, sink.errs, errLevel),
	}

	if opts.Console != nil {
		cfg := fileEncoderConfig()
		cfg.LevelKey = "level"
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder

		if opts.Color {
			cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}

		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(cfg),
			zapcore.Lock(zapcore.AddSync(opts.Console)),
			zapcore.DebugLevel,
		))
	}

	sink.logger = zap.New(
		zapcore.NewTee(cores...),
		zap.ErrorOutput(zapcore.Lock(zapcore.AddSync(opts.ErrorOutput))),
	)

	return sink, nil
}

// Info appends msg to the info log.
func (s *Sink) Info(msg string) {
	s.logger.Info(msg)
}

// Infof formats and appends to the info log.
func (s *Sink) Infof(format string, args ...any) {
	s.logger.Info(fmt.Sprintf(format, args...))
}

// Error appends msg to the error log.
func (s *Sink) Error(msg string) {
	s.logger.Error(msg)
}

// Debug writes msg to the console only.
func (s *Sink) Debug(msg string) {
	s.logger.Debug(msg)
}

// InfoPath returns the path of the info log file.
func (s *Sink) InfoPath() string {
	return s.info.path
}

// ErrorPath returns the path of the error log file, which may not exist yet.
func (s *Sink) ErrorPath() string {
	return s.errs.path
}

// Close flushes and closes both log files.
func (s *Sink) Close() error {
	_ = s.logger.Sync() //nolint:errcheck // Syncing a terminal fails on some platforms

	return errors.Join(s.info.Close(), s.errs.Close())
}
