package logger

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the rotating log file.
type Options struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Setup points the standard logger at stdout and, when opts.File is set, at a
// rotating file as well. The returned closer flushes the file; it is a no-op
// without one.
func Setup(opts Options) io.Closer {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if opts.File == "" {
		log.SetOutput(os.Stdout)
		return nopCloser{}
	}

	rotator := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	log.Printf("[Logger] Writing logs to %s (max %dMB, %d backups)", opts.File, opts.MaxSizeMB, opts.MaxBackups)
	return rotator
}

// Writer returns the writer the standard logger currently uses, so gin can
// share it.
func Writer() io.Writer {
	return log.Writer()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
