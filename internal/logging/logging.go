package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Init configures the global logger with two sinks: a console writer on
// stderr and a rotating file. It runs before config.Load, so the binary-
// relative .env is read here to make LOGS_FOLDER available in time.
func Init(verbose bool) {
	exeDir := ""
	if exePath, err := os.Executable(); err == nil {
		exeDir = filepath.Dir(exePath)
		_ = godotenv.Load(filepath.Join(exeDir, ".env"))
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	multi := zerolog.MultiLevelWriter(consoleWriter(), fileWriter(exeDir))
	log.Logger = zerolog.New(multi).With().Timestamp().Logger()
}

func consoleWriter() io.Writer {
	isTerminal := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	return zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal,
	}
}

// fileWriter sets up the rotating log file. The MCP transport owns stdout
// and stderr may be discarded by the host, so a broken file sink would mean
// no logs at all; failures here are fatal on purpose.
func fileWriter(exeDir string) io.Writer {
	logDir := os.Getenv("LOGS_FOLDER")
	if logDir == "" {
		logDir = "logs"
		if exeDir != "" {
			logDir = filepath.Join(exeDir, "logs")
		}
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create log directory %q: %v\n", logDir, err)
		os.Exit(1)
	}

	// MkdirAll also succeeds on a pre-existing read-only directory, so probe
	// writability directly.
	probe := filepath.Join(logDir, ".write-test")
	if err := os.WriteFile(probe, []byte("test"), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: log directory %q is not writable: %v\n", logDir, err)
		os.Exit(1)
	}
	_ = os.Remove(probe)

	return &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "adokpi.log"),
		MaxSize:    16, // megabytes
		MaxBackups: 32,
		MaxAge:     365, // days
		Compress:   true,
	}
}
