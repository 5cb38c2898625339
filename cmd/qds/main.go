// Command qds formats and checks JSON text and saves documents to a quickstore.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/lattice-substrate/quickstore/config"
	"github.com/lattice-substrate/quickstore/qserr"
)

const (
	exitSuccess  = 0
	exitInvalid  = 2
	exitInternal = 10
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// cli carries the streams and global flags shared by every command.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configFile string
	storeKind  string
	storePath  string
	storeNode  string
	logLevel   string

	cfg    *config.Config
	logger log.Logger
}

func run(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr}

	app := kingpin.New("qds", "Format, verify and store JSON documents.")
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)
	terminated, exitCode := false, exitSuccess
	app.Terminate(func(code int) {
		if !terminated {
			terminated, exitCode = true, code
		}
	})

	app.Flag("config", "YAML configuration file.").StringVar(&c.configFile)
	app.Flag("store.kind", "Store kind: file, bolt or memory. Overrides the config file.").StringVar(&c.storeKind)
	app.Flag("store.path", "Store location. Overrides the config file.").StringVar(&c.storePath)
	app.Flag("store.node", "Preference store node. Overrides the config file.").StringVar(&c.storeNode)
	app.Flag("log.level", "Log level: debug, info, warn or error. Overrides the config file.").StringVar(&c.logLevel)

	addCanonicalizeCommand(app, c)
	addPrettyCommand(app, c)
	addVerifyCommand(app, c)
	addSaveCommand(app, c)
	addLoadCommand(app, c)

	_, err := app.Parse(args)
	if terminated {
		return exitCode
	}
	if err == nil {
		return exitSuccess
	}

	var qe *qserr.Error
	if !errors.As(err, &qe) {
		// Anything that is not ours came from kingpin's argument parsing.
		if werr := writef(stderr, "error: %v\n", err); werr != nil {
			return exitInternal
		}
		app.Usage(args)
		return exitInvalid
	}
	if c.logger != nil {
		level.Debug(c.logger).Log("msg", "command failed", "class", qe.Class, "err", err)
	}
	if werr := writef(stderr, "error: %v\n", err); werr != nil {
		return exitInternal
	}
	return qe.Class.ExitCode()
}

// setup loads the configuration, applies flag overrides and builds the
// logger. It runs once, from the first command action that needs it.
func (c *cli) setup() error {
	if c.cfg != nil {
		return nil
	}
	cfg := config.Default()
	if c.configFile != "" {
		loaded, err := config.Load(c.configFile)
		if err != nil {
			return qserr.Wrap(qserr.CLIUsage, -1, "load configuration", err)
		}
		cfg = *loaded
	}
	if c.storeKind != "" {
		cfg.Store.Kind = c.storeKind
	}
	if c.storePath != "" {
		cfg.Store.Path = c.storePath
	}
	if c.storeNode != "" {
		cfg.Store.Node = c.storeNode
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return qserr.Wrap(qserr.CLIUsage, -1, "invalid configuration", err)
	}
	c.cfg = &cfg
	c.logger = newLogger(c.stderr, cfg.Log.Level)
	return nil
}

func newLogger(w io.Writer, lvl string) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = log.With(logger, "caller", log.DefaultCaller)
	var allow level.Option
	switch lvl {
	case config.LevelDebug:
		allow = level.AllowDebug()
	case config.LevelWarn:
		allow = level.AllowWarn()
	case config.LevelError:
		allow = level.AllowError()
	default:
		allow = level.AllowInfo()
	}
	return level.NewFilter(logger, allow)
}

func writeLine(w io.Writer, msg string) error {
	return writef(w, "%s\n", msg)
}

func writef(w io.Writer, format string, args ...any) error {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		return fmt.Errorf("write stream: %w", err)
	}
	return nil
}
