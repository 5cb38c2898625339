package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log/level"

	"github.com/lattice-substrate/quickstore/jsonfmt"
	"github.com/lattice-substrate/quickstore/jsontoken"
	"github.com/lattice-substrate/quickstore/qserr"
	"github.com/lattice-substrate/quickstore/quickstore"
)

func addCanonicalizeCommand(app *kingpin.Application, c *cli) {
	var file string
	cmd := app.Command("canonicalize", "Read JSON (lenient syntax allowed) and write its canonical compact form to stdout.")
	cmd.Arg("file", "Input file, or - for stdin.").Default("-").StringVar(&file)
	cmd.Action(func(_ *kingpin.ParseContext) error {
		if err := c.setup(); err != nil {
			return err
		}
		input, err := c.readInput(file)
		if err != nil {
			return err
		}
		canonical, err := jsonfmt.CanonicalizeWithOptions(input, c.cfg.ParserOptions())
		if err != nil {
			return err
		}
		return c.writeOutput(canonical)
	})
}

func addPrettyCommand(app *kingpin.Application, c *cli) {
	var (
		file   string
		indent int
	)
	cmd := app.Command("pretty", "Read JSON and write it indented to stdout.")
	cmd.Flag("indent", "Spaces per nesting level. Defaults to format.indent from the configuration.").Default("-1").IntVar(&indent)
	cmd.Arg("file", "Input file, or - for stdin.").Default("-").StringVar(&file)
	cmd.Action(func(_ *kingpin.ParseContext) error {
		if err := c.setup(); err != nil {
			return err
		}
		if indent < 0 {
			indent = c.cfg.Format.Indent
		}
		input, err := c.readInput(file)
		if err != nil {
			return err
		}
		v, err := jsontoken.ParseWithOptions(input, c.cfg.ParserOptions())
		if err != nil {
			return err
		}
		out, err := jsonfmt.FormatPretty(v, indent)
		if err != nil {
			return err
		}
		return c.writeOutput([]byte(out + "\n"))
	})
}

func addVerifyCommand(app *kingpin.Application, c *cli) {
	var (
		file  string
		quiet bool
	)
	cmd := app.Command("verify", "Check that the input is already in canonical form.")
	cmd.Flag("quiet", "Suppress the success message.").Short('q').BoolVar(&quiet)
	cmd.Arg("file", "Input file, or - for stdin.").Default("-").StringVar(&file)
	cmd.Action(func(_ *kingpin.ParseContext) error {
		if err := c.setup(); err != nil {
			return err
		}
		input, err := c.readInput(file)
		if err != nil {
			return err
		}
		if err := jsonfmt.Verify(input); err != nil {
			return err
		}
		if quiet {
			return nil
		}
		if err := writeLine(c.stderr, "ok"); err != nil {
			return qserr.Wrap(qserr.IOError, -1, "write status", err)
		}
		return nil
	})
}

func addSaveCommand(app *kingpin.Application, c *cli) {
	var key, file string
	cmd := app.Command("save", "Parse a JSON document and store its compact form under a key.")
	cmd.Arg("key", "Store key.").Required().StringVar(&key)
	cmd.Arg("file", "Input file, or - for stdin.").Default("-").StringVar(&file)
	cmd.Action(func(_ *kingpin.ParseContext) error {
		if err := c.setup(); err != nil {
			return err
		}
		input, err := c.readInput(file)
		if err != nil {
			return err
		}
		doc, err := jsontoken.ParseWithOptions(input, c.cfg.ParserOptions())
		if err != nil {
			return err
		}
		s, err := quickstore.OpenFromConfig(c.cfg, nil, c.logger)
		if err != nil {
			return err
		}
		defer c.closeStore(s)
		if err := s.SaveDocument(context.Background(), key, doc); err != nil {
			return err
		}
		level.Info(c.logger).Log("msg", "saved document", "key", key, "store", c.cfg.Store.Kind)
		return nil
	})
}

func addLoadCommand(app *kingpin.Application, c *cli) {
	var (
		key     string
		compact bool
	)
	cmd := app.Command("load", "Print the document stored under a key.")
	cmd.Flag("compact", "Print compact instead of indented output.").BoolVar(&compact)
	cmd.Arg("key", "Store key.").Required().StringVar(&key)
	cmd.Action(func(_ *kingpin.ParseContext) error {
		if err := c.setup(); err != nil {
			return err
		}
		s, err := quickstore.OpenFromConfig(c.cfg, nil, c.logger)
		if err != nil {
			return err
		}
		defer c.closeStore(s)
		doc, ok, err := s.LoadDocument(context.Background(), key)
		if err != nil {
			return err
		}
		if !ok {
			return qserr.Newf(qserr.KeyNotFound, "no document stored under %q", key)
		}
		var out string
		if compact {
			out, err = jsonfmt.Format(doc)
		} else {
			out, err = jsonfmt.FormatPretty(doc, c.cfg.Format.Indent)
		}
		if err != nil {
			return err
		}
		return c.writeOutput([]byte(out + "\n"))
	})
}

func (c *cli) closeStore(s *quickstore.Store) {
	if err := s.Close(); err != nil {
		level.Warn(c.logger).Log("msg", "closing store failed", "err", err)
	}
}

func (c *cli) writeOutput(data []byte) error {
	if _, err := c.stdout.Write(data); err != nil {
		return qserr.Wrap(qserr.IOError, -1, "write output", err)
	}
	return nil
}

// readInput reads file, or stdin for "-", up to the configured size limit.
func (c *cli) readInput(file string) ([]byte, error) {
	maxSize := c.cfg.Parse.MaxInputSize
	if file == "-" {
		data, err := readBounded(c.stdin, maxSize)
		if err != nil {
			return nil, qserr.Wrap(qserr.CLIUsage, -1, "read stdin", err)
		}
		return data, nil
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, qserr.Wrap(qserr.CLIUsage, -1, fmt.Sprintf("read file %q", file), err)
	}
	defer func() { _ = f.Close() }()
	data, err := readBounded(f, maxSize)
	if err != nil {
		return nil, qserr.Wrap(qserr.CLIUsage, -1, fmt.Sprintf("read file %q", file), err)
	}
	return data, nil
}

func readBounded(r io.Reader, maxInputSize int) ([]byte, error) {
	lr := io.LimitReader(r, int64(maxInputSize)+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if len(data) > maxInputSize {
		return nil, fmt.Errorf("input exceeds maximum size %d bytes", maxInputSize)
	}
	return data, nil
}
