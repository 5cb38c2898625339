// Package filestore keeps values in a flat text file of key=value lines.
//
// An update moves the current file aside to <path>.swap, streams the swap
// file into a fresh copy with the key's line replaced (or appended), and
// atomically installs the copy at path before removing the swap file. If the
// copy cannot be installed the swap file is moved back.
//
// On read, the last line whose key matches wins.
package filestore

import (
	"bufio"
	"context"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/renameio/v2"
	"github.com/pkg/errors"

	"github.com/lattice-substrate/quickstore/qserr"
	"github.com/lattice-substrate/quickstore/store"
)

// SwapSuffix is appended to the store path to name the swap file.
const SwapSuffix = ".swap"

// Store is a store.ValueStore backed by a single file. It is safe for
// concurrent use within one process.
type Store struct {
	path   string
	perm   os.FileMode
	logger log.Logger

	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for non-fatal problems such as a swap file
// that could not be removed.
func WithLogger(l log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithPermissions sets the mode of newly written store files. The default
// is 0600.
func WithPermissions(perm os.FileMode) Option {
	return func(s *Store) { s.perm = perm }
}

// New returns a Store that keeps its data at path. The file is created on
// the first write.
func New(path string, opts ...Option) *Store {
	s := &Store{path: path, perm: 0o600, logger: log.NewNopLogger()}
	for _, o := range opts {
		o(s)
	}
	s.logger = log.With(s.logger, "component", "filestore", "path", path)
	return s
}

// Path returns the location of the store file.
func (s *Store) Path() string { return s.path }

// WriteValue stores value under key, replacing every earlier line for key.
func (s *Store) WriteValue(ctx context.Context, key, value string) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}
	if err := store.ValidateValue(value); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	swap := s.path + SwapSuffix
	if err := os.Remove(swap); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ioError(errors.Wrapf(err, "remove stale swap file %s", swap))
	}

	hadFile := true
	if err := os.Rename(s.path, swap); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return ioError(errors.Wrapf(err, "move %s aside for writing", s.path))
		}
		hadFile = false
	}

	if err := s.rewrite(key, value, swap, hadFile); err != nil {
		if hadFile {
			s.restore(swap)
		}
		return ioError(err)
	}

	if hadFile {
		if err := os.Remove(swap); err != nil {
			level.Warn(s.logger).Log("msg", "unable to delete swap file", "swap", swap, "err", err)
		}
	}
	return nil
}

// rewrite installs a new store file built from the swap file (when present)
// with the line for key set to value.
func (s *Store) rewrite(key, value, swap string, hadFile bool) error {
	pf, err := renameio.NewPendingFile(s.path, renameio.WithPermissions(s.perm))
	if err != nil {
		return errors.Wrapf(err, "create pending file for %s", s.path)
	}
	defer func() {
		if cerr := pf.Cleanup(); cerr != nil {
			level.Warn(s.logger).Log("msg", "unable to clean up pending file", "err", cerr)
		}
	}()

	w := bufio.NewWriter(pf)
	entry := key + "=" + value
	written := false
	if hadFile {
		f, err := os.Open(swap)
		if err != nil {
			return errors.Wrapf(err, "open swap file %s", swap)
		}
		err = eachLine(f, func(line string) error {
			if matches(line, key) {
				line = entry
				written = true
			}
			return writeLine(w, line)
		})
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
		if err != nil {
			return errors.Wrapf(err, "copy swap file %s", swap)
		}
	}
	if !written {
		if err := writeLine(w, entry); err != nil {
			return errors.Wrap(err, "append entry")
		}
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, "flush store file")
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return errors.Wrapf(err, "replace %s", s.path)
	}
	return nil
}

// restore puts the swap file back after a failed rewrite.
func (s *Store) restore(swap string) {
	if err := os.Rename(swap, s.path); err != nil {
		level.Error(s.logger).Log("msg", "unable to restore store file from swap", "swap", swap, "err", err)
	}
}

// LoadValue returns the value of the last line for key. A missing store file
// holds no keys.
func (s *Store) LoadValue(ctx context.Context, key string) (string, bool, error) {
	if err := store.ValidateKey(key); err != nil {
		return "", false, err
	}
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, ioError(errors.Wrapf(err, "open %s", s.path))
	}
	defer func() { _ = f.Close() }()

	var (
		value string
		found bool
	)
	err = eachLine(f, func(line string) error {
		if matches(line, key) {
			value, found = line[len(key)+1:], true
		}
		return nil
	})
	if err != nil {
		return "", false, ioError(errors.Wrapf(err, "read %s", s.path))
	}
	return value, found, nil
}

func matches(line, key string) bool {
	return len(line) > len(key) && line[len(key)] == '=' && strings.HasPrefix(line, key)
}

// eachLine calls fn for every line of r without its line terminator. A final
// line without a terminator is still delivered.
func eachLine(r io.Reader, fn func(line string) error) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			if ferr := fn(line); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func writeLine(w *bufio.Writer, line string) error {
	if _, err := w.WriteString(line); err != nil {
		return err
	}
	return w.WriteByte('\n')
}

func ioError(err error) error {
	return qserr.Wrap(qserr.IOError, -1, "file store", err)
}
