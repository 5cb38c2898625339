// Package quickstore saves and loads Go values under string keys.
//
// A Store encodes each value as an envelope document with a
// mapper.Registry and hands the text to a store.ValueStore. There is no
// package-level instance: callers create a Store and pass it where it is
// needed.
package quickstore

import (
	"context"
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/lattice-substrate/quickstore/config"
	"github.com/lattice-substrate/quickstore/jsonfmt"
	"github.com/lattice-substrate/quickstore/jsontoken"
	"github.com/lattice-substrate/quickstore/jsonvalue"
	"github.com/lattice-substrate/quickstore/mapper"
	"github.com/lattice-substrate/quickstore/qserr"
	"github.com/lattice-substrate/quickstore/store"
	"github.com/lattice-substrate/quickstore/store/boltstore"
	"github.com/lattice-substrate/quickstore/store/filestore"
)

// Store is a handle over one value store. It is safe for concurrent use when
// the underlying ValueStore is.
type Store struct {
	values    store.ValueStore
	reg       *mapper.Registry
	logger    log.Logger
	parseOpts *jsontoken.Options
	closer    io.Closer
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithParserOptions sets the limits used when loading documents.
func WithParserOptions(opts *jsontoken.Options) Option {
	return func(s *Store) { s.parseOpts = opts }
}

// WithCloser makes Close release c.
func WithCloser(c io.Closer) Option {
	return func(s *Store) { s.closer = c }
}

// New returns a Store over values. A nil reg is replaced by an empty
// Registry, which handles primitives and lists of primitives only.
func New(values store.ValueStore, reg *mapper.Registry, opts ...Option) *Store {
	if reg == nil {
		reg = mapper.NewRegistry()
	}
	s := &Store{values: values, reg: reg, logger: log.NewNopLogger()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// OpenFromConfig builds a Store from the store section of cfg.
func OpenFromConfig(cfg *config.Config, reg *mapper.Registry, logger log.Logger) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, qserr.Wrap(qserr.CLIUsage, -1, "invalid configuration", err)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	opts := []Option{WithLogger(logger), WithParserOptions(cfg.ParserOptions())}

	var values store.ValueStore
	switch cfg.Store.Kind {
	case config.KindMemory:
		values = store.NewMemory()
	case config.KindFile, config.KindBolt:
		path, err := cfg.Store.ResolvedPath()
		if err != nil {
			return nil, qserr.Wrap(qserr.IOError, -1, "resolve store path", err)
		}
		if cfg.Store.Kind == config.KindFile {
			values = filestore.New(path, filestore.WithLogger(logger))
			break
		}
		db, err := boltstore.Open(path, cfg.Store.Node,
			boltstore.WithTimeout(cfg.Store.Timeout), boltstore.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		values = db
		opts = append(opts, WithCloser(db))
	}
	level.Debug(logger).Log("msg", "opened store", "kind", cfg.Store.Kind)
	return New(values, reg, opts...), nil
}

// Registry returns the Registry used to encode and decode values.
func (s *Store) Registry() *mapper.Registry { return s.reg }

// Close releases the underlying store, if it holds resources.
func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Save stores v under key, replacing any earlier value.
func (s *Store) Save(ctx context.Context, key string, v any) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}
	text, err := s.reg.Encode(v)
	if err != nil {
		return errors.Wrapf(err, "encode %q", key)
	}
	return s.write(ctx, key, text)
}

// Load returns the value stored under key. ok is false when nothing was
// saved under key.
func (s *Store) Load(ctx context.Context, key string) (v any, ok bool, err error) {
	text, ok, err := s.read(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	v, err = s.reg.Decode(text)
	if err != nil {
		return nil, false, errors.Wrapf(err, "decode %q", key)
	}
	return v, true, nil
}

// LoadInto decodes the record stored under key into rec.
func (s *Store) LoadInto(ctx context.Context, key string, rec mapper.Record) (bool, error) {
	text, ok, err := s.read(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := s.reg.DecodeInto(text, rec); err != nil {
		return false, errors.Wrapf(err, "decode %q", key)
	}
	return true, nil
}

// SaveDocument stores the compact text of an arbitrary value tree under key
// without an envelope.
func (s *Store) SaveDocument(ctx context.Context, key string, doc jsonvalue.Value) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}
	text, err := jsonfmt.Format(doc)
	if err != nil {
		return errors.Wrapf(err, "format %q", key)
	}
	return s.write(ctx, key, text)
}

// LoadDocument parses the text stored under key into a value tree.
func (s *Store) LoadDocument(ctx context.Context, key string) (jsonvalue.Value, bool, error) {
	text, ok, err := s.read(ctx, key)
	if err != nil || !ok {
		return jsonvalue.Value{}, false, err
	}
	doc, err := jsontoken.ParseWithOptions([]byte(text), s.parseOpts)
	if err != nil {
		return jsonvalue.Value{}, false, errors.Wrapf(err, "parse %q", key)
	}
	return doc, true, nil
}

func (s *Store) write(ctx context.Context, key, text string) error {
	if err := s.values.WriteValue(ctx, key, text); err != nil {
		level.Error(s.logger).Log("msg", "save failed", "key", key, "err", err)
		return errors.Wrapf(err, "save %q", key)
	}
	level.Debug(s.logger).Log("msg", "saved", "key", key, "bytes", len(text))
	return nil
}

func (s *Store) read(ctx context.Context, key string) (string, bool, error) {
	text, ok, err := s.values.LoadValue(ctx, key)
	if err != nil {
		level.Error(s.logger).Log("msg", "load failed", "key", key, "err", err)
		return "", false, errors.Wrapf(err, "load %q", key)
	}
	if !ok {
		level.Debug(s.logger).Log("msg", "key not stored", "key", key)
	}
	return text, ok, nil
}
