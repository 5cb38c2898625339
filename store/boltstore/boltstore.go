// Package boltstore is a preference store: a bbolt database in which each
// node is a bucket of key/value pairs.
//
// A node groups the values of one application. Several Store handles for
// different nodes may share a single database through Store.Node.
package boltstore

import (
	"context"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/lattice-substrate/quickstore/qserr"
	"github.com/lattice-substrate/quickstore/store"
)

// DefaultOpenTimeout bounds how long Open waits for the database file lock.
const DefaultOpenTimeout = 5 * time.Second

// Store is a store.ValueStore over one bucket of a bbolt database.
type Store struct {
	db     *bbolt.DB
	node   []byte
	logger log.Logger
}

type options struct {
	timeout time.Duration
	perm    os.FileMode
	noSync  bool
	logger  log.Logger
}

// Option configures Open.
type Option func(*options)

// WithTimeout sets how long Open waits for the file lock. Zero waits forever.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithPermissions sets the mode of a newly created database file.
func WithPermissions(perm os.FileMode) Option {
	return func(o *options) { o.perm = perm }
}

// WithNoSync skips fsync after each commit. Only for scratch databases.
func WithNoSync() Option {
	return func(o *options) { o.noSync = true }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Open opens (creating if needed) the database at path and returns a Store
// for node. An empty node is replaced by DefaultNode("").
func Open(path, node string, opts ...Option) (*Store, error) {
	o := options{timeout: DefaultOpenTimeout, perm: 0o600, logger: log.NewNopLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	if node == "" {
		node = DefaultNode("")
	}

	db, err := bbolt.Open(path, o.perm, &bbolt.Options{Timeout: o.timeout})
	if err != nil {
		return nil, ioError(errors.Wrapf(err, "open preference database %s", path))
	}
	db.NoSync = o.noSync

	logger := log.With(o.logger, "component", "boltstore", "path", path)
	level.Debug(logger).Log("msg", "opened preference database", "node", node)
	return &Store{db: db, node: []byte(node), logger: logger}, nil
}

// DefaultNode derives a node name from an application name by keeping only
// its letters. A name without letters yields "quickstore".
func DefaultNode(app string) string {
	name := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return -1
	}, app)
	if name == "" {
		return "quickstore"
	}
	return name
}

// Node returns a Store for another node of the same database. Closing any
// of the handles closes the database for all of them.
func (s *Store) Node(node string) *Store {
	if node == "" {
		node = DefaultNode("")
	}
	return &Store{db: s.db, node: []byte(node), logger: s.logger}
}

// Name returns the node this Store reads and writes.
func (s *Store) Name() string { return string(s.node) }

// Close closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return ioError(errors.Wrap(err, "close preference database"))
	}
	return nil
}

// WriteValue implements store.ValueStore.
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
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.node)
		if err != nil {
			return errors.Wrapf(err, "create node %q", s.node)
		}
		return b.Put([]byte(key), []byte(value))
	})
	if err != nil {
		return ioError(errors.Wrapf(err, "write %q", key))
	}
	return nil
}

// LoadValue implements store.ValueStore.
func (s *Store) LoadValue(ctx context.Context, key string) (string, bool, error) {
	if err := store.ValidateKey(key); err != nil {
		return "", false, err
	}
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	var (
		value string
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.node)
		if b == nil {
			return nil
		}
		// Get's slice is only valid inside the transaction.
		if v := b.Get([]byte(key)); v != nil {
			value, found = string(v), true
		}
		return nil
	})
	if err != nil {
		return "", false, ioError(errors.Wrapf(err, "read %q", key))
	}
	return value, found, nil
}

// Remove deletes key from the node. Removing an absent key is not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.node)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
	if err != nil {
		return ioError(errors.Wrapf(err, "remove %q", key))
	}
	return nil
}

// Keys returns the keys of the node in byte order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var keys []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.node)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, ioError(errors.Wrap(err, "list keys"))
	}
	return keys, nil
}

// Nodes returns the names of all nodes in the database.
func (s *Store) Nodes(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var nodes []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			nodes = append(nodes, string(name))
			return nil
		})
	})
	if err != nil {
		return nil, ioError(errors.Wrap(err, "list nodes"))
	}
	return nodes, nil
}

func ioError(err error) error {
	return qserr.Wrap(qserr.IOError, -1, "preference store", err)
}
