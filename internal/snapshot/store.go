package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/gcbaptista/go-anagram-search/config"
	internalErrors "github.com/gcbaptista/go-anagram-search/internal/errors"
	"github.com/gcbaptista/go-anagram-search/internal/persistence"
)

// Store loads and saves corpus snapshots.
// Load returns internalErrors.ErrSnapshotNotFound when nothing has been saved yet.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, s *Snapshot) error
	String() string
}

// FileStore keeps the snapshot in a single local file.
type FileStore struct {
	path        string
	compression Compression
}

// NewFileStore creates a FileStore writing to path.
func NewFileStore(path string, compression Compression) *FileStore {
	return &FileStore{path: path, compression: compression}
}

// Load reads and decodes the snapshot file.
func (f *FileStore) Load(_ context.Context) (*Snapshot, error) {
	data, err := persistence.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, internalErrors.ErrSnapshotNotFound
		}
		return nil, err
	}
	return Decode(data)
}

// Save encodes s and atomically replaces the snapshot file.
func (f *FileStore) Save(_ context.Context, s *Snapshot) error {
	data, err := Encode(s, f.compression)
	if err != nil {
		return err
	}
	return persistence.WriteFileAtomic(f.path, data)
}

func (f *FileStore) String() string {
	return "file://" + f.path
}

// NATSOptions configures a NATSStore.
type NATSOptions struct {
	Bucket      string
	Object      string
	Compression Compression
	Storage     jetstream.StorageType
}

// NATSStore keeps the snapshot in a JetStream object store bucket so every
// replica connected to the same NATS cluster shares it.
type NATSStore struct {
	js   jetstream.JetStream
	opts NATSOptions

	mu  sync.Mutex
	obj jetstream.ObjectStore
}

// NewNATSStore creates a NATSStore. The bucket is created on first use.
func NewNATSStore(js jetstream.JetStream, opts NATSOptions) *NATSStore {
	return &NATSStore{js: js, opts: opts}
}

func (n *NATSStore) bucket(ctx context.Context) (jetstream.ObjectStore, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.obj != nil {
		return n.obj, nil
	}

	obj, err := n.js.ObjectStore(ctx, n.opts.Bucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		obj, err = n.js.CreateObjectStore(ctx, jetstream.ObjectStoreConfig{
			Bucket:      n.opts.Bucket,
			Description: "Anagram search corpus snapshots",
			Storage:     n.opts.Storage,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open object store %s: %w", n.opts.Bucket, err)
	}

	n.obj = obj
	return obj, nil
}

// Load fetches and decodes the snapshot object.
func (n *NATSStore) Load(ctx context.Context) (*Snapshot, error) {
	obj, err := n.bucket(ctx)
	if err != nil {
		return nil, err
	}

	data, err := obj.GetBytes(ctx, n.opts.Object)
	if err != nil {
		if errors.Is(err, jetstream.ErrObjectNotFound) {
			return nil, internalErrors.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to get snapshot object %s: %w", n.opts.Object, err)
	}
	return Decode(data)
}

// Save encodes s and replaces the snapshot object.
func (n *NATSStore) Save(ctx context.Context, s *Snapshot) error {
	obj, err := n.bucket(ctx)
	if err != nil {
		return err
	}

	data, err := Encode(s, n.opts.Compression)
	if err != nil {
		return err
	}
	if _, err := obj.PutBytes(ctx, n.opts.Object, data); err != nil {
		return fmt.Errorf("failed to put snapshot object %s: %w", n.opts.Object, err)
	}
	return nil
}

func (n *NATSStore) String() string {
	return "nats://" + n.opts.Bucket + "/" + n.opts.Object
}

// Open builds the Store described by settings. It returns a nil Store when
// snapshots are disabled. The returned close function releases any
// connection the store holds and is always safe to call.
func Open(settings config.SnapshotSettings) (Store, func(), error) {
	noop := func() {}

	compression, err := ParseCompression(settings.Compression)
	if err != nil {
		return nil, noop, err
	}

	switch settings.Kind {
	case "", config.SnapshotNone:
		return nil, noop, nil
	case config.SnapshotFile:
		return NewFileStore(settings.Path, compression), noop, nil
	case config.SnapshotNATS:
		nc, err := nats.Connect(settings.NATSURL,
			nats.Name("anagram-search"),
			nats.Timeout(5*time.Second),
			nats.RetryOnFailedConnect(true),
			nats.MaxReconnects(-1),
		)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to connect to NATS at %s: %w", settings.NATSURL, err)
		}
		js, err := jetstream.New(nc)
		if err != nil {
			nc.Close()
			return nil, noop, fmt.Errorf("failed to create JetStream context: %w", err)
		}
		log.Info("Using NATS snapshot store", "url", settings.NATSURL, "bucket", settings.Bucket)
		return NewNATSStore(js, NATSOptions{
			Bucket:      settings.Bucket,
			Object:      settings.Object,
			Compression: compression,
			Storage:     jetstream.FileStorage,
		}), nc.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown snapshot kind %q", settings.Kind)
	}
}
