package gallery

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/palmvec/blobstore"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultPointerName is the blob holding the name of the current snapshot.
	DefaultPointerName = "CURRENT"
	// DefaultSnapshotPrefix is the directory snapshots are written under.
	DefaultSnapshotPrefix = "snapshots/"
)

// StoreOptions configures a Store.
type StoreOptions struct {
	PointerName string
	Prefix      string
	Snapshot    SnapshotOptions
	// Now is the clock used to name snapshots.
	Now func() time.Time
}

// Store persists gallery snapshots to a blob store.
//
// Save writes a new immutable snapshot blob and then commits its name to the
// pointer blob. Readers only follow the pointer, so a crash between the two
// writes leaves the previous snapshot current.
type Store struct {
	blobs blobstore.BlobStore
	opts  StoreOptions

	group singleflight.Group

	mu       sync.Mutex
	lastName string
}

// NewStore creates a snapshot store over blobs.
func NewStore(blobs blobstore.BlobStore, optFns ...func(o *StoreOptions)) *Store {
	opts := StoreOptions{
		PointerName: DefaultPointerName,
		Prefix:      DefaultSnapshotPrefix,
		Snapshot:    DefaultSnapshotOptions(),
		Now:         time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Store{blobs: blobs, opts: opts}
}

func (s *Store) snapshotOpts(o *SnapshotOptions) {
	*o = s.opts.Snapshot
}

func (s *Store) nextName() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	nanos := s.opts.Now().UnixNano()
	name := fmt.Sprintf("%sgallery-%d.bin", s.opts.Prefix, nanos)
	for compareSnapshotNames(name, s.lastName) <= 0 {
		nanos++
		name = fmt.Sprintf("%sgallery-%d.bin", s.opts.Prefix, nanos)
	}
	s.lastName = name
	return name
}

// Save writes a snapshot of g and makes it current. It returns the snapshot name.
func (s *Store) Save(ctx context.Context, g *Gallery) (string, error) {
	data, err := Encode(g, s.snapshotOpts)
	if err != nil {
		return "", err
	}

	name := s.nextName()
	if err := s.blobs.Put(ctx, name, data); err != nil {
		return "", fmt.Errorf("gallery: write snapshot %s: %w", name, err)
	}
	if err := s.blobs.Put(ctx, s.opts.PointerName, []byte(name)); err != nil {
		return "", fmt.Errorf("gallery: commit %s: %w", name, err)
	}
	return name, nil
}

// Current returns the name of the committed snapshot.
func (s *Store) Current(ctx context.Context) (string, error) {
	data, err := blobstore.ReadAll(ctx, s.blobs, s.opts.PointerName)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return "", ErrNoSnapshot
		}
		return "", err
	}
	name := strings.TrimSpace(string(data))
	if name == "" {
		return "", ErrNoSnapshot
	}
	return name, nil
}

// Load reads the named snapshot.
func (s *Store) Load(ctx context.Context, name string) (*Gallery, error) {
	data, err := blobstore.ReadAll(ctx, s.blobs, name)
	if err != nil {
		return nil, fmt.Errorf("gallery: read snapshot %s: %w", name, err)
	}
	return Decode(data, s.snapshotOpts)
}

// Latest loads the current snapshot. Concurrent calls share one blob read;
// each caller receives its own Gallery. The shared read is detached from the
// callers' cancellation, so a caller that gives up returns ctx.Err() without
// failing the others.
func (s *Store) Latest(ctx context.Context) (*Gallery, error) {
	readCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan("latest", func() (any, error) {
		name, err := s.Current(readCtx)
		if err != nil {
			return nil, err
		}
		data, err := blobstore.ReadAll(readCtx, s.blobs, name)
		if err != nil {
			return nil, fmt.Errorf("gallery: read snapshot %s: %w", name, err)
		}
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return Decode(res.Val.([]byte), s.snapshotOpts)
	}
}

// List returns snapshot names, oldest first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	names, err := s.blobs.List(ctx, s.opts.Prefix)
	if err != nil {
		return nil, err
	}
	out := names[:0]
	for _, n := range names {
		if strings.HasSuffix(n, ".bin") {
			out = append(out, n)
		}
	}
	slices.SortFunc(out, compareSnapshotNames)
	return out, nil
}

// compareSnapshotNames orders by length first so that timestamps with
// different digit counts still sort numerically.
func compareSnapshotNames(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	return strings.Compare(a, b)
}

// Prune deletes all but the newest keep snapshots. The current snapshot is
// never deleted. It returns the number of blobs removed.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	names, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	current, err := s.Current(ctx)
	if err != nil && !errors.Is(err, ErrNoSnapshot) {
		return 0, err
	}

	keep = max(keep, 0)
	if len(names) <= keep {
		return 0, nil
	}

	removed := 0
	for _, n := range names[:len(names)-keep] {
		if n == current {
			continue
		}
		if err := s.blobs.Delete(ctx, n); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
