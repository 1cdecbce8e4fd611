package artifact_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/cascade/pkg/adapters/memory"
	"github.com/aretw0/cascade/pkg/artifact"
	"github.com/aretw0/cascade/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowStore records the peak number of concurrent writers.
type slowStore struct {
	*memory.ArtifactStore
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (s *slowStore) Put(ctx context.Context, key, name string, data []byte) (string, error) {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		prev := s.maxSeen.Load()
		if n <= prev || s.maxSeen.CompareAndSwap(prev, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	return s.ArtifactStore.Put(ctx, key, name, data)
}

func TestManager_SerialisesSameLocation(t *testing.T) {
	store := &slowStore{ArtifactStore: memory.NewArtifactStore()}
	mgr := artifact.NewManager(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mgr.Put(ctx, "doc", "specs.txt", []byte("v"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), store.maxSeen.Load(), "writes to one location must not overlap")
}

type recordingLocker struct {
	mu       sync.Mutex
	keys     []string
	released int
	fail     bool
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if l.fail {
		return nil, errors.New("lock unavailable")
	}
	l.mu.Lock()
	l.keys = append(l.keys, key)
	l.mu.Unlock()
	return func(ctx context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released++
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	mgr := artifact.NewManager(memory.NewArtifactStore(), artifact.WithLocker(locker))

	loc, err := mgr.Put(context.Background(), "doc", "brd.txt", []byte("x"))
	require.NoError(t, err)

	data, err := mgr.Get(context.Background(), loc)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
	assert.Equal(t, []string{"doc/brd.txt"}, locker.keys)
	assert.Equal(t, 1, locker.released)
}

func TestManager_LockFailure(t *testing.T) {
	mgr := artifact.NewManager(memory.NewArtifactStore(), artifact.WithLocker(&recordingLocker{fail: true}))

	_, err := mgr.Put(context.Background(), "doc", "brd.txt", []byte("x"))
	assert.ErrorContains(t, err, "distributed lock")
}
