package artifact

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/cascade/pkg/adapters/memory"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewArtifactStore())
	ctx := context.Background()
	count := 1000

	for i := 0; i < count; i++ {
		_, _ = mgr.Put(ctx, fmt.Sprintf("artifact-%d", i), "out.txt", []byte("x"))
	}

	if lockCount := len(mgr.locks); lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining after writes", lockCount)
	}
}
