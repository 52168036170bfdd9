package uploads

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aescanero/skillstream/pkg/adapters/storage/memory"
	"github.com/aescanero/skillstream/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeLister struct {
	uploads []domain.Upload
	err     error
	calls   atomic.Int32
	block   chan struct{}
}

func (f *fakeLister) ListResumes(ctx context.Context) ([]domain.Upload, error) {
	f.calls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.uploads, f.err
}

func uploadsWithIDs(ids ...int64) []domain.Upload {
	out := make([]domain.Upload, len(ids))
	for i, id := range ids {
		out[i] = domain.Upload{ID: id, Filename: "resume.pdf"}
	}
	return out
}

func TestRefresh_KeepsNewest(t *testing.T) {
	lister := &fakeLister{uploads: uploadsWithIDs(3, 12, 5, 1, 9)}
	svc := NewService(&Config{Limit: 3, Lister: lister, Store: memory.NewUploadsStore(0)})

	recent, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	ids := make([]int64, len(recent))
	for i, u := range recent {
		ids[i] = u.ID
	}
	assert.Equal(t, []int64{12, 9, 5}, ids)

	stored, err := svc.Recent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, recent, stored)
}

func TestRefresh_ListerError(t *testing.T) {
	lister := &fakeLister{err: errors.New("backend down")}
	svc := NewService(&Config{Lister: lister, Store: memory.NewUploadsStore(0)})

	_, err := svc.Refresh(context.Background())
	assert.ErrorContains(t, err, "backend down")

	recent, err := svc.Recent(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recent)
	assert.NotNil(t, recent)
}

func TestLoadRecentUploads_Coalesces(t *testing.T) {
	lister := &fakeLister{uploads: uploadsWithIDs(1), block: make(chan struct{})}
	svc := NewService(&Config{Lister: lister, Store: memory.NewUploadsStore(0)})

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		svc.Run(ctx)
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	svc.LoadRecentUploads()
	require.Eventually(t, func() bool {
		return lister.calls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	// One refresh is in flight; these merge into a single pending one
	for i := 0; i < 5; i++ {
		svc.LoadRecentUploads()
	}
	close(lister.block)

	require.Eventually(t, func() bool {
		return lister.calls.Load() == 2
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(2), lister.calls.Load())
}
