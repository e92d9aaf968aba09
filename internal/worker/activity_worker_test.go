package worker

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeActivityStore struct {
	err error
	ids []int
	at  []time.Time
}

func (f *fakeActivityStore) BulkTouchLastActive(_ context.Context, ids []int, at []time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.ids = append(f.ids, ids...)
	f.at = append(f.at, at...)
	return nil
}

func TestCollapseKeepsLatestPerUser(t *testing.T) {
	ids, at := collapse([]ActivityEvent{
		{UserID: 4, At: 100},
		{UserID: 9, At: 150},
		{UserID: 4, At: 300},
		{UserID: 4, At: 200},
	})

	assert.Equal(t, []int{4, 9}, ids)
	require.Len(t, at, 2)
	assert.Equal(t, int64(300), at[0].Unix())
	assert.Equal(t, int64(150), at[1].Unix())
}

func TestCollapseEmpty(t *testing.T) {
	ids, at := collapse(nil)
	assert.Empty(t, ids)
	assert.Empty(t, at)
}

func TestFlushWritesCollapsedBatch(t *testing.T) {
	store := &fakeActivityStore{}
	w := &ActivityWorker{store: store, log: zerolog.New(io.Discard)}

	w.flush(context.Background(), []ActivityEvent{{UserID: 1, At: 10}, {UserID: 1, At: 20}, {UserID: 2, At: 5}})

	assert.Equal(t, []int{1, 2}, store.ids)
	assert.Equal(t, int64(20), store.at[0].Unix())
}
