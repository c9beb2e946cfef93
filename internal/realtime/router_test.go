package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"socialhub/internal/apperr"
	"socialhub/internal/logger"
	"socialhub/internal/metrics"
	"socialhub/internal/mocks"
	"socialhub/internal/model"
	"socialhub/internal/store/badgerstore"
)

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []model.BroadcastEvent
}

func (b *recordingBroadcaster) Broadcast(ev model.BroadcastEvent) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	return 1
}

func (b *recordingBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func newBadgerRouter(t *testing.T, opts ...RouterOption) (*Router, *badgerstore.Store, *recordingBroadcaster, *metrics.Metrics) {
	t.Helper()
	st, err := badgerstore.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	dedup, err := NewDedupCache(16)
	require.NoError(t, err)

	b := &recordingBroadcaster{}
	m := metrics.New()
	return NewRouter(st, dedup, b, m, logger.Discard(), opts...), st, b, m
}

// TestSubmit_StoresThenBroadcasts 保存してから配信
func TestSubmit_StoresThenBroadcasts(t *testing.T) {
	req := require.New(t)
	ts := time.Date(2026, 4, 1, 9, 30, 0, 123456789, time.UTC)
	r, st, b, m := newBadgerRouter(t, WithClock(fixedClock(ts)))

	msg, err := r.Submit(context.Background(), metrics.IngressREST, "alice", "bob", "hi")
	req.NoError(err)
	req.Equal(ts.Truncate(time.Millisecond), msg.Timestamp)

	stored, err := st.FetchConversation(context.Background(), "bob", "alice")
	req.NoError(err)
	req.Len(stored, 1)
	req.Equal(msg, stored[0])

	req.Equal(1, b.count())
	req.Equal(model.NewBroadcastEvent(msg), b.events[0])
	req.Equal(1.0, testutil.ToFloat64(m.MessagesSubmitted.WithLabelValues(metrics.IngressREST)))
}

// TestSubmit_DuplicateAcrossIngress REST と WebSocket の重複は一度だけ配信
func TestSubmit_DuplicateAcrossIngress(t *testing.T) {
	req := require.New(t)
	ts := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	r, st, b, m := newBadgerRouter(t, WithClock(fixedClock(ts)))
	ctx := context.Background()

	_, err := r.Submit(ctx, metrics.IngressREST, "alice", "bob", "hi")
	req.NoError(err)
	_, err = r.Submit(ctx, metrics.IngressWebSocket, "alice", "bob", "hi")
	req.NoError(err)

	req.Equal(1, b.count(), "one broadcast")
	req.Equal(1.0, testutil.ToFloat64(m.MessagesDuplicate))

	stored, err := st.FetchConversation(ctx, "alice", "bob")
	req.NoError(err)
	req.Len(stored, 2, "the duplicate is still stored")
}

// TestSubmit_DistinctTimestamps 時刻が異なれば別メッセージ
func TestSubmit_DistinctTimestamps(t *testing.T) {
	req := require.New(t)
	ts := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	r, _, b, _ := newBadgerRouter(t, WithClock(func() time.Time {
		ts = ts.Add(time.Second)
		return ts
	}))

	for i := 0; i < 2; i++ {
		_, err := r.Submit(context.Background(), metrics.IngressREST, "alice", "bob", "hi")
		req.NoError(err)
	}
	req.Equal(2, b.count())
}

// TestSubmit_NoConnections 接続なしでも保存
func TestSubmit_NoConnections(t *testing.T) {
	req := require.New(t)
	st, err := badgerstore.Open("")
	req.NoError(err)
	t.Cleanup(func() { _ = st.Close() })
	dedup, err := NewDedupCache(16)
	req.NoError(err)

	m := metrics.New()
	reg := NewRegistry(m, logger.Discard())
	r := NewRouter(st, dedup, reg, m, logger.Discard())

	_, err = r.Submit(context.Background(), metrics.IngressREST, "alice", "bob", "nobody listening")
	req.NoError(err)

	stored, err := st.FetchConversation(context.Background(), "alice", "bob")
	req.NoError(err)
	req.Len(stored, 1)
}

// TestSubmit_Validation 必須項目チェック
func TestSubmit_Validation(t *testing.T) {
	r, _, b, _ := newBadgerRouter(t)
	for _, tc := range []struct{ sender, receiver, body string }{
		{"", "bob", "hi"},
		{"alice", " ", "hi"},
		{"alice", "bob", ""},
	} {
		_, err := r.Submit(context.Background(), metrics.IngressREST, tc.sender, tc.receiver, tc.body)
		require.True(t, apperr.IsValidation(err), "%+v: %v", tc, err)
	}
	require.Equal(t, 0, b.count())
}

// TestSubmit_AppendFailureBlocksBroadcast 保存失敗時は配信しない
func TestSubmit_AppendFailureBlocksBroadcast(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	st := mocks.NewMockMessageStore(ctrl)
	st.EXPECT().AppendMessage(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	dedup, err := NewDedupCache(16)
	req.NoError(err)
	b := &recordingBroadcaster{}
	m := metrics.New()
	r := NewRouter(st, dedup, b, m, logger.Discard())

	_, err = r.Submit(context.Background(), metrics.IngressWebSocket, "alice", "bob", "hi")
	req.ErrorIs(err, apperr.ErrStore)
	req.Equal(500, apperr.HTTPStatus(err))
	req.Equal(0, b.count())
	req.Equal(0, dedup.Len(), "failed messages are not fingerprinted")
	req.Equal(1.0, testutil.ToFloat64(m.StoreErrors.WithLabelValues("messages.append")))
}

// TestSubmit_StoreTimeout 保存タイムアウト
func TestSubmit_StoreTimeout(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	st := mocks.NewMockMessageStore(ctrl)
	st.EXPECT().AppendMessage(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ model.Message) error {
			<-ctx.Done()
			return ctx.Err()
		})

	dedup, err := NewDedupCache(16)
	req.NoError(err)
	r := NewRouter(st, dedup, &recordingBroadcaster{}, metrics.New(), logger.Discard(),
		WithStoreTimeout(20*time.Millisecond))

	_, err = r.Submit(context.Background(), metrics.IngressREST, "alice", "bob", "hi")
	req.ErrorIs(err, context.DeadlineExceeded)
}
