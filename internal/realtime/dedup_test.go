package realtime

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"socialhub/internal/model"
)

// TestDedupCache_SeenRecord 記録と検出
func TestDedupCache_SeenRecord(t *testing.T) {
	req := require.New(t)
	d, err := NewDedupCache(4)
	req.NoError(err)

	fp := model.Fingerprint{Timestamp: 1, Sender: "a", Receiver: "b", Body: "hi"}
	req.False(d.Seen(fp))
	d.Record(fp)
	req.True(d.Seen(fp))

	other := fp
	other.Timestamp = 2
	req.False(d.Seen(other), "distinct timestamps are distinct messages")
}

// TestDedupCache_EvictsOldest 上限超過で古いものから破棄
func TestDedupCache_EvictsOldest(t *testing.T) {
	req := require.New(t)
	d, err := NewDedupCache(2)
	req.NoError(err)

	for i := int64(1); i <= 3; i++ {
		req.False(d.CheckAndRecord(model.Fingerprint{Timestamp: i}))
	}
	req.Equal(2, d.Len())
	req.False(d.Seen(model.Fingerprint{Timestamp: 1}))
	req.True(d.Seen(model.Fingerprint{Timestamp: 3}))
}

// TestDedupCache_CheckAndRecordAtomic 検出と記録は不可分
func TestDedupCache_CheckAndRecordAtomic(t *testing.T) {
	d, err := NewDedupCache(0)
	require.NoError(t, err)

	fp := model.Fingerprint{Timestamp: 42, Sender: "a", Receiver: "b", Body: "same"}
	var fresh atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !d.CheckAndRecord(fp) {
				fresh.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), fresh.Load())
}
