package errortrack

import (
	"fmt"
	"testing"

	"github.com/dcallahan/interaction-management/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerCountsByFingerprint(t *testing.T) {
	tracker := New(10, nil)

	tracker.Track(domain.KindInternal, "boom", "svc.Do", true)
	tracker.Track(domain.KindInternal, "boom", "svc.Do", true)
	tracker.Track(domain.KindValidation, "bad input", "handler.Create", false)

	assert.Equal(t, 2, tracker.Len())

	records := tracker.Snapshot()
	require.Len(t, records, 2)
	assert.Equal(t, int64(2), records[0].Count)
	assert.Equal(t, "boom", records[0].Message)
	assert.True(t, records[0].Unhandled)
	assert.Equal(t, int64(1), records[1].Count)
	assert.False(t, records[1].Unhandled)
}

func TestTrackerEvictsOldest(t *testing.T) {
	tracker := New(3, nil)

	for i := 0; i < 4; i++ {
		tracker.Track(domain.KindInternal, fmt.Sprintf("err-%d", i), "svc", false)
	}

	assert.Equal(t, 3, tracker.Len())
	records := tracker.Snapshot()
	require.Len(t, records, 3)
	assert.Equal(t, "err-1", records[0].Message, "oldest fingerprint should be gone")
}

type captureForwarder struct {
	records []Record
}

func (f *captureForwarder) Forward(record Record) {
	f.records = append(f.records, record)
}

func TestTrackerForwardsUnhandled(t *testing.T) {
	fwd := &captureForwarder{}
	tracker := New(10, fwd)

	tracker.Track(domain.KindValidation, "handled", "h", false)
	tracker.Track(domain.KindInternal, "unhandled", "h", true)

	require.Len(t, fwd.records, 1)
	assert.Equal(t, "unhandled", fwd.records[0].Message)
}
