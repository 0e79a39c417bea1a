package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain date", in: "2025-01-02", want: "2025-01-02"},
		{name: "strips T time component", in: "2025-01-02T10:30:00Z", want: "2025-01-02"},
		{name: "strips space time component", in: "2025-01-02 10:30:00", want: "2025-01-02"},
		{name: "trims whitespace", in: "  2025-12-31  ", want: "2025-12-31"},
		{name: "rejects garbage", in: "not-a-date", wantErr: true},
		{name: "rejects empty", in: "", wantErr: true},
		{name: "rejects month overflow", in: "2025-13-01", wantErr: true},
		{name: "rejects short form", in: "2025-1-2", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeDate(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRecordDetailCompletion(t *testing.T) {
	t.Run("set-based with zero sets is never completed", func(t *testing.T) {
		d := &RecordDetail{Kind: KindSetBased}
		d.Record.IsCompleted = true // flag is meaningless for set-based
		assert.False(t, d.Completed())
	})

	t.Run("set-based requires every set completed", func(t *testing.T) {
		d := &RecordDetail{
			Kind: KindSetBased,
			Sets: []WorkoutSet{{SetNumber: 1, IsCompleted: true}, {SetNumber: 2}},
		}
		assert.False(t, d.Completed())
		d.Sets[1].IsCompleted = true
		assert.True(t, d.Completed())
	})

	t.Run("time-based uses the record flag", func(t *testing.T) {
		d := &RecordDetail{Kind: KindTimeBased}
		assert.False(t, d.Completed())
		d.Record.IsCompleted = true
		assert.True(t, d.Completed())
	})

	t.Run("free-text uses the record flag", func(t *testing.T) {
		d := &RecordDetail{Kind: KindFreeText}
		d.Record.IsCompleted = true
		assert.True(t, d.Completed())
	})
}

func TestEffortLevelValid(t *testing.T) {
	assert.True(t, LevelHigh.Valid())
	assert.True(t, LevelMedium.Valid())
	assert.True(t, LevelLow.Valid())
	assert.False(t, EffortLevel("extreme").Valid())
	assert.False(t, EffortLevel("").Valid())
}
