package service

import (
	"testing"

	"github.com/albertelmo/goodlift-sub001/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func levelPtr(l domain.EffortLevel) *domain.EffortLevel { return &l }

func TestValidateRecordView(t *testing.T) {
	cases := []struct {
		name    string
		view    recordView
		wantErr string
	}{
		{
			name: "structured with type is valid",
			view: recordView{HasType: true},
		},
		{
			name:    "structured without type",
			view:    recordView{},
			wantErr: "type is required",
		},
		{
			name:    "structured with free text",
			view:    recordView{HasType: true, TextContent: "felt great"},
			wantErr: "structured record cannot carry free text",
		},
		{
			name: "free-text with content is valid",
			view: recordView{IsTextRecord: true, TextContent: "easy jog"},
		},
		{
			name: "free-text with only a level is valid",
			view: recordView{IsTextRecord: true, FatigueLevel: levelPtr(domain.LevelHigh)},
		},
		{
			name:    "free-text with type",
			view:    recordView{IsTextRecord: true, HasType: true, TextContent: "x"},
			wantErr: "free-text record cannot have a workout type",
		},
		{
			name:    "free-text with neither content nor status",
			view:    recordView{IsTextRecord: true},
			wantErr: "free-text record needs content or status",
		},
		{
			name:    "bad condition level",
			view:    recordView{HasType: true, ConditionLevel: levelPtr("extreme")},
			wantErr: "conditionLevel must be one of high, medium, low",
		},
		{
			name:    "bad intensity level",
			view:    recordView{HasType: true, IntensityLevel: levelPtr("mid")},
			wantErr: "intensityLevel must be one of high, medium, low",
		},
		{
			name:    "bad fatigue level",
			view:    recordView{HasType: true, FatigueLevel: levelPtr("none")},
			wantErr: "fatigueLevel must be one of high, medium, low",
		},
		{
			name: "all levels valid on structured record",
			view: recordView{
				HasType:        true,
				ConditionLevel: levelPtr(domain.LevelHigh),
				IntensityLevel: levelPtr(domain.LevelMedium),
				FatigueLevel:   levelPtr(domain.LevelLow),
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateRecordView(tc.view)
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestNormalizeRange(t *testing.T) {
	start, end, err := normalizeRange("2025-01-01", "2025-01-31")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", start)
	assert.Equal(t, "2025-01-31", end)

	start, end, err = normalizeRange("", "")
	require.NoError(t, err)
	assert.Empty(t, start)
	assert.Empty(t, end)

	_, _, err = normalizeRange("2025-02-01", "2025-01-01")
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = normalizeRange("bogus", "2025-01-01")
	assert.ErrorIs(t, err, ErrValidation)
}
