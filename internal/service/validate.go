package service

import (
	"errors"
	"fmt"

	"github.com/albertelmo/goodlift-sub001/internal/domain"
)

// ErrValidation is the sentinel every caller-fixable input error wraps.
// Match with errors.Is.
var ErrValidation = errors.New("validation failed")

// recordView is the merged (existing ∪ incoming) view of the fields the
// structured/free-text exclusivity rule cares about. Both create and update
// funnel through validateRecordView so the rule cannot drift between them.
type recordView struct {
	IsTextRecord   bool
	HasType        bool
	TextContent    string
	ConditionLevel *domain.EffortLevel
	IntensityLevel *domain.EffortLevel
	FatigueLevel   *domain.EffortLevel
}

func validateRecordView(v recordView) error {
	if v.IsTextRecord {
		if v.HasType {
			return fmt.Errorf("%w: free-text record cannot have a workout type", ErrValidation)
		}
		if v.TextContent == "" && v.ConditionLevel == nil && v.IntensityLevel == nil && v.FatigueLevel == nil {
			return fmt.Errorf("%w: free-text record needs content or status", ErrValidation)
		}
	} else {
		if !v.HasType {
			return fmt.Errorf("%w: type is required", ErrValidation)
		}
		if v.TextContent != "" {
			return fmt.Errorf("%w: structured record cannot carry free text", ErrValidation)
		}
	}
	if err := validateLevel("conditionLevel", v.ConditionLevel); err != nil {
		return err
	}
	if err := validateLevel("intensityLevel", v.IntensityLevel); err != nil {
		return err
	}
	return validateLevel("fatigueLevel", v.FatigueLevel)
}

func validateLevel(field string, level *domain.EffortLevel) error {
	if level == nil || *level == "" {
		return nil
	}
	if !level.Valid() {
		return fmt.Errorf("%w: %s must be one of high, medium, low", ErrValidation, field)
	}
	return nil
}

// normalizeDate wraps domain.NormalizeDate into the validation taxonomy.
func normalizeDate(raw string) (string, error) {
	normalized, err := domain.NormalizeDate(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return normalized, nil
}
