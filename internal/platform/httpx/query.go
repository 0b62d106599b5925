package httpx

import (
	"fmt"
	"time"

	"github.com/zamzam-pos/zamzam-pos/internal/shared"
)

// ParseRange parses from/to query values (days or timestamps) into an
// inclusive window. Day values cover the whole day in loc.
func ParseRange(from, to string, loc *time.Location) (time.Time, time.Time, error) {
	if from == "" || to == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: both from and to are required", ErrValidation)
	}
	start, err := shared.ParseBound(from, loc, false)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	end, err := shared.ParseBound(to, loc, true)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: to precedes from", ErrValidation)
	}
	return start, end, nil
}
