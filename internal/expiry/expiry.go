package expiry

import (
	"time"

	"github.com/Stevenalenga/plink-sub000/internal/apperr"
)

// Option is the owner-chosen expiration mode for a location or route.
type Option string

const (
	OptionNever  Option = "never"
	Option24h    Option = "24h"
	OptionCustom Option = "custom"
)

const (
	minCustomHours = 1
	maxCustomHours = 720
)

// Compute resolves an option to an absolute deadline. Custom hours are clamped
// to [1, 720]. A nil result means the record never expires.
func Compute(option Option, customHours int, now time.Time) (*time.Time, error) {
	switch option {
	case OptionNever, "":
		return nil, nil
	case Option24h:
		at := now.Add(24 * time.Hour)
		return &at, nil
	case OptionCustom:
		if customHours < minCustomHours {
			customHours = minCustomHours
		}
		if customHours > maxCustomHours {
			customHours = maxCustomHours
		}
		at := now.Add(time.Duration(customHours) * time.Hour)
		return &at, nil
	default:
		return nil, apperr.InvalidArgument("unknown expiration option %q", option)
	}
}

// Expired reports whether a deadline has passed. Records without a deadline
// never expire here; the public-location sweep is a separate mechanism.
func Expired(expiresAt *time.Time, now time.Time) bool {
	return expiresAt != nil && !now.Before(*expiresAt)
}
