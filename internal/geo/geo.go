// Package geo validates optional coordinates attached to items, groups and profiles.
package geo

import (
	"errors"
	"math"
)

var (
	ErrPartialLocation = errors.New("latitude and longitude must be set together")
	ErrInvalidLocation = errors.New("latitude must be within [-90, 90] and longitude within [-180, 180]")
)

// Validate checks an optional coordinate pair. Both nil is valid.
func Validate(lat, lng *float64) error {
	if lat == nil && lng == nil {
		return nil
	}
	if lat == nil || lng == nil {
		return ErrPartialLocation
	}
	if !Valid(*lat, *lng) {
		return ErrInvalidLocation
	}
	return nil
}

// Valid reports whether lat/lng is a finite point on the globe.
func Valid(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// IsError reports whether err came from Validate.
func IsError(err error) bool {
	return errors.Is(err, ErrPartialLocation) || errors.Is(err, ErrInvalidLocation)
}
