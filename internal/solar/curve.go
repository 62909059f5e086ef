package solar

import (
	"errors"
	"math"
	"time"
)

// Window is the span of daylight on one day. The zero Window contains no instant.
type Window struct {
	Sunrise time.Time
	Sunset  time.Time
}

// Daylight returns the daylight window for t's date. Polar day spans the
// whole calendar day, polar night yields the zero Window.
func Daylight(latitude, longitude float64, t time.Time) Window {
	rise, set, err := SunriseSunset(latitude, longitude, t)
	switch {
	case errors.Is(err, ErrPolarDay):
		start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		return Window{Sunrise: start, Sunset: start.AddDate(0, 0, 1)}
	case err != nil:
		return Window{}
	}

	// zones far from the location's meridian can push sunset past midnight
	if set.Before(rise) {
		set = set.Add(24 * time.Hour)
	}
	return Window{Sunrise: rise, Sunset: set}
}

// Contains reports whether now lies strictly between sunrise and sunset.
func (w Window) Contains(now time.Time) bool {
	return w.Sunrise.Before(now) && now.Before(w.Sunset)
}

// Length returns the duration of daylight.
func (w Window) Length() time.Duration {
	return w.Sunset.Sub(w.Sunrise)
}

// Production returns the output in watts of a panel with the given peak
// capacity. Output follows a cosine over the daylight window, peaking at its
// midpoint and zero outside it.
func Production(w Window, now time.Time, maxCapacityW float64) float64 {
	if !w.Contains(now) {
		return 0
	}

	elapsed := float64(now.Sub(w.Sunrise).Milliseconds())
	daylight := float64(w.Length().Milliseconds())
	degrees := elapsed*180/daylight - 90

	return math.Cos(degToRad(degrees)) * maxCapacityW
}
