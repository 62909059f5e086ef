package solar

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// CivilZenith is the sun elevation angle defining sunrise and sunset.
const CivilZenith = 90.83333

var (
	// ErrPolarDay is returned when the sun does not set on the given date.
	ErrPolarDay = errors.New("sun never sets")
	// ErrPolarNight is returned when the sun does not rise on the given date.
	ErrPolarNight = errors.New("sun never rises")
)

// RangeError reports a location and date outside the sunrise equation's domain.
type RangeError struct {
	Latitude float64
	Date     time.Time
	CosH     float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("latitude %.2f on %s: %v (cos H = %.3f)", e.Latitude, e.Date.Format("2006-01-02"), e.Unwrap(), e.CosH)
}

func (e *RangeError) Unwrap() error {
	if e.CosH > 1 {
		return ErrPolarNight
	}
	return ErrPolarDay
}

// SunriseSunset returns local sunrise and sunset on t's date at the given
// location. The UTC offset is taken from t's zone.
func SunriseSunset(latitude, longitude float64, t time.Time) (sunrise, sunset time.Time, err error) {
	_, offsetSec := t.Zone()
	offset := float64(offsetSec) / 3600
	day := t.YearDay()

	riseHour, err := eventHour(latitude, longitude, day, offset, true)
	if err != nil {
		return time.Time{}, time.Time{}, withDate(err, t)
	}
	setHour, err := eventHour(latitude, longitude, day, offset, false)
	if err != nil {
		return time.Time{}, time.Time{}, withDate(err, t)
	}

	return atHour(t, riseHour), atHour(t, setHour), nil
}

func withDate(err error, t time.Time) error {
	var re *RangeError
	if errors.As(err, &re) {
		re.Date = t
	}
	return err
}

// eventHour returns the local hour of sunrise (rising) or sunset.
func eventHour(latitude, longitude float64, day int, offset float64, rising bool) (float64, error) {
	baseHour := 18.0
	if rising {
		baseHour = 6
	}

	// approximate time
	lngHour := longitude / 15
	t := float64(day) + (baseHour-lngHour)/24

	// mean anomaly and true longitude
	m := 0.9856*t - 3.289
	l := normalize(m+1.916*sinDeg(m)+0.020*sinDeg(2*m)+282.634, 360)

	// right ascension, in the same quadrant as l
	ra := normalize(radToDeg(math.Atan(0.91764*tanDeg(l))), 360)
	ra += math.Floor(l/90)*90 - math.Floor(ra/90)*90
	ra /= 15

	// declination
	sinDec := 0.39782 * sinDeg(l)
	cosDec := math.Cos(math.Asin(sinDec))

	// local hour angle
	cosH := (cosDeg(CivilZenith) - sinDec*sinDeg(latitude)) / (cosDec * cosDeg(latitude))
	if cosH > 1 || cosH < -1 {
		return 0, &RangeError{Latitude: latitude, CosH: cosH}
	}

	h := radToDeg(math.Acos(cosH))
	if rising {
		h = 360 - h
	}
	h /= 15

	localMean := h + ra - 0.06571*t - 6.622
	ut := normalize(localMean-lngHour, 24)

	return normalize(ut+offset, 24), nil
}

// atHour places a fractional hour on t's date, truncated to the minute.
func atHour(t time.Time, hour float64) time.Time {
	h := math.Floor(hour)
	minute := math.Floor((hour - h) * 60)
	return time.Date(t.Year(), t.Month(), t.Day(), int(h), int(minute), 0, 0, t.Location())
}

// normalize maps x into [0, m).
func normalize(x, m float64) float64 {
	v := math.Mod(x, m)
	if v < 0 {
		v += m
	}
	return v
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }
func radToDeg(r float64) float64 { return r * 180 / math.Pi }
func sinDeg(d float64) float64   { return math.Sin(degToRad(d)) }
func cosDeg(d float64) float64   { return math.Cos(degToRad(d)) }
func tanDeg(d float64) float64   { return math.Tan(degToRad(d)) }
