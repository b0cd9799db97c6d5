package marketdata

import (
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-router/pkg/errors"
)

// Interval is a bar size written the way Binance names them, e.g. "15m".
type Interval string

const (
	IntervalOneSecond      Interval = "1s"
	IntervalOneMinute      Interval = "1m"
	IntervalThreeMinutes   Interval = "3m"
	IntervalFiveMinutes    Interval = "5m"
	IntervalFifteenMinutes Interval = "15m"
	IntervalThirtyMinutes  Interval = "30m"
	IntervalOneHour        Interval = "1h"
	IntervalTwoHours       Interval = "2h"
	IntervalFourHours      Interval = "4h"
	IntervalSixHours       Interval = "6h"
	IntervalEightHours     Interval = "8h"
	IntervalTwelveHours    Interval = "12h"
	IntervalOneDay         Interval = "1d"
	IntervalThreeDays      Interval = "3d"
	IntervalOneWeek        Interval = "1w"
)

type intervalSpec struct {
	multiplier int
	timespan   models.Timespan
	unit       time.Duration
}

var intervals = map[Interval]intervalSpec{
	IntervalOneSecond:      {1, models.Second, time.Second},
	IntervalOneMinute:      {1, models.Minute, time.Minute},
	IntervalThreeMinutes:   {3, models.Minute, time.Minute},
	IntervalFiveMinutes:    {5, models.Minute, time.Minute},
	IntervalFifteenMinutes: {15, models.Minute, time.Minute},
	IntervalThirtyMinutes:  {30, models.Minute, time.Minute},
	IntervalOneHour:        {1, models.Hour, time.Hour},
	IntervalTwoHours:       {2, models.Hour, time.Hour},
	IntervalFourHours:      {4, models.Hour, time.Hour},
	IntervalSixHours:       {6, models.Hour, time.Hour},
	IntervalEightHours:     {8, models.Hour, time.Hour},
	IntervalTwelveHours:    {12, models.Hour, time.Hour},
	IntervalOneDay:         {1, models.Day, 24 * time.Hour},
	IntervalThreeDays:      {3, models.Day, 24 * time.Hour},
	IntervalOneWeek:        {1, models.Week, 7 * 24 * time.Hour},
}

// ParseInterval validates s.
func ParseInterval(s string) (Interval, error) {
	if _, ok := intervals[Interval(s)]; !ok {
		return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported interval %q", s)
	}

	return Interval(s), nil
}

func (i Interval) Multiplier() int {
	return intervals[i].multiplier
}

func (i Interval) Timespan() models.Timespan {
	spec, ok := intervals[i]
	if !ok {
		return models.Day
	}

	return spec.timespan
}

// Duration is the length of one bar.
func (i Interval) Duration() time.Duration {
	spec := intervals[i]

	return time.Duration(spec.multiplier) * spec.unit
}

// TimespanDuration is the length of multiplier units of timespan. Months count as 30 days.
func TimespanDuration(timespan models.Timespan, multiplier int) time.Duration {
	var unit time.Duration

	switch timespan {
	case models.Second:
		unit = time.Second
	case models.Minute:
		unit = time.Minute
	case models.Hour:
		unit = time.Hour
	case models.Day:
		unit = 24 * time.Hour
	case models.Week:
		unit = 7 * 24 * time.Hour
	case models.Month:
		unit = 30 * 24 * time.Hour
	default:
		unit = 24 * time.Hour
	}

	return time.Duration(multiplier) * unit
}
