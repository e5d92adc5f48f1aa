package marketdata

import (
	"fmt"
	"time"

	"github.com/polygon-io/client-go/rest/models"
)

type Timespan string

const (
	TimespanOneSecond      Timespan = "1s"
	TimespanOneMinute      Timespan = "1m"
	TimespanThreeMinutes   Timespan = "3m"
	TimespanFiveMinutes    Timespan = "5m"
	TimespanFifteenMinutes Timespan = "15m"
	TimespanThirtyMinutes  Timespan = "30m"
	TimespanOneHour        Timespan = "1h"
	TimespanTwoHours       Timespan = "2h"
	TimespanFourHours      Timespan = "4h"
	TimespanSixHours       Timespan = "6h"
	TimespanEightHours     Timespan = "8h"
	TimespanTwelveHours    Timespan = "12h"
	TimespanOneDay         Timespan = "1d"
	TimespanThreeDays      Timespan = "3d"
	TimespanOneWeek        Timespan = "1w"
	TimespanOneMonth       Timespan = "1M"
)

type timespanSpec struct {
	multiplier int
	unit       models.Timespan
	duration   time.Duration
}

const day = 24 * time.Hour

var timespanSpecs = map[Timespan]timespanSpec{
	TimespanOneSecond:      {1, models.Second, time.Second},
	TimespanOneMinute:      {1, models.Minute, time.Minute},
	TimespanThreeMinutes:   {3, models.Minute, 3 * time.Minute},
	TimespanFiveMinutes:    {5, models.Minute, 5 * time.Minute},
	TimespanFifteenMinutes: {15, models.Minute, 15 * time.Minute},
	TimespanThirtyMinutes:  {30, models.Minute, 30 * time.Minute},
	TimespanOneHour:        {1, models.Hour, time.Hour},
	TimespanTwoHours:       {2, models.Hour, 2 * time.Hour},
	TimespanFourHours:      {4, models.Hour, 4 * time.Hour},
	TimespanSixHours:       {6, models.Hour, 6 * time.Hour},
	TimespanEightHours:     {8, models.Hour, 8 * time.Hour},
	TimespanTwelveHours:    {12, models.Hour, 12 * time.Hour},
	TimespanOneDay:         {1, models.Day, day},
	TimespanThreeDays:      {3, models.Day, 3 * day},
	TimespanOneWeek:        {1, models.Week, 7 * day},
	TimespanOneMonth:       {1, models.Month, 30 * day},
}

// ParseTimespan validates an interval string such as "4h".
func ParseTimespan(s string) (Timespan, error) {
	t := Timespan(s)
	if _, ok := timespanSpecs[t]; !ok {
		return "", fmt.Errorf("unsupported interval: %q", s)
	}

	return t, nil
}

// Multiplier returns the number of units per bar. Unknown timespans return 1.
func (t Timespan) Multiplier() int {
	if spec, ok := timespanSpecs[t]; ok {
		return spec.multiplier
	}

	return 1
}

// Timespan returns the polygon unit of the bar. Unknown timespans return models.Day.
func (t Timespan) Timespan() models.Timespan {
	if spec, ok := timespanSpecs[t]; ok {
		return spec.unit
	}

	return models.Day
}

// Duration returns the nominal bar width, 0 for unknown timespans. A month counts as 30 days.
func (t Timespan) Duration() time.Duration {
	return timespanSpecs[t].duration
}
