package timekeeper

import (
	"math"
	"sort"
	"time"
)

// LapTimeAverage returns the arithmetic mean of all lap times.
// The boolean is false when there are no lap times.
func (t Timing) LapTimeAverage() (time.Duration, bool) {
	return average(t.LapTimes())
}

// LapTimeMedian returns the median of all lap times.
//
// For an even count the element at count/2 of the sorted lap times is
// returned, for an odd count the element at count/2-1. A single lap time
// has no median.
func (t Timing) LapTimeMedian() (time.Duration, bool) {
	return median(t.LapTimes())
}

// LapTimeVariance returns the sum of squared deviations of the lap times
// from their median divided by count-1, in seconds squared.
// The boolean is false whenever the median is undefined.
func (t Timing) LapTimeVariance() (float64, bool) {
	lapTimes := t.LapTimes()
	m, ok := median(lapTimes)
	if !ok {
		return 0, false
	}

	var sum float64
	for _, lt := range lapTimes {
		sum += math.Pow((lt - m).Seconds(), 2)
	}
	return sum / float64(len(lapTimes)-1), true
}

// LapTimeStandardDeviation returns the mean absolute deviation of the lap
// times from their median.
// The boolean is false whenever the median is undefined.
func (t Timing) LapTimeStandardDeviation() (time.Duration, bool) {
	lapTimes := t.LapTimes()
	m, ok := median(lapTimes)
	if !ok {
		return 0, false
	}

	var sum time.Duration
	for _, lt := range lapTimes {
		if lt > m {
			sum += lt - m
		} else {
			sum += m - lt
		}
	}
	return sum / time.Duration(len(lapTimes)), true
}

func average(values []time.Duration) (time.Duration, bool) {
	if len(values) == 0 {
		return 0, false
	}

	var sum time.Duration
	for _, v := range values {
		sum += v
	}
	return sum / time.Duration(len(values)), true
}

func median(values []time.Duration) (time.Duration, bool) {
	if len(values) < 2 {
		return 0, false
	}

	sorted := make([]time.Duration, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	if len(sorted)%2 == 0 {
		return sorted[len(sorted)/2], true
	}
	return average(sorted[len(sorted)/2-1 : len(sorted)/2])
}
