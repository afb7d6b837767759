// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

package outdoor

import (
	"math/rand/v2"
	"time"
)

// baseline values for the synthetic snapshot: a mild day at sea level.
var baseline = Snapshot{
	PM25:   Measurement{Conc: 14, AQIUS: 53, AQICN: 50},
	PM10:   Measurement{Conc: 20, AQIUS: 18, AQICN: 20},
	PM1:    Measurement{Conc: 8, AQIUS: 0, AQICN: 0},
	PR:     1013.25,
	HM:     65,
	TP:     18.5,
	MainUS: "pm25",
	MainCN: "pm25",
	AQIUS:  53,
	AQICN:  50,
}

// JitterFunc returns an offset in [-1, 1).
type JitterFunc func() float64

// UniformJitter draws from [-1, 1).
func UniformJitter() float64 {
	return rand.Float64()*2 - 1 //nolint:gosec // display noise, not security
}

// NoJitter always returns 0.
func NoJitter() float64 { return 0 }

// SyntheticSnapshot returns the baseline snapshot stamped with now. pm25.conc,
// tp and hm are offset by jitter; hm stays within [0, 100].
func SyntheticSnapshot(now time.Time, jitter JitterFunc) Snapshot {
	if jitter == nil {
		jitter = NoJitter
	}
	s := baseline
	s.PM25.Conc += jitter()
	s.TP += jitter()
	s.HM = clamp(s.HM+jitter(), 0, 100)
	s.TS = formatTS(now)
	return s
}

// ZeroedSnapshot returns a snapshot with every numeric field zero. The main
// pollutant stays "pm25" so the dashboard can still label it.
func ZeroedSnapshot(now time.Time) Snapshot {
	return Snapshot{
		TS:     formatTS(now),
		MainUS: "pm25",
		MainCN: "pm25",
	}
}

func formatTS(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
