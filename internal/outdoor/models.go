// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

package outdoor

// Measurement is one pollutant reading: concentration plus the US and CN AQI.
type Measurement struct {
	Conc  float64 `json:"conc"`
	AQIUS float64 `json:"aqius"`
	AQICN float64 `json:"aqicn"`
}

// Snapshot is the "current" block of the outdoor station response.
type Snapshot struct {
	PM25   Measurement `json:"pm25"`
	PM10   Measurement `json:"pm10"`
	PM1    Measurement `json:"pm1"`
	PR     float64     `json:"pr"` // pressure, hPa
	HM     float64     `json:"hm"` // relative humidity, %
	TP     float64     `json:"tp"` // temperature, °C
	TS     string      `json:"ts"` // RFC 3339 timestamp
	MainUS string      `json:"mainus"`
	MainCN string      `json:"maincn"`
	AQIUS  float64     `json:"aqius"`
	AQICN  float64     `json:"aqicn"`
}

// stationResponse is the body of GET {base}/{deviceID}.
type stationResponse struct {
	Name    string    `json:"name"`
	Current *Snapshot `json:"current"`
}
