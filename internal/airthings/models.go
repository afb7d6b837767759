// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

package airthings

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// Account is an Airthings account. Raw keeps the upstream object so that
// fields this package does not model survive a round trip through the proxy.
type Account struct {
	ID   string          `json:"id"`
	Name string          `json:"name,omitempty"`
	Raw  json.RawMessage `json:"-"`
}

// MarshalJSON returns the upstream object when one was decoded.
func (a Account) MarshalJSON() ([]byte, error) {
	if len(a.Raw) > 0 {
		return a.Raw, nil
	}
	type plain Account
	return json.Marshal(plain(a))
}

// Device is a sensor device registered to an account.
type Device struct {
	SerialNumber string `json:"serialNumber"`
	Name         string `json:"name,omitempty"`
	Home         string `json:"home,omitempty"`
	Type         string `json:"type,omitempty"`
}

// DevicesResponse is the body of GET /v1/accounts/{id}/devices.
type DevicesResponse struct {
	Devices []Device        `json:"devices"`
	Raw     json.RawMessage `json:"-"`
}

// MarshalJSON returns the upstream body unmodified when one was decoded.
func (d DevicesResponse) MarshalJSON() ([]byte, error) {
	if len(d.Raw) > 0 {
		return d.Raw, nil
	}
	type plain DevicesResponse
	return json.Marshal(plain(d))
}

// Sensor is one measurement within a reading, e.g. {"sensorType":"co2","value":612,"unit":"ppm"}.
type Sensor struct {
	SensorType string  `json:"sensorType"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit"`
}

// SensorReading holds the latest values reported by one device.
type SensorReading struct {
	SerialNumber      string   `json:"serialNumber"`
	Recorded          string   `json:"recorded,omitempty"`
	Sensors           []Sensor `json:"sensors"`
	BatteryPercentage *int     `json:"batteryPercentage,omitempty"`
}

// SensorsPage is the body of GET /v1/accounts/{id}/sensors.
type SensorsPage struct {
	Results    []SensorReading `json:"results"`
	HasNext    bool            `json:"hasNext"`
	TotalPages int             `json:"totalPages"`
	Raw        json.RawMessage `json:"-"`
}

// MarshalJSON returns the upstream body unmodified when one was decoded.
func (p SensorsPage) MarshalJSON() ([]byte, error) {
	if len(p.Raw) > 0 {
		return p.Raw, nil
	}
	type plain SensorsPage
	return json.Marshal(plain(p))
}

// decodeAccounts normalizes the three shapes the accounts endpoint has been
// seen to return. Precedence:
//
//  1. a JSON array is the account list
//  2. an object with an "accounts" field yields that field
//  3. any other object is a single account
//
// Anything else is an error.
func decodeAccounts(body []byte) ([]Account, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("decode accounts: empty response body")
	}

	switch trimmed[0] {
	case '[':
		return decodeAccountList(trimmed)

	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, fmt.Errorf("decode accounts: %w", err)
		}
		// A null accounts field falls through to the single-object shape.
		if list, ok := fields["accounts"]; ok && !bytes.Equal(bytes.TrimSpace(list), []byte("null")) {
			return decodeAccountList(list)
		}
		account, err := decodeAccount(trimmed)
		if err != nil {
			return nil, err
		}
		return []Account{account}, nil

	default:
		return nil, fmt.Errorf("decode accounts: unexpected payload starting with %q", trimmed[0])
	}
}

func decodeAccountList(data []byte) ([]Account, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode accounts list: %w", err)
	}

	accounts := make([]Account, 0, len(raws))
	for i, raw := range raws {
		account, err := decodeAccount(raw)
		if err != nil {
			return nil, fmt.Errorf("account %d: %w", i, err)
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func decodeAccount(raw []byte) (Account, error) {
	var fields struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Account{}, fmt.Errorf("decode account: %w", err)
	}
	return Account{
		ID:   fields.ID,
		Name: fields.Name,
		Raw:  append(json.RawMessage(nil), raw...),
	}, nil
}
