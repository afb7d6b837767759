// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

/*
Package api is the HTTP surface of Airboard: a thin proxy in front of the
Airthings API and the outdoor cache, plus health and metrics endpoints.

Routes:

	GET /api/accounts                   account list (normalized)
	GET /api/devices?accountId=         device list, upstream body as-is
	GET /api/sensors?accountId=&sn=&sn= latest readings, upstream body as-is
	GET /api/sensors/latest?page=       first account, labelled and paginated
	GET /api/outdoor                    {success, data: {current}, source}
	GET /api/test                       authentication smoke test
	GET /api/test/devices               devices smoke test on the first account
	GET /health/live, /health/ready     probes
	GET /metrics                        Prometheus

Error Bodies:

	400  {error, message}                              invalid parameters
	4xx/5xx from upstream  {error: "API Error", message, details, status}
	auth failure  {error: "Authentication Error", message, details, status}
	502  {error: "Request Error", message: "No response received from API", details}
	500  {error: "Internal Server Error", message, timestamp}
*/
package api
