// Airboard - Indoor and Outdoor Air Quality Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/airboard

/*
Package supervisor provides process supervision for Airboard using suture v4.

The supervisor tree organizes long-running services into two layers:

	RootSupervisor ("airboard")
	├── UpstreamSupervisor ("upstream-layer")
	│   ├── TokenWarmerService (acquires the Airthings token at startup)
	│   └── OutdoorWarmerService (if IQAIR_REFRESH_INTERVAL > 0)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crash in the upstream layer never takes the HTTP server down: the proxy
keeps serving, acquiring tokens and outdoor data lazily on demand.

Supervisor events (start, failure, backoff, restart) are reported through
sutureslog into the zerolog-backed slog handler from internal/logging.

# Usage Example

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddUpstreamService(services.NewOutdoorWarmerService(outdoorCache, time.Minute))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return tree.Serve(ctx)
*/
package supervisor
