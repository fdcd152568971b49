// Package runtime wires storage, config, and the journal components into a
// single logbook instance. It exposes Open/Close, basic health checks, and
// accessors used by the HTTP API, the CLI and development tooling.
//
// Example:
//
//	cfg := config.Default()
//	cfg.DataDir = "./data"
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	lt, _ := rt.LogTypes().Create("Fed cat")
//	_, _ = rt.Journal().QuickCommit(context.Background(), lt)
package runtime
