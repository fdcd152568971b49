// Package httpserver serves the local JSON API over a runtime: log type
// management, log commits and filtered or date-sectioned log listings.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{Config: config.Default()})
//	s := httpserver.New(rt, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, "127.0.0.1:8787")
package httpserver
