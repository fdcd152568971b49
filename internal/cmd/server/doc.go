// Package serverrun starts the logbook HTTP API for the `server start`
// command. LoadConfig layers .env files, the config file and LOGBOOK_*
// variables; Run opens the store and serves until the context ends.
//
//	cfg, err := serverrun.LoadConfig("")
//	if err != nil {
//		return err
//	}
//	return serverrun.Run(ctx, serverrun.Options{Config: cfg})
package serverrun
