// Package config provides loading and environment overlay for logbook
// configuration. It exposes a Default() baseline, JSON or YAML files, a
// LOGBOOK_* environment overlay and optional .env files.
//
// Example:
//
//	_ = config.LoadDotEnv()
//	cfg, err := config.Load("/etc/logbook.yaml")
//	if err != nil {
//	    return err
//	}
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
package config
