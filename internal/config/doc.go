// Package config provides loading and environment overlay for inklet's
// runtime configuration. It exposes a Default() baseline, JSON/YAML file
// loading, and an INKLET_* env overlay applied last.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/inklet.yaml"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
//	rt, _ := runtime.Open(runtime.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	defer rt.Close()
package config
