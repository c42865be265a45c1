package main

import "time"

// GlobalFlags holds persistent flags shared by all commands.
type GlobalFlags struct {
	ConfigPath string
}

// StopFlags holds flags for stop and restart.
type StopFlags struct {
	Grace time.Duration // overrides the configured stop grace period
}
