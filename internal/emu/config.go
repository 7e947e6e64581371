package emu

import "log"

// Config contains settings that affect emulation behavior.
type Config struct {
	Trace  bool        // log CPU instructions
	Logger *log.Logger // trace destination; log.Default() when nil
}

func (c Config) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}
