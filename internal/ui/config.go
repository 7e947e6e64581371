package ui

// Config contains window and host related settings.
type Config struct {
	Title         string // window title
	Scale         int    // integer upscaling factor
	ScreenshotDir string // where F12 and the menu write PNGs
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "gbemu"
	}
	if c.Scale <= 0 {
		c.Scale = 3
	}
	if c.ScreenshotDir == "" {
		c.ScreenshotDir = "screenshots"
	}
}
