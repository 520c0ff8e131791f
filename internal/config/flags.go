package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging and GL error checks")
	flagScene      = flag.String("scene", "", "Scene description file")
	flagWatch      = flag.Bool("watch", false, "Reload scene and models when files change")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagMSAA       = flag.Int("msaa", -1, "Multisample count (0 disables)")
	flagShadowRes  = flag.Int("shadow-res", 0, "Shadow map resolution")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Debug.CheckGLErrors = true
	}
	if *flagScene != "" {
		cfg.Scene.File = *flagScene
	}
	if *flagWatch {
		cfg.Scene.Watch = true
	}
	if *flagWindowed {
		cfg.Graphics.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	if *flagMSAA >= 0 {
		cfg.Graphics.MSAASamples = *flagMSAA
	}
	if *flagShadowRes > 0 {
		cfg.Render.ShadowResolution = int32(*flagShadowRes)
	}
}
