// Package config handles renderer configuration loading and management.
package config

// Config holds all renderer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Render   RenderConfig   `yaml:"render"`
	Scene    SceneConfig    `yaml:"scene"`
	Debug    DebugConfig    `yaml:"debug"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display and projection settings.
type GraphicsConfig struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	Fullscreen  bool    `yaml:"fullscreen"`
	VSync       bool    `yaml:"vsync"`
	MSAASamples int     `yaml:"msaa_samples"`
	FOV         float32 `yaml:"fov"`
	Near        float32 `yaml:"near"`
	Far         float32 `yaml:"far"`
}

// RenderConfig holds frame renderer tunables.
type RenderConfig struct {
	ShadowResolution int32      `yaml:"shadow_resolution"`
	ShadowExtent     float32    `yaml:"shadow_extent"` // Half-size of the light's ortho box
	ShadowNear       float32    `yaml:"shadow_near"`
	ShadowFar        float32    `yaml:"shadow_far"`
	LightDistance    float32    `yaml:"light_distance"` // Eye offset along -direction
	ClearColor       [3]float32 `yaml:"clear_color"`
	DefaultAlbedo    float32    `yaml:"default_albedo"`
	DefaultMetallic  float32    `yaml:"default_metallic"`
	DefaultRoughness float32    `yaml:"default_roughness"`
	DefaultAO        float32    `yaml:"default_ao"`
	UseNormalMaps    bool       `yaml:"use_normal_maps"`
	MarkerScale      float32    `yaml:"marker_scale"`
	Wireframe        bool       `yaml:"wireframe"`
}

// SceneConfig points at the scene description.
type SceneConfig struct {
	File  string `yaml:"file"`
	Watch bool   `yaml:"watch"` // Reload scene and models on change
}

// DebugConfig holds developer settings.
type DebugConfig struct {
	CheckGLErrors bool   `yaml:"check_gl_errors"`
	ScreenshotDir string `yaml:"screenshot_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:       1280,
			Height:      720,
			Fullscreen:  false,
			VSync:       true,
			MSAASamples: 4,
			FOV:         45,
			Near:        0.1,
			Far:         100,
		},
		Render: RenderConfig{
			ShadowResolution: 2048,
			ShadowExtent:     10,
			ShadowNear:       1,
			ShadowFar:        50,
			LightDistance:    10,
			ClearColor:       [3]float32{0.529, 0.808, 0.922},
			DefaultAlbedo:    0.8,
			DefaultMetallic:  0,
			DefaultRoughness: 0.5,
			DefaultAO:        1,
			UseNormalMaps:    true,
			MarkerScale:      0.2,
		},
		Scene: SceneConfig{
			File:  "scene.yaml",
			Watch: false,
		},
		Debug: DebugConfig{
			CheckGLErrors: false,
			ScreenshotDir: "screenshots",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
