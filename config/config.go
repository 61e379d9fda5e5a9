package config

// Config holds the capture settings that are not part of the positional
// CLI surface. Encoder fields are read once at startup; LogLevel is
// re-applied whenever the config file changes.
type Config struct {
	// Frames pulled and discarded before capture starts, so camera
	// auto-exposure and auto-gain can settle.
	WarmupFrames int

	// VAAPI codec name, e.g. "hevc_vaapi" or "h264_vaapi".
	Codec string

	// DRM render node handed to the encoder.
	Device string

	// Pixel format of the raw camera frames.
	PixelFormat string

	// Constant-QP quality for the hardware encoder.
	QP int

	LogLevel string
}

func Default() *Config {
	return &Config{
		WarmupFrames: 10,
		Codec:        "hevc_vaapi",
		Device:       "/dev/dri/renderD128",
		PixelFormat:  "yuyv422",
		QP:           25,
		LogLevel:     "info",
	}
}
