package config

const (
	defaultStateDir      = "~/.local/share/veil"
	defaultLogDir        = "~/.local/share/veil/logs"
	defaultThreshold     = 0.96
	defaultWindowSize    = 5
	defaultBackend       = "native"
	defaultStampBlur     = "box"
	defaultFFmpegBinary  = "ffmpeg"
	defaultFFprobeBinary = "ffprobe"
	defaultCodec         = "libx264"
	defaultPreset        = "medium"
	defaultCRF           = 18
	defaultPixelFormat   = "yuv420p"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Matching: Matching{
			Threshold:  defaultThreshold,
			WindowSize: defaultWindowSize,
			Backend:    defaultBackend,
		},
		Stamp: Stamp{
			Blur: defaultStampBlur,
		},
		Encode: Encode{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			Codec:         defaultCodec,
			Preset:        defaultPreset,
			CRF:           defaultCRF,
			PixelFormat:   defaultPixelFormat,
			CopyAudio:     true,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
