package deps

import "veil/internal/config"

var ffmpegVersionArgs = []string{"-hide_banner", "-version"}

// MediaRequirements lists the binaries a run needs for the given config.
//
// The decode and encode cursors use the configured ffmpeg and ffprobe. The
// drapto library resolves "ffmpeg" from PATH on its own, so when the AV1
// pass is enabled with a custom ffmpeg binary that one is checked too.
func MediaRequirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Encode.FFmpegBinary,
			Purpose:     "frame decoding and encoding",
			VersionArgs: ffmpegVersionArgs,
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Encode.FFprobeBinary,
			Purpose:     "stream inspection",
			VersionArgs: ffmpegVersionArgs,
		},
	}
	if cfg.Transcode.Enabled && cfg.Encode.FFmpegBinary != "ffmpeg" {
		reqs = append(reqs, Requirement{
			Name:        "FFmpeg (drapto)",
			Command:     "ffmpeg",
			Purpose:     "AV1 pass",
			VersionArgs: ffmpegVersionArgs,
		})
	}
	return reqs
}
