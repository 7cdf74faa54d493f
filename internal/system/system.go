package system

import (
	"os/exec"
	"strings"
	"syscall"

	"go.uber.org/zap"
)

// InitResourceLimits raises the open file limit. ffmpeg plus a directory of
// slides can exhaust the default on macOS.
func InitResourceLimits(logger *zap.SugaredLogger) {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		logger.Warnw("get open file limit", "error", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		logger.Warnw("set open file limit", "error", err)
	} else {
		logger.Debugw("open file limit raised", "limit", rLimit.Cur)
	}
}

// GetBestH264Encoder returns the first hardware H.264 encoder ffmpeg reports,
// falling back to libx264.
func GetBestH264Encoder() string {
	// Priority:
	// 1. macOS (VideoToolbox)
	// 2. NVIDIA (NVENC)
	// 3. Software (libx264)
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}

	return pickEncoder(string(out))
}

func pickEncoder(listing string) string {
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(listing, name) {
			return name
		}
	}
	return "libx264"
}

// DefaultQuality returns a sensible quality value for an encoder
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75 // bitrate = Q*100 kbit/s
	case "h264_nvenc":
		return 28
	default:
		return 23 // x264 CRF
	}
}
