package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"

	"github.com/ivlev/kenburns/internal/config"
)

// FFmpegWriter streams raw RGBA frames into an ffmpeg process that encodes
// them into the output video.
type FFmpegWriter struct {
	params config.OutputParams
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	out    bytes.Buffer
	frames int
}

// NewFFmpegWriter starts ffmpeg. The process is killed if ctx is cancelled.
func NewFFmpegWriter(ctx context.Context, params config.OutputParams) (*FFmpegWriter, error) {
	w := &FFmpegWriter{params: params}

	w.cmd = exec.CommandContext(ctx, "ffmpeg", buildArgs(params)...)
	w.cmd.Stdout = &w.out
	w.cmd.Stderr = &w.out

	stdin, err := w.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	w.stdin = stdin

	if err := w.cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}

	return w, nil
}

// WriteFrame sends one frame. Frames must match the configured size.
func (w *FFmpegWriter) WriteFrame(frame *image.RGBA) error {
	b := frame.Bounds()
	if b.Dx() != w.params.Width || b.Dy() != w.params.Height {
		return fmt.Errorf("frame %dx%d does not match output %dx%d", b.Dx(), b.Dy(), w.params.Width, w.params.Height)
	}

	if err := writeRawRGBA(w.stdin, frame); err != nil {
		return fmt.Errorf("write raw error: %w", err)
	}
	w.frames++
	return nil
}

// Frames returns the number of frames sent so far
func (w *FFmpegWriter) Frames() int {
	return w.frames
}

// Close finishes the stream and waits for ffmpeg to write the file.
func (w *FFmpegWriter) Close() error {
	w.stdin.Close()
	if err := w.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w, output: %s", err, w.out.String())
	}
	return nil
}

func buildArgs(p config.OutputParams) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"-framerate", fmt.Sprintf("%d", p.FPS),
		"-i", "-",
	}

	if p.AudioPath != "" {
		args = append(args, "-i", p.AudioPath, "-map", "0:v", "-map", "1:a", "-c:a", "aac", "-shortest")
	}

	args = append(args, "-c:v", p.Encoder, "-pix_fmt", "yuv420p")
	args = append(args, qualityArgs(p.Encoder, p.Quality)...)
	args = append(args, p.Path)
	return args
}

func qualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		// VideoToolbox does not accept -q:v everywhere, use a bitrate instead
		bitrate := quality * 100 // kbit/s, 75 -> 7.5 Mbit/s
		return []string{"-b:v", fmt.Sprintf("%dk", bitrate)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default: // libx264
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}

func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}
