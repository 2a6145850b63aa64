package media

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/theimaginaryfoundation/reel-o-bot/reel"
	"github.com/theimaginaryfoundation/reel-o-bot/reel/fileutils"
)

const (
	DefaultBinary = "ffmpeg"

	// DefaultSilentDuration is how long a frame without narration stays on screen.
	DefaultSilentDuration = 1500 * time.Millisecond
)

// FFmpeg turns a still image plus narration into an H.264/AAC clip and concatenates
// clips without re-encoding. Every clip uses the same stream parameters so the concat
// demuxer can copy them.
type FFmpeg struct {
	Bin    string
	Runner Runner

	// ClipDir holds per-segment clips; OutDir holds final videos.
	ClipDir string
	OutDir  string

	SilentDuration time.Duration
}

var _ reel.MediaAssembler = (*FFmpeg)(nil)

func (f *FFmpeg) bin() string {
	if f.Bin == "" {
		return DefaultBinary
	}
	return f.Bin
}

// ClipArgs builds the ffmpeg arguments for one clip. A silent audio handle gets a generated
// silent track of SilentDuration.
func (f *FFmpeg) ClipArgs(image reel.ImageHandle, audio reel.AudioHandle, out string) []string {
	args := []string{"-y", "-loglevel", "error", "-loop", "1", "-i", image.Path}
	if audio.Silent || audio.Path == "" {
		d := f.SilentDuration
		if d <= 0 {
			d = DefaultSilentDuration
		}
		args = append(args,
			"-f", "lavfi", "-i", "anullsrc=r=44100:cl=stereo",
			"-t", strconv.FormatFloat(d.Seconds(), 'f', 3, 64),
		)
	} else {
		args = append(args, "-i", audio.Path, "-shortest")
	}
	return append(args,
		"-vf", "scale=trunc(iw/2)*2:trunc(ih/2)*2,format=yuv420p",
		"-r", "30",
		"-c:v", "libx264", "-tune", "stillimage",
		"-c:a", "aac", "-b:a", "192k", "-ar", "44100", "-ac", "2",
		out,
	)
}

func (f *FFmpeg) MakeClip(ctx context.Context, name string, image reel.ImageHandle, audio reel.AudioHandle) (reel.SegmentClip, error) {
	if f.Runner == nil || f.ClipDir == "" {
		return reel.SegmentClip{}, errors.New("MakeClip: runner and clip dir must be set")
	}
	if image.Path == "" {
		return reel.SegmentClip{}, fmt.Errorf("MakeClip %s: image has no path", name)
	}
	if !fileutils.FileExists(image.Path) {
		return reel.SegmentClip{}, fmt.Errorf("MakeClip %s: image %s does not exist", name, image.Path)
	}
	if !audio.Silent && !fileutils.FileExists(audio.Path) {
		return reel.SegmentClip{}, fmt.Errorf("MakeClip %s: audio %q does not exist", name, audio.Path)
	}
	if err := fileutils.EnsureDir(f.ClipDir); err != nil {
		return reel.SegmentClip{}, fmt.Errorf("MakeClip %s: %w", name, err)
	}

	out := filepath.Join(f.ClipDir, name+".mp4")
	if err := f.Runner.Run(ctx, f.bin(), f.ClipArgs(image, audio, out)...); err != nil {
		return reel.SegmentClip{}, fmt.Errorf("MakeClip %s: %w", name, err)
	}
	return reel.SegmentClip{Name: name, Path: out, Silent: audio.Silent}, nil
}

// ConcatList renders the concat demuxer input for clips, in the order given.
func ConcatList(clips []reel.SegmentClip) (string, error) {
	var b strings.Builder
	for _, c := range clips {
		if c.Path == "" {
			return "", fmt.Errorf("clip %q has no path", c.Name)
		}
		p, err := filepath.Abs(c.Path)
		if err != nil {
			return "", err
		}
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(p, `'`, `'\''`))
		b.WriteString("'\n")
	}
	return b.String(), nil
}

// Concatenate joins clips into <OutDir>/<outputName>.mp4. Clips must arrive in ascending
// index order; anything else is refused rather than silently reordered.
func (f *FFmpeg) Concatenate(ctx context.Context, clips []reel.SegmentClip, outputName string) (reel.FinalVideo, error) {
	if f.Runner == nil || f.OutDir == "" {
		return reel.FinalVideo{}, errors.New("Concatenate: runner and out dir must be set")
	}
	if len(clips) == 0 {
		return reel.FinalVideo{}, fmt.Errorf("Concatenate %s: no clips", outputName)
	}
	for i := 1; i < len(clips); i++ {
		if clips[i].Index <= clips[i-1].Index {
			return reel.FinalVideo{}, fmt.Errorf("Concatenate %s: clips out of order at position %d", outputName, i)
		}
	}

	list, err := ConcatList(clips)
	if err != nil {
		return reel.FinalVideo{}, fmt.Errorf("Concatenate %s: %w", outputName, err)
	}
	listDir := f.ClipDir
	if listDir == "" {
		listDir = f.OutDir
	}
	listPath := filepath.Join(listDir, outputName+".concat.txt")
	if err := fileutils.WriteFileAtomic(listPath, []byte(list), 0o644); err != nil {
		return reel.FinalVideo{}, fmt.Errorf("Concatenate %s: %w", outputName, err)
	}
	if err := fileutils.EnsureDir(f.OutDir); err != nil {
		return reel.FinalVideo{}, fmt.Errorf("Concatenate %s: %w", outputName, err)
	}

	out := filepath.Join(f.OutDir, outputName+".mp4")
	args := []string{"-y", "-loglevel", "error", "-f", "concat", "-safe", "0", "-i", listPath, "-c", "copy", out}
	if err := f.Runner.Run(ctx, f.bin(), args...); err != nil {
		return reel.FinalVideo{}, fmt.Errorf("Concatenate %s: %w", outputName, err)
	}
	return reel.FinalVideo{Name: outputName, Path: out, Segments: len(clips)}, nil
}
