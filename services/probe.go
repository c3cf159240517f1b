package services

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"

	"hera/logger"
)

// audioExtensions is the payload probe order inside a recording folder.
var audioExtensions = []string{"m4a", "wav", "mp3", "flac"}

// ValidAudioFormat reports whether the format is one the library stores.
func ValidAudioFormat(format string) bool {
	for _, ext := range audioExtensions {
		if format == ext {
			return true
		}
	}
	return false
}

// FormatFromFilename derives the library format from a file name. Returns
// "" for anything the library does not store.
func FormatFromFilename(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ValidAudioFormat(ext) {
		return ext
	}
	return ""
}

// ContentTypeFor returns the MIME type served for an audio format.
func ContentTypeFor(format string) string {
	switch format {
	case "m4a":
		return "audio/mp4"
	case "wav":
		return "audio/wav"
	case "mp3":
		return "audio/mpeg"
	case "flac":
		return "audio/flac"
	default:
		return "application/octet-stream"
	}
}

// ProbeDuration reads the duration in seconds from the audio container.
// Only FLAC and WAV carry it cheaply; other formats report zero and rely
// on the value the capture client supplied. Failures log and report zero.
func ProbeDuration(path, format string) float64 {
	switch format {
	case "flac":
		stream, err := flac.ParseFile(path)
		if err != nil {
			logger.Warn("probing flac duration failed",
				logger.String("path", path), logger.ErrorField(err))
			return 0
		}
		defer stream.Close()
		if stream.Info.SampleRate == 0 {
			return 0
		}
		return float64(stream.Info.NSamples) / float64(stream.Info.SampleRate)

	case "wav":
		f, err := os.Open(path)
		if err != nil {
			logger.Warn("probing wav duration failed",
				logger.String("path", path), logger.ErrorField(err))
			return 0
		}
		defer f.Close()

		dur, err := wav.NewDecoder(f).Duration()
		if err != nil {
			logger.Warn("probing wav duration failed",
				logger.String("path", path), logger.ErrorField(err))
			return 0
		}
		return dur.Seconds()

	default:
		return 0
	}
}

// ProbeTitle returns the embedded tag title, or "" when there is none.
// Untagged files are the normal case for fresh captures.
func ProbeTitle(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(meta.Title())
}
