package mime_test

import (
	"testing"

	"github.com/rohmanhakim/soundfetch/internal/mime"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"mp3", "https://cdn.example/a.mp3", "audio/mpeg"},
		{"wav uppercase", "clip.WAV", "audio/wav"},
		{"ogg", "https://cdn.example/a.ogg", "audio/ogg"},
		{"m4a", "https://cdn.example/a.m4a", "audio/mp4"},
		{"mp4", "https://cdn.example/a.Mp4", "audio/mp4"},
		{"aac", "https://cdn.example/a.aac", "audio/aac"},
		{"webm", "https://cdn.example/a.webm", "audio/webm"},
		{"flac falls back", "https://cdn.example/a.flac", "audio/mpeg"},
		{"no extension", "https://cdn.example/stream", "audio/mpeg"},
		{"empty", "", "audio/mpeg"},
		{"query ignored", "https://cdn.example/a.ogg?sig=abc.wav", "audio/ogg"},
		{"fragment ignored", "https://cdn.example/a.wav#t=1", "audio/wav"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mime.Classify(tt.url))
		})
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".mp3", mime.Extension("https://www.myinstants.com/media/sounds/vine-boom.MP3"))
	assert.Equal(t, "", mime.Extension("https://www.myinstants.com/en/instant/vine-boom/"))
	assert.Equal(t, ".wav", mime.Extension("clip.WAV"))
}
