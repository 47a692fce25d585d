package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "canonical profile url",
			url:  "https://www.tiktok.com/@somecreator/video/7312345678901234567",
			want: "7312345678901234567",
		},
		{
			name: "canonical url with query",
			url:  "https://www.tiktok.com/@somecreator/video/7312345678901234567?is_from_webapp=1",
			want: "7312345678901234567",
		},
		{
			name: "legacy v url",
			url:  "https://www.tiktok.com/v/7312345678901234567",
			want: "7312345678901234567",
		},
		{
			name: "embed url",
			url:  "https://www.tiktok.com/embed/7312345678901234567",
			want: "7312345678901234567",
		},
		{
			name: "bare video path",
			url:  "https://m.tiktok.com/foo/video/7312345678901234567",
			want: "7312345678901234567",
		},
		{
			name: "short link has no id",
			url:  "https://vm.tiktok.com/ZM8abcdef/",
			want: "",
		},
		{
			name: "unrelated url",
			url:  "https://example.com/watch?v=12345",
			want: "",
		},
		{
			name: "empty",
			url:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractVideoID(tt.url))
		})
	}
}

func TestIsShortLink(t *testing.T) {
	assert.True(t, IsShortLink("https://vm.tiktok.com/ZM8abcdef/"))
	assert.True(t, IsShortLink("https://vt.tiktok.com/ZS2xyz123"))
	assert.True(t, IsShortLink("http://vm.tiktok.com/AbC123"))
	assert.False(t, IsShortLink("https://www.tiktok.com/@user/video/123"))
	assert.False(t, IsShortLink("https://example.com/vm.tiktok.com/fake"))
	assert.False(t, IsShortLink(""))
}

func TestParseViewCount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int64
	}{
		{name: "plain number", text: "42", want: 42},
		{name: "thousands suffix", text: "12.3K", want: 12300},
		{name: "lowercase suffix", text: "1.5m", want: 1500000},
		{name: "millions suffix", text: "1.5M", want: 1500000},
		{name: "billions suffix", text: "2B", want: 2000000000},
		{name: "comma separated", text: "1,234,567", want: 1234567},
		{name: "suffix with comma", text: "1,234.5K", want: 1234500},
		{name: "padded", text: "  987  ", want: 987},
		{name: "trailing label", text: "523 views", want: 523},
		{name: "empty", text: "", want: 0},
		{name: "junk", text: "n/a", want: 0},
		{name: "suffix without number", text: "K", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseViewCount(tt.text))
		})
	}
}
