package scraper

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRecords(t *testing.T) {
	cards := []resultCard{
		{
			Link:      "https://www.tiktok.com/@creatorone/video/7300000000000000001",
			Thumbnail: "https://p16-sign.tiktokcdn.com/one.jpeg",
			Handle:    "@creatorone",
			Caption:   "  first video  ",
			Views:     "12.3K",
		},
		{Link: "https://www.tiktok.com/@creatorone", Handle: "@creatorone"},
		{Link: "https://www.tiktok.com/@x/video/notdigits"},
		{
			Link:   "https://www.tiktok.com/@creatortwo/video/7300000000000000002",
			Handle: "creatortwo",
			Views:  "n/a",
		},
	}

	records := buildRecords(cards, 10)
	require.Len(t, records, 2, "cards without a parsable video permalink are skipped")

	assert.Equal(t, "7300000000000000001", records[0].ExternalID)
	assert.Equal(t, "creatorone", records[0].Creator.Handle)
	assert.Equal(t, "creatorone", records[0].Creator.DisplayName)
	assert.Equal(t, "first video", records[0].Caption)
	assert.Equal(t, int64(12300), records[0].Engagement.Views)
	assert.Equal(t, "Original Sound", records[0].Audio.Title)

	assert.Equal(t, "7300000000000000002", records[1].ExternalID)
	assert.Zero(t, records[1].Engagement.Views, "unparsable count stays zero, never a placeholder")
}

func TestBuildRecordsStopsAtLimit(t *testing.T) {
	cards := make([]resultCard, 0, 30)
	for n := 0; n < 30; n++ {
		cards = append(cards, resultCard{
			Link:   fmt.Sprintf("https://www.tiktok.com/@u/video/73000000000000000%02d", n),
			Handle: "u",
		})
	}

	assert.Len(t, buildRecords(cards, 5), 5)
	assert.Len(t, buildRecords(cards, 30), 30)
}

func TestBuildRecordsEmpty(t *testing.T) {
	assert.Empty(t, buildRecords(nil, 10))
	assert.Empty(t, buildRecords([]resultCard{{Link: "https://example.com"}}, 10))
}
