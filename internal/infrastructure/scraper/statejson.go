package scraper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"tiktok_ingest/internal/domain"
)

// Embedded page-state blobs the video-detail page is known to carry.
// universalDataScriptID is the current key; sigiStateScriptID is the
// fallback for the older markup generation.
const (
	universalDataScriptID = "__UNIVERSAL_DATA_FOR_REHYDRATION__"
	sigiStateScriptID     = "SIGI_STATE"
	videoDetailScopeKey   = "webapp.video-detail"
)

// videoItem mirrors the item subtree of both state blobs. Every field is
// optional; mapping defaults to empty/zero rather than failing.
type videoItem struct {
	ID         string          `json:"id"`
	Desc       string          `json:"desc"`
	CreateTime json.RawMessage `json:"createTime"`
	Video      struct {
		PlayAddr     string `json:"playAddr"`
		DownloadAddr string `json:"downloadAddr"`
		Cover        string `json:"cover"`
	} `json:"video"`
	Author struct {
		ID           string `json:"id"`
		UniqueID     string `json:"uniqueId"`
		Nickname     string `json:"nickname"`
		AvatarLarger string `json:"avatarLarger"`
		Verified     bool   `json:"verified"`
	} `json:"author"`
	Music struct {
		Title      string `json:"title"`
		AuthorName string `json:"authorName"`
	} `json:"music"`
	Stats struct {
		DiggCount    int64 `json:"diggCount"`
		CommentCount int64 `json:"commentCount"`
		ShareCount   int64 `json:"shareCount"`
		PlayCount    int64 `json:"playCount"`
	} `json:"stats"`
	AuthorStats struct {
		FollowerCount  int64 `json:"followerCount"`
		FollowingCount int64 `json:"followingCount"`
		HeartCount     int64 `json:"heartCount"`
		VideoCount     int64 `json:"videoCount"`
	} `json:"authorStats"`
}

// decodeUniversalData extracts the video-detail item from the rehydration
// blob.
func decodeUniversalData(data []byte) (*videoItem, error) {
	var root struct {
		DefaultScope map[string]json.RawMessage `json:"__DEFAULT_SCOPE__"`
	}
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse rehydration blob: %w", err)
	}

	raw, ok := root.DefaultScope[videoDetailScopeKey]
	if !ok {
		return nil, fmt.Errorf("scope %q not present", videoDetailScopeKey)
	}

	var detail struct {
		ItemInfo struct {
			ItemStruct videoItem `json:"itemStruct"`
		} `json:"itemInfo"`
	}
	if err := json.Unmarshal(raw, &detail); err != nil {
		return nil, fmt.Errorf("parse video detail scope: %w", err)
	}
	if detail.ItemInfo.ItemStruct.ID == "" {
		return nil, fmt.Errorf("video detail subtree absent")
	}
	return &detail.ItemInfo.ItemStruct, nil
}

// decodeSigiState extracts the item for videoID from the legacy SIGI blob.
func decodeSigiState(data []byte, videoID string) (*videoItem, error) {
	var root struct {
		ItemModule map[string]videoItem `json:"ItemModule"`
	}
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse sigi state: %w", err)
	}
	if len(root.ItemModule) == 0 {
		return nil, fmt.Errorf("item module absent")
	}

	if item, ok := root.ItemModule[videoID]; ok {
		item.ID = videoID
		return &item, nil
	}
	return nil, fmt.Errorf("video %s not in item module", videoID)
}

// mapItem converts a decoded item into a VideoRecord, defaulting any
// missing subfield.
func mapItem(item *videoItem, externalID, sourceURL string) domain.VideoRecord {
	id := item.ID
	if id == "" {
		id = externalID
	}

	mediaURL := item.Video.PlayAddr
	if mediaURL == "" {
		mediaURL = item.Video.DownloadAddr
	}

	handle := item.Author.UniqueID
	displayName := item.Author.Nickname
	if displayName == "" {
		displayName = handle
	}

	musicTitle := item.Music.Title
	if musicTitle == "" {
		musicTitle = "Original Sound"
	}
	musicArtist := item.Music.AuthorName
	if musicArtist == "" {
		musicArtist = handle
	}

	capturedAt := time.Now()
	if epoch := parseEpoch(item.CreateTime); epoch > 0 {
		capturedAt = time.Unix(epoch, 0)
	}

	return domain.VideoRecord{
		ExternalID:   id,
		SourceURL:    sourceURL,
		MediaURL:     mediaURL,
		ThumbnailURL: item.Video.Cover,
		Caption:      item.Desc,
		Creator: domain.Creator{
			ExternalUserID: item.Author.ID,
			Handle:         handle,
			DisplayName:    displayName,
			AvatarURL:      item.Author.AvatarLarger,
			Verified:       item.Author.Verified,
		},
		Audio: domain.AudioTrack{
			Title:  musicTitle,
			Artist: musicArtist,
		},
		Engagement: domain.Engagement{
			Likes:    item.Stats.DiggCount,
			Comments: item.Stats.CommentCount,
			Shares:   item.Stats.ShareCount,
			Views:    item.Stats.PlayCount,
		},
		CreatorStats: domain.CreatorStats{
			Followers: item.AuthorStats.FollowerCount,
			Following: item.AuthorStats.FollowingCount,
			Likes:     item.AuthorStats.HeartCount,
			Videos:    item.AuthorStats.VideoCount,
		},
		CapturedAt: capturedAt,
	}
}

// parseEpoch reads createTime, which is a number in the SIGI blob and a
// quoted string in the rehydration blob.
func parseEpoch(raw json.RawMessage) int64 {
	trimmed := bytes.Trim(bytes.TrimSpace(raw), `"`)
	if len(trimmed) == 0 {
		return 0
	}
	n, err := strconv.ParseInt(string(trimmed), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
