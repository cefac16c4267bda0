package youtube

import (
	"time"

	"threadvault/pkg/flatten"
)

// Video is an archived video with its flattened comment list.
type Video struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	ChannelID    string         `json:"channel_id"`
	ChannelTitle string         `json:"channel_title"`
	PublishedAt  time.Time      `json:"published_at"`
	ViewCount    int64          `json:"view_count"`
	LikeCount    int64          `json:"like_count"`
	Comments     []flatten.Node `json:"comments"`
}

// Wire types for the YouTube Data API v3 JSON envelope. Only the fields
// the archiver reads are declared.

type videoListResponse struct {
	Items []videoItem `json:"items"`
}

type videoItem struct {
	ID      string `json:"id"`
	Snippet struct {
		Title        string `json:"title"`
		Description  string `json:"description"`
		ChannelID    string `json:"channelId"`
		ChannelTitle string `json:"channelTitle"`
		PublishedAt  string `json:"publishedAt"`
	} `json:"snippet"`
	Statistics struct {
		ViewCount string `json:"viewCount"`
		LikeCount string `json:"likeCount"`
	} `json:"statistics"`
}

type playlistItemsResponse struct {
	Items []struct {
		Snippet struct {
			ResourceID struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	} `json:"items"`
	NextPageToken string `json:"nextPageToken"`
}

type commentThreadsResponse struct {
	Items         []commentThreadItem `json:"items"`
	NextPageToken string              `json:"nextPageToken"`
}

type commentThreadItem struct {
	ID      string `json:"id"`
	Snippet struct {
		TopLevelComment commentItem `json:"topLevelComment"`
		TotalReplyCount int         `json:"totalReplyCount"`
	} `json:"snippet"`
	Replies struct {
		Comments []commentItem `json:"comments"`
	} `json:"replies"`
}

type commentItem struct {
	ID      string `json:"id"`
	Snippet struct {
		AuthorDisplayName string `json:"authorDisplayName"`
		TextDisplay       string `json:"textDisplay"`
		PublishedAt       string `json:"publishedAt"`
	} `json:"snippet"`
}

func (c commentItem) node() flatten.Node {
	published, _ := time.Parse(time.RFC3339, c.Snippet.PublishedAt)
	return flatten.Node{
		ID:          c.ID,
		Author:      c.Snippet.AuthorDisplayName,
		Text:        c.Snippet.TextDisplay,
		PublishedAt: published,
	}
}
