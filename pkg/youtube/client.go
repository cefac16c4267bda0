// Package youtube binds the YouTube Data API v3 to the aggregation
// engine: videos.list for entity details, playlistItems.list for
// container expansion, commentThreads.list for the comment trees.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"threadvault/pkg/client"
	"threadvault/pkg/flatten"
	"threadvault/pkg/logging"
	"threadvault/pkg/page"
)

const (
	defaultBaseURL = "https://www.googleapis.com/youtube/v3"
	domain         = "youtube"

	playlistPageSize = 50
	commentPageSize  = 100
)

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(base string) ClientOption {
	return func(c *Client) {
		c.baseURL = base
	}
}

// Client is the YouTube Data API binding. Safe for concurrent use.
type Client struct {
	http    *client.Client
	apiKey  string
	baseURL string
	logger  zerolog.Logger
}

// NewClient creates a YouTube binding authenticated with an API key.
func NewClient(httpClient *client.Client, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		http:    httpClient,
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		logger:  logging.NewLogger("youtube"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) endpoint(resource string, params url.Values) string {
	params.Set("key", c.apiKey)
	return fmt.Sprintf("%s/%s?%s", c.baseURL, resource, params.Encode())
}

// PlaylistItems expands a playlist container into its member video IDs in
// playlist order. A failed scan returns the members discovered so far
// together with the error.
func (c *Client) PlaylistItems(ctx context.Context, playlistID string) ([]string, error) {
	policy := c.http.NewPolicy(domain, "playlist:"+playlistID)

	paginator := page.NewPaginator("playlist:"+playlistID, func(ctx context.Context, cursor string) (page.Page[string], error) {
		params := url.Values{}
		params.Set("part", "snippet")
		params.Set("playlistId", playlistID)
		params.Set("maxResults", strconv.Itoa(playlistPageSize))
		if cursor != "" {
			params.Set("pageToken", cursor)
		}

		body, err := c.http.GetJSON(ctx, policy, domain, c.endpoint("playlistItems", params), nil)
		if err != nil {
			return page.Page[string]{}, err
		}

		var resp playlistItemsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return page.Page[string]{}, fmt.Errorf("%w: playlistItems: %v", client.ErrMalformedResponse, err)
		}

		ids := make([]string, 0, len(resp.Items))
		for _, item := range resp.Items {
			ids = append(ids, item.Snippet.ResourceID.VideoID)
		}
		return page.New(ids, resp.NextPageToken, resp.NextPageToken != ""), nil
	})

	return paginator.All(ctx)
}

// Video fetches one video's details and its full flattened comment list.
//
// A failure while paging through comments does not fail the video: the
// comments collected so far are kept and the gap is logged, matching the
// partial-result rule for container scans.
func (c *Client) Video(ctx context.Context, id string) (*Video, error) {
	params := url.Values{}
	params.Set("part", "snippet,statistics")
	params.Set("id", id)

	policy := c.http.NewPolicy(domain, "video:"+id)
	body, err := c.http.GetJSON(ctx, policy, domain, c.endpoint("videos", params), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch video %s: %w", id, err)
	}

	var resp videoListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: videos: %v", client.ErrMalformedResponse, err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("video %s not found or private", id)
	}

	item := resp.Items[0]
	published, _ := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
	viewCount, _ := strconv.ParseInt(item.Statistics.ViewCount, 10, 64)
	likeCount, _ := strconv.ParseInt(item.Statistics.LikeCount, 10, 64)

	video := &Video{
		ID:           item.ID,
		Title:        item.Snippet.Title,
		Description:  item.Snippet.Description,
		ChannelID:    item.Snippet.ChannelID,
		ChannelTitle: item.Snippet.ChannelTitle,
		PublishedAt:  published,
		ViewCount:    viewCount,
		LikeCount:    likeCount,
	}

	comments, err := c.commentThreads(ctx, id)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("entity_id", id).
			Int("comments", len(comments)).
			Msg("Comment scan incomplete, archiving what was fetched")
	}
	video.Comments = comments

	return video, nil
}

// commentThreads walks the video's comment thread stream and flattens each
// thread into parent-referencing records.
func (c *Client) commentThreads(ctx context.Context, videoID string) ([]flatten.Node, error) {
	policy := c.http.NewPolicy(domain, "comments:"+videoID)

	paginator := page.NewPaginator("comments:"+videoID, func(ctx context.Context, cursor string) (page.Page[flatten.Thread], error) {
		params := url.Values{}
		params.Set("part", "snippet,replies")
		params.Set("videoId", videoID)
		params.Set("maxResults", strconv.Itoa(commentPageSize))
		params.Set("order", "time")
		if cursor != "" {
			params.Set("pageToken", cursor)
		}

		body, err := c.http.GetJSON(ctx, policy, domain, c.endpoint("commentThreads", params), nil)
		if err != nil {
			return page.Page[flatten.Thread]{}, err
		}

		var resp commentThreadsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return page.Page[flatten.Thread]{}, fmt.Errorf("%w: commentThreads: %v", client.ErrMalformedResponse, err)
		}

		threads := make([]flatten.Thread, 0, len(resp.Items))
		for _, item := range resp.Items {
			th := flatten.Thread{Top: item.Snippet.TopLevelComment.node()}
			for _, reply := range item.Replies.Comments {
				th.Replies = append(th.Replies, reply.node())
			}
			threads = append(threads, th)
		}
		return page.New(threads, resp.NextPageToken, resp.NextPageToken != ""), nil
	})

	threads, err := paginator.All(ctx)
	return flatten.Flatten(threads), err
}
