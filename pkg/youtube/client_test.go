package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"threadvault/internal/testutil"
	"threadvault/pkg/client"
)

func newTestBinding(t *testing.T) (*Client, *testutil.MockAPI) {
	t.Helper()
	mock := testutil.NewMockAPI()
	t.Cleanup(mock.Close)

	httpClient := client.New(client.Config{RequestsPerSecond: 0})
	return NewClient(httpClient, "test-key", WithBaseURL(mock.URL())), mock
}

func TestPlaylistItemsPaginatesToCompletion(t *testing.T) {
	yt, mock := newTestBinding(t)

	mock.SetHandler("/playlistItems", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			http.Error(w, "missing key", http.StatusUnauthorized)
			return
		}
		switch r.URL.Query().Get("pageToken") {
		case "":
			fmt.Fprint(w, `{"items":[{"snippet":{"resourceId":{"videoId":"vid1"}}},{"snippet":{"resourceId":{"videoId":"vid2"}}}],"nextPageToken":"p2"}`)
		case "p2":
			fmt.Fprint(w, `{"items":[{"snippet":{"resourceId":{"videoId":"vid3"}}}]}`)
		default:
			http.Error(w, "bad token", http.StatusBadRequest)
		}
	})

	ids, err := yt.PlaylistItems(context.Background(), "PL123")
	if err != nil {
		t.Fatalf("PlaylistItems error = %v", err)
	}

	want := []string{"vid1", "vid2", "vid3"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i, id := range want {
		if ids[i] != id {
			t.Errorf("ids[%d] = %s, want %s", i, ids[i], id)
		}
	}
	if n := mock.CountFor("/playlistItems"); n != 2 {
		t.Errorf("playlistItems requests = %d, want 2", n)
	}
}

func TestPlaylistItemsKeepsPartialOnFailure(t *testing.T) {
	yt, mock := newTestBinding(t)

	mock.SetHandler("/playlistItems", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pageToken") == "" {
			fmt.Fprint(w, `{"items":[{"snippet":{"resourceId":{"videoId":"vid1"}}}],"nextPageToken":"p2"}`)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
	})

	ids, err := yt.PlaylistItems(context.Background(), "PL123")
	if err == nil {
		t.Fatal("expected error from failed second page")
	}
	if len(ids) != 1 || ids[0] != "vid1" {
		t.Errorf("partial ids = %v, want [vid1]", ids)
	}
}

func TestVideoWithFlattenedComments(t *testing.T) {
	yt, mock := newTestBinding(t)

	mock.SetHandler("/videos", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id"); got != "abc12345678" {
			http.Error(w, "wrong id "+got, http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"items":[{"id":"abc12345678","snippet":{"title":"Demo","channelId":"ch1","channelTitle":"Chan","publishedAt":"2024-01-15T10:00:00Z"},"statistics":{"viewCount":"1200","likeCount":"34"}}]}`)
	})

	mock.SetHandler("/commentThreads", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[{"id":"th1","snippet":{"topLevelComment":{"id":"c1","snippet":{"authorDisplayName":"alice","textDisplay":"nice","publishedAt":"2024-01-16T08:00:00Z"}},"totalReplyCount":2},"replies":{"comments":[{"id":"c2","snippet":{"authorDisplayName":"bob","textDisplay":"agreed"}},{"id":"c3","snippet":{"authorDisplayName":"carol","textDisplay":"same"}}]}}]}`)
	})

	video, err := yt.Video(context.Background(), "abc12345678")
	if err != nil {
		t.Fatalf("Video error = %v", err)
	}

	if video.Title != "Demo" || video.ViewCount != 1200 || video.LikeCount != 34 {
		t.Errorf("video = %+v", video)
	}
	if len(video.Comments) != 3 {
		t.Fatalf("comments = %d, want 3", len(video.Comments))
	}
	if video.Comments[0].ID != "c1" || video.Comments[0].ParentID != "" {
		t.Errorf("top comment = %+v", video.Comments[0])
	}
	for _, i := range []int{1, 2} {
		if video.Comments[i].ParentID != "c1" {
			t.Errorf("reply %d ParentID = %q, want c1", i, video.Comments[i].ParentID)
		}
	}
}

func TestVideoNotFound(t *testing.T) {
	yt, mock := newTestBinding(t)

	mock.SetHandler("/videos", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[]}`)
	})

	if _, err := yt.Video(context.Background(), "gone4567890"); err == nil {
		t.Fatal("expected error for missing video")
	}
}

func TestVideoSurvivesCommentScanFailure(t *testing.T) {
	yt, mock := newTestBinding(t)

	mock.SetHandler("/videos", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[{"id":"abc12345678","snippet":{"title":"Demo"},"statistics":{}}]}`)
	})
	mock.SetHandler("/commentThreads", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("pageToken") {
		case "":
			fmt.Fprint(w, `{"items":[{"id":"th1","snippet":{"topLevelComment":{"id":"c1","snippet":{"authorDisplayName":"alice","textDisplay":"hi"}}}}],"nextPageToken":"p2"}`)
		default:
			http.Error(w, "server error", http.StatusInternalServerError)
		}
	})

	video, err := yt.Video(context.Background(), "abc12345678")
	if err != nil {
		t.Fatalf("Video error = %v, want success despite comment failure", err)
	}
	if len(video.Comments) != 1 {
		t.Errorf("comments = %d, want 1 partial comment", len(video.Comments))
	}
}

func TestVideoMalformedResponse(t *testing.T) {
	yt, mock := newTestBinding(t)

	mock.SetHandler("/videos", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[{`)
	})

	_, err := yt.Video(context.Background(), "abc12345678")
	if !errors.Is(err, client.ErrMalformedResponse) {
		t.Fatalf("error = %v, want ErrMalformedResponse", err)
	}
}
