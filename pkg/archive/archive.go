// Package archive orchestrates the aggregation engine: container
// expansion, memoized concurrent entity fetches, and the deterministic
// merge into the final collection. The engine performs no file I/O; the
// caller serializes the returned Archive.
package archive

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"threadvault/pkg/aggregate"
	"threadvault/pkg/github"
	"threadvault/pkg/logging"
	"threadvault/pkg/memo"
	"threadvault/pkg/youtube"
)

var runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "threadvault_runs_total",
	Help: "Archive runs by outcome",
}, []string{"outcome"})

// Request describes one archive run.
type Request struct {
	// VideoIDs are directly requested videos.
	VideoIDs []string

	// PlaylistIDs are playlist containers to expand into member videos.
	PlaylistIDs []string

	// Repos are owner/name scopes to archive issues (and optionally
	// discussions) from.
	Repos []string

	// Labels filters issues; empty means all issues.
	Labels []string

	// IncludeDiscussions adds the discussions dataset per repo.
	IncludeDiscussions bool
}

// Archive is the final ordered, deduplicated collection of one run.
type Archive struct {
	Videos      []youtube.Video     `json:"videos,omitempty"`
	Issues      []github.Issue      `json:"issues,omitempty"`
	Discussions []github.Discussion `json:"discussions,omitempty"`
}

// Archiver runs the engine against the two API bindings. Either binding
// may be nil when the corresponding inputs are absent.
type Archiver struct {
	yt          *youtube.Client
	gh          *github.Client
	concurrency int
	logger      zerolog.Logger
}

// New creates an archiver. concurrency bounds the in-flight entity
// fetches per domain; values below 1 fall back to 4.
func New(yt *youtube.Client, gh *github.Client, concurrency int) *Archiver {
	if concurrency < 1 {
		concurrency = 4
	}
	return &Archiver{
		yt:          yt,
		gh:          gh,
		concurrency: concurrency,
		logger:      logging.NewLogger("archive"),
	}
}

// Run executes one archive run. Per-stream failures are isolated and
// reported; the only error returned is a failed input validation or an
// unusable configuration. A partially failed run still yields every
// entity that succeeded.
func (a *Archiver) Run(ctx context.Context, req Request) (*Archive, *aggregate.Report, error) {
	if err := req.Validate(); err != nil {
		runsTotal.WithLabelValues("invalid_input").Inc()
		return nil, nil, err
	}

	rep := aggregate.NewReport()
	out := &Archive{}

	if a.yt != nil && (len(req.VideoIDs) > 0 || len(req.PlaylistIDs) > 0) {
		out.Videos = a.archiveVideos(ctx, req, rep)
	}
	if a.gh != nil && len(req.Repos) > 0 {
		out.Issues, out.Discussions = a.archiveRepos(ctx, req, rep)
	}

	succeeded, failed := rep.Counts()
	a.logger.Info().
		Int("succeeded", succeeded).
		Int("failed", failed).
		Int("containers", len(rep.Containers())).
		Msg("Archive run complete")
	runsTotal.WithLabelValues("completed").Inc()

	return out, rep, nil
}

// archiveVideos expands playlist containers, fetches every reachable
// video at most once, and merges the streams in declaration order.
func (a *Archiver) archiveVideos(ctx context.Context, req Request, rep *aggregate.Report) []youtube.Video {
	resolver := memo.NewResolver(func(ctx context.Context, id string) (*youtube.Video, error) {
		return a.yt.Video(ctx, id)
	})

	// Expand containers concurrently; slots keep submission order.
	members := make([][]string, len(req.PlaylistIDs))
	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, playlistID := range req.PlaylistIDs {
		g.Go(func() error {
			ids, err := a.yt.PlaylistItems(ctx, playlistID)
			rep.Container("playlist:"+playlistID, len(ids), err)
			members[i] = ids
			return nil
		})
	}
	g.Wait()

	// Fan out detail fetches. The resolver deduplicates IDs reachable
	// both directly and via a container.
	var fetch errgroup.Group
	fetch.SetLimit(a.concurrency)
	for _, ids := range append([][]string{req.VideoIDs}, members...) {
		for _, id := range ids {
			fetch.Go(func() error {
				resolver.Resolve(ctx, id)
				return nil
			})
		}
	}
	fetch.Wait()

	sources := make([]aggregate.Source[youtube.Video], 0, 1+len(req.PlaylistIDs))
	sources = append(sources, aggregate.Source[youtube.Video]{
		Name:    "direct",
		Results: videoSlots(ctx, resolver, req.VideoIDs),
	})
	for i, playlistID := range req.PlaylistIDs {
		sources = append(sources, aggregate.Source[youtube.Video]{
			Name:      "playlist:" + playlistID,
			Container: true,
			Results:   videoSlots(ctx, resolver, members[i]),
		})
	}

	return aggregate.Merge(rep, sources...)
}

// videoSlots reads memoized outcomes into ordered result slots.
func videoSlots(ctx context.Context, resolver *memo.Resolver[*youtube.Video], ids []string) []aggregate.Result[youtube.Video] {
	slots := make([]aggregate.Result[youtube.Video], 0, len(ids))
	for _, id := range ids {
		v, err := resolver.Resolve(ctx, id)
		if err != nil {
			slots = append(slots, aggregate.Failed[youtube.Video](id, err))
			continue
		}
		slots = append(slots, aggregate.Ok(id, *v))
	}
	return slots
}

// archiveRepos scans each repository scope at most once and merges issue
// and discussion streams in repo submission order.
func (a *Archiver) archiveRepos(ctx context.Context, req Request, rep *aggregate.Report) ([]github.Issue, []github.Discussion) {
	issueScans := memo.NewResolver(func(ctx context.Context, repo string) ([]github.Issue, error) {
		owner, name := splitRepo(repo)
		issues, err := a.gh.Issues(ctx, owner, name, req.Labels)
		rep.Container("issues:"+repo, len(issues), err)
		// Partial scans stay useful; the error is recorded per container.
		return issues, nil
	})
	discussionScans := memo.NewResolver(func(ctx context.Context, repo string) ([]github.Discussion, error) {
		owner, name := splitRepo(repo)
		discussions, err := a.gh.Discussions(ctx, owner, name)
		rep.Container("discussions:"+repo, len(discussions), err)
		return discussions, nil
	})

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for _, repo := range req.Repos {
		g.Go(func() error {
			issueScans.Resolve(ctx, repo)
			return nil
		})
		if req.IncludeDiscussions {
			g.Go(func() error {
				discussionScans.Resolve(ctx, repo)
				return nil
			})
		}
	}
	g.Wait()

	issueSources := make([]aggregate.Source[github.Issue], 0, len(req.Repos))
	discussionSources := make([]aggregate.Source[github.Discussion], 0, len(req.Repos))
	for _, repo := range req.Repos {
		issues, _ := issueScans.Resolve(ctx, repo)
		src := aggregate.Source[github.Issue]{Name: "issues:" + repo, Container: true}
		for _, is := range issues {
			src.Results = append(src.Results, aggregate.Ok(is.ID, is))
		}
		issueSources = append(issueSources, src)

		if req.IncludeDiscussions {
			discussions, _ := discussionScans.Resolve(ctx, repo)
			dsrc := aggregate.Source[github.Discussion]{Name: "discussions:" + repo, Container: true}
			for _, d := range discussions {
				dsrc.Results = append(dsrc.Results, aggregate.Ok(d.ID, d))
			}
			discussionSources = append(discussionSources, dsrc)
		}
	}

	mergedIssues := aggregate.Merge(rep, issueSources...)
	var mergedDiscussions []github.Discussion
	if req.IncludeDiscussions {
		mergedDiscussions = aggregate.Merge(rep, discussionSources...)
	}
	return mergedIssues, mergedDiscussions
}
