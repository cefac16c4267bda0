// Package github binds the GitHub GraphQL API to the aggregation engine:
// issues and discussions per repository scope, with nested comment
// connections drained through the same cursor model as everything else.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"threadvault/pkg/client"
	"threadvault/pkg/flatten"
	"threadvault/pkg/logging"
	"threadvault/pkg/page"
	"threadvault/pkg/ratelimit"
)

const (
	defaultEndpoint = "https://api.github.com/graphql"
	domain          = "github"
)

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithEndpoint overrides the GraphQL endpoint (used by tests).
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// Client is the GitHub GraphQL binding. Safe for concurrent use.
type Client struct {
	http     *client.Client
	token    string
	endpoint string
	logger   zerolog.Logger
}

// NewClient creates a GitHub binding authenticated with a bearer token.
func NewClient(httpClient *client.Client, token string, opts ...ClientOption) *Client {
	c := &Client{
		http:     httpClient,
		token:    token,
		endpoint: defaultEndpoint,
		logger:   logging.NewLogger("github"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// do executes one GraphQL exchange under the stream's policy and decodes
// the data envelope into out.
func (c *Client) do(ctx context.Context, p *ratelimit.Policy, query string, vars map[string]any, out any) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.token)

	body, err := c.http.PostJSON(ctx, p, domain, c.endpoint, header, graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return err
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("%w: graphql envelope: %v", client.ErrMalformedResponse, err)
	}
	if len(envelope.Errors) > 0 {
		msgs := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("graphql rejected query: %s", strings.Join(msgs, "; "))
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("%w: graphql data: %v", client.ErrMalformedResponse, err)
	}
	return nil
}

// Issues fetches all issues of a repository, optionally filtered by
// labels, each with its full flattened comment list. A mid-scan failure
// returns the issues collected so far together with the error.
func (c *Client) Issues(ctx context.Context, owner, name string, labels []string) ([]Issue, error) {
	stream := fmt.Sprintf("issues:%s/%s", owner, name)
	policy := c.http.NewPolicy(domain, stream)

	var labelsVar any
	if len(labels) > 0 {
		labelsVar = labels
	}

	paginator := page.NewPaginator(stream, func(ctx context.Context, cursor string) (page.Page[issueNode], error) {
		vars := map[string]any{"owner": owner, "name": name, "labels": labelsVar}
		if cursor != "" {
			vars["cursor"] = cursor
		}

		var data issuesData
		if err := c.do(ctx, policy, issuesQuery, vars, &data); err != nil {
			return page.Page[issueNode]{}, err
		}

		conn := data.Repository.Issues
		return page.New(conn.Nodes, conn.PageInfo.EndCursor, conn.PageInfo.HasNextPage), nil
	})

	nodes, pageErr := paginator.All(ctx)

	issues := make([]Issue, 0, len(nodes))
	for _, n := range nodes {
		issues = append(issues, c.buildIssue(ctx, n))
	}
	return issues, pageErr
}

func (c *Client) buildIssue(ctx context.Context, n issueNode) Issue {
	labels := make([]string, 0, len(n.Labels.Nodes))
	for _, l := range n.Labels.Nodes {
		labels = append(labels, l.Name)
	}

	comments := make([]flatten.Node, 0, len(n.Comments.Nodes))
	for _, cm := range n.Comments.Nodes {
		comments = append(comments, cm.node())
	}

	// Drain the comment connection when the first page overflowed.
	if n.Comments.PageInfo.HasNextPage {
		rest, err := c.issueComments(ctx, n.ID, n.Comments.PageInfo.EndCursor)
		if err != nil {
			c.logger.Warn().
				Err(err).
				Str("entity_id", n.ID).
				Int("comments", len(comments)+len(rest)).
				Msg("Comment scan incomplete, archiving what was fetched")
		}
		comments = append(comments, rest...)
	}

	created, _ := parseTime(n.CreatedAt)
	return Issue{
		ID:        n.ID,
		Number:    n.Number,
		Title:     n.Title,
		URL:       n.URL,
		State:     n.State,
		Author:    n.Author.Login,
		Body:      n.Body,
		Labels:    labels,
		CreatedAt: created,
		Comments:  comments,
	}
}

// issueComments drains the remainder of an issue's comment connection
// starting at cursor.
func (c *Client) issueComments(ctx context.Context, issueID, cursor string) ([]flatten.Node, error) {
	stream := "issue-comments:" + issueID
	policy := c.http.NewPolicy(domain, stream)

	paginator := page.NewPaginator(stream, func(ctx context.Context, pageCursor string) (page.Page[flatten.Node], error) {
		if pageCursor == "" {
			pageCursor = cursor
		}
		vars := map[string]any{"id": issueID, "cursor": pageCursor}

		var data issueCommentsData
		if err := c.do(ctx, policy, issueCommentsQuery, vars, &data); err != nil {
			return page.Page[flatten.Node]{}, err
		}

		conn := data.Node.Comments
		nodes := make([]flatten.Node, 0, len(conn.Nodes))
		for _, cm := range conn.Nodes {
			nodes = append(nodes, cm.node())
		}
		return page.New(nodes, conn.PageInfo.EndCursor, conn.PageInfo.HasNextPage), nil
	})

	return paginator.All(ctx)
}

// Discussions fetches all discussions of a repository, each with comments
// and one level of replies flattened into parent-referencing records.
func (c *Client) Discussions(ctx context.Context, owner, name string) ([]Discussion, error) {
	stream := fmt.Sprintf("discussions:%s/%s", owner, name)
	policy := c.http.NewPolicy(domain, stream)

	paginator := page.NewPaginator(stream, func(ctx context.Context, cursor string) (page.Page[discussionNode], error) {
		vars := map[string]any{"owner": owner, "name": name}
		if cursor != "" {
			vars["cursor"] = cursor
		}

		var data discussionsData
		if err := c.do(ctx, policy, discussionsQuery, vars, &data); err != nil {
			return page.Page[discussionNode]{}, err
		}

		conn := data.Repository.Discussions
		return page.New(conn.Nodes, conn.PageInfo.EndCursor, conn.PageInfo.HasNextPage), nil
	})

	nodes, pageErr := paginator.All(ctx)

	discussions := make([]Discussion, 0, len(nodes))
	for _, n := range nodes {
		discussions = append(discussions, c.buildDiscussion(ctx, n))
	}
	return discussions, pageErr
}

func (c *Client) buildDiscussion(ctx context.Context, n discussionNode) Discussion {
	threads := make([]flatten.Thread, 0, len(n.Comments.Nodes))
	for _, cm := range n.Comments.Nodes {
		threads = append(threads, cm.thread())
	}

	if n.Comments.PageInfo.HasNextPage {
		rest, err := c.discussionComments(ctx, n.ID, n.Comments.PageInfo.EndCursor)
		if err != nil {
			c.logger.Warn().
				Err(err).
				Str("entity_id", n.ID).
				Msg("Comment scan incomplete, archiving what was fetched")
		}
		threads = append(threads, rest...)
	}

	created, _ := parseTime(n.CreatedAt)
	return Discussion{
		ID:        n.ID,
		Number:    n.Number,
		Title:     n.Title,
		URL:       n.URL,
		Author:    n.Author.Login,
		Body:      n.Body,
		Category:  n.Category.Name,
		CreatedAt: created,
		Comments:  flatten.Flatten(threads),
	}
}

// discussionComments drains the remainder of a discussion's comment
// connection starting at cursor.
func (c *Client) discussionComments(ctx context.Context, discussionID, cursor string) ([]flatten.Thread, error) {
	stream := "discussion-comments:" + discussionID
	policy := c.http.NewPolicy(domain, stream)

	paginator := page.NewPaginator(stream, func(ctx context.Context, pageCursor string) (page.Page[flatten.Thread], error) {
		if pageCursor == "" {
			pageCursor = cursor
		}
		vars := map[string]any{"id": discussionID, "cursor": pageCursor}

		var data discussionCommentsData
		if err := c.do(ctx, policy, discussionCommentsQuery, vars, &data); err != nil {
			return page.Page[flatten.Thread]{}, err
		}

		conn := data.Node.Comments
		threads := make([]flatten.Thread, 0, len(conn.Nodes))
		for _, cm := range conn.Nodes {
			threads = append(threads, cm.thread())
		}
		return page.New(threads, conn.PageInfo.EndCursor, conn.PageInfo.HasNextPage), nil
	})

	return paginator.All(ctx)
}
