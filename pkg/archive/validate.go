package archive

import (
	"fmt"
	"regexp"
	"strings"
)

// Input ID shapes. Validation failures here are the only fatal errors the
// engine raises: they abort the run before any fetching begins.
var (
	videoIDRe    = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	playlistIDRe = regexp.MustCompile(`^(PL|UU|LL|FL|OL)[A-Za-z0-9_-]{10,}$`)
	repoRe       = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]*/[A-Za-z0-9._-]+$`)
)

// Validate checks every input ID before any network work starts.
func (r Request) Validate() error {
	for _, id := range r.VideoIDs {
		if !videoIDRe.MatchString(id) {
			return fmt.Errorf("invalid video ID %q", id)
		}
	}
	for _, id := range r.PlaylistIDs {
		if !playlistIDRe.MatchString(id) {
			return fmt.Errorf("invalid playlist ID %q", id)
		}
	}
	for _, repo := range r.Repos {
		if !repoRe.MatchString(repo) {
			return fmt.Errorf("invalid repository %q, want owner/name", repo)
		}
	}
	return nil
}

// splitRepo breaks an owner/name scope into its parts. Only called after
// Validate has accepted the shape.
func splitRepo(repo string) (owner, name string) {
	parts := strings.SplitN(repo, "/", 2)
	return parts[0], parts[1]
}
