package history

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/codegraph/codegraph/internal/vcs"
)

// WalkDirection is the one direction the builder walks history. Diff
// classification is always oriented as "changes that turn the commit we
// are at into the commit we are moving to"; reversing this convention
// silently swaps additions and deletions, so it is pinned here and held
// by the round-trip test.
const WalkDirection = "backward-from-HEAD"

// IgnorePredicate builds a path predicate from glob patterns. A path is
// ignored when any pattern matches it as a glob or as a leading path
// prefix.
func IgnorePredicate(patterns []string) func(string) bool {
	return func(path string) bool {
		for _, pat := range patterns {
			if ok, err := doublestar.Match(pat, path); err == nil && ok {
				return true
			}
			if strings.HasPrefix(path, pat) {
				return true
			}
		}
		return false
	}
}

// classifyChanges splits a diff into added, deleted and modified path
// sets, dropping ignored paths.
func classifyChanges(changes []vcs.Change, ignored func(string) bool) (added, deleted, modified []string) {
	for _, ch := range changes {
		if ignored != nil && ignored(ch.Path) {
			continue
		}
		switch ch.Kind {
		case vcs.Added:
			added = append(added, ch.Path)
		case vcs.Deleted:
			deleted = append(deleted, ch.Path)
		case vcs.Modified:
			modified = append(modified, ch.Path)
		}
	}
	return added, deleted, modified
}
