package report

import (
	"sort"
	"strings"

	"github.com/leodido/go-conventionalcommits"
	"github.com/leodido/go-conventionalcommits/parser"

	"github.com/bashhack/gitsync/internal/git"
	"github.com/bashhack/gitsync/internal/syncer"
)

// OtherType counts subjects that are not conventional commits.
const OtherType = "other"

// TypeCount is the number of commits of one conventional-commit type.
type TypeCount struct {
	Type  string
	Count int
}

// CommitType returns the conventional-commit type of a subject such as
// "feat(api): add endpoint", or OtherType.
func CommitType(subject string) string {
	machine := parser.NewMachine(conventionalcommits.WithTypes(conventionalcommits.TypesConventional))
	msg, err := machine.Parse([]byte(subject))
	if err != nil {
		return OtherType
	}
	cc, ok := msg.(*conventionalcommits.ConventionalCommit)
	if !ok || cc.Type == "" {
		return OtherType
	}
	return strings.ToLower(cc.Type)
}

// Breakdown counts commits by type, most frequent first. Ties are ordered
// by type name.
func Breakdown(commits []git.Commit) []TypeCount {
	counts := make(map[string]int)
	for _, c := range commits {
		counts[CommitType(c.Subject)]++
	}

	breakdown := make([]TypeCount, 0, len(counts))
	for t, n := range counts {
		breakdown = append(breakdown, TypeCount{Type: t, Count: n})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].Count != breakdown[j].Count {
			return breakdown[i].Count > breakdown[j].Count
		}
		return breakdown[i].Type < breakdown[j].Type
	})
	return breakdown
}

// PushedCommits returns the distinct commits pushed to at least one remote,
// or planned for pushing in a dry run, in first-seen order.
func PushedCommits(run *syncer.Run) []git.Commit {
	seen := make(map[string]bool)
	var commits []git.Commit
	for _, r := range run.Results {
		for _, c := range r.Gap[:r.Pushed] {
			if seen[c.Hash] {
				continue
			}
			seen[c.Hash] = true
			commits = append(commits, c)
		}
	}
	return commits
}
