package rewrite_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/htscore/htscore/catalog"
	"github.com/htscore/htscore/space"
)

// Open Question (c): spec.md §9 asks whether "all elements of B are
// dominated by some element of A" should be modeled as a distinct relation
// or folded into Conforms. This repo folds it into Conforms outright
// (space.Conforms is defined as mutual Dominates); this test exercises that
// decision against a handful of generated space pairs so a future change to
// either definition trips it.
func TestConformsIsMutualDominance(t *testing.T) {
	root := space.NewRoot()
	users := &catalog.Table{Name: "users", Columns: []catalog.Column{{Name: "id"}}}
	posts := &catalog.Table{Name: "posts", Columns: []catalog.Column{{Name: "id"}, {Name: "user_id"}}}
	join := catalog.Join{
		Direction: catalog.Direct, OriginTable: "posts", OriginColumns: []string{"user_id"},
		TargetTable: "users", TargetColumns: []string{"id"}, IsSingular: true, IsTotal: true,
	}

	usersSpace := space.NewDirectTable(root, users)
	postsSpace := space.NewDirectTable(root, posts)
	fiberSpace := space.NewFiberTable(postsSpace, join, users)

	pairs := []struct {
		name string
		a, b space.Space
	}{
		{"same-space", usersSpace, usersSpace},
		{"unrelated-tables", usersSpace, postsSpace},
		{"fiber-vs-origin-table", fiberSpace, usersSpace},
		{"scalar-wrap", space.NewScalar(usersSpace), usersSpace},
	}

	for _, p := range pairs {
		t.Run(p.name, func(t *testing.T) {
			want := space.Dominates(p.a, p.b) && space.Dominates(p.b, p.a)
			require.Equal(t, want, space.Conforms(p.a, p.b))
			require.Equal(t, want, space.Conforms(p.b, p.a))
		})
	}
}
