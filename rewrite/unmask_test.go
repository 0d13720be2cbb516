package rewrite_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/htscore/htscore/catalog"
	"github.com/htscore/htscore/domain"
	"github.com/htscore/htscore/errs"
	"github.com/htscore/htscore/rewrite"
	"github.com/htscore/htscore/space"
)

// Open Question (a): a Quotient whose kernel unmasks down to nothing (every
// kernel code was itself already enforced by the seed's own mask) is
// rejected as a structural error rather than silently compiled as a
// no-grouping quotient.
func TestUnmaskRejectsEmptyKernel(t *testing.T) {
	root := space.NewRoot()
	users := &catalog.Table{Name: "users", Columns: []catalog.Column{{Name: "id"}}}
	usersSpace := space.NewDirectTable(root, users)

	// A kernel that is itself already dominated by the seed (a ScalarUnit
	// over usersSpace, which dominates usersSpace) unmasks away to nothing.
	kernel := space.NewScalarUnit(space.NewLiteral(int64(1), domain.Integer{}), usersSpace)
	quotient := space.NewQuotient(root, usersSpace, []space.Code{kernel})

	st := rewrite.NewState(root)
	_, err := st.Unmask(quotient, root)
	require.Error(t, err)
	require.True(t, errs.ErrEmptyKernel.Is(err))
}
