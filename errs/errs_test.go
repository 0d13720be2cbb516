package errs_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/htscore/htscore/errs"
)

func TestKindNewIsRecognisedByIs(t *testing.T) {
	err := errs.ErrNameNotFound.New("code")
	require.True(t, errs.ErrNameNotFound.Is(err))
	require.False(t, errs.ErrAmbiguous.Is(err))
}

func TestNewWrapsAKindErrorWithoutDoubleWrapping(t *testing.T) {
	cause := errs.ErrTypeMismatch.New("text")
	wrapped := errs.New(cause)
	require.True(t, errs.ErrTypeMismatch.Is(wrapped))

	again := errs.New(wrapped)
	require.Same(t, wrapped, again, "New must not re-wrap an already-wrapped *Error")
}

func TestTranslateGuardPushesAFrameOnlyWhenAnErrorLeavesTheScope(t *testing.T) {
	run := func(fail bool) (err error) {
		defer errs.TranslateGuard(&err, "compiling table school", errs.Mark{Line: 1, Column: 1})
		if fail {
			err = errs.ErrNameNotFound.New("code")
		}
		return err
	}

	require.NoError(t, run(false))

	err := run(true)
	require.Error(t, err)
	var ce *errs.Error
	require.True(t, errors.As(err, &ce))
	require.Len(t, ce.Frames, 1)
	require.Equal(t, "compiling table school", ce.Frames[0].Note)
	require.True(t, errs.ErrNameNotFound.Is(err))
}

func TestTranslateGuardStacksFramesInnermostFirstAcrossNestedScopes(t *testing.T) {
	inner := func() (err error) {
		defer errs.TranslateGuard(&err, "inner", errs.Mark{Line: 2, Column: 1})
		return errs.ErrEmptyKernel.New()
	}
	outer := func() (err error) {
		defer errs.TranslateGuard(&err, "outer", errs.Mark{Line: 1, Column: 1})
		return inner()
	}

	err := outer()
	var ce *errs.Error
	require.True(t, errors.As(err, &ce))
	require.Len(t, ce.Frames, 2)
	require.Equal(t, "inner", ce.Frames[0].Note)
	require.Equal(t, "outer", ce.Frames[1].Note)
}

func TestMarkStringOmitsSourceWhenEmpty(t *testing.T) {
	require.Equal(t, "3:4", errs.Mark{Line: 3, Column: 4}.String())
	require.Equal(t, "q:3:4", errs.Mark{Source: "q", Line: 3, Column: 4}.String())
}
