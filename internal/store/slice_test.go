package store

import (
	"context"
	"errors"
	"testing"

	"padtracker-console/internal/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceLifecycle(t *testing.T) {
	s := NewSlice[[]string]("machines")
	assert.Equal(t, StatusIdle, s.Snapshot().Status)

	seq := s.Begin()
	st := s.Snapshot()
	assert.True(t, st.Loading)
	assert.Equal(t, StatusLoading, st.Status)

	require.True(t, s.Resolve(seq, []string{"VM-1"}, "Loaded"))
	st = s.Snapshot()
	assert.False(t, st.Loading)
	assert.Equal(t, []string{"VM-1"}, st.Data)
	assert.Equal(t, "Loaded", st.SuccessMessage)
	assert.Equal(t, StatusLoaded, st.Status)
}

func TestSliceLatestRequestWins(t *testing.T) {
	s := NewSlice[string]("report")
	first := s.Begin()
	second := s.Begin()

	require.True(t, s.Resolve(second, "new", ""))
	assert.False(t, s.Resolve(first, "old", ""), "stale response must be discarded")
	assert.False(t, s.Reject(first, "boom"))

	st := s.Snapshot()
	assert.Equal(t, "new", st.Data)
	assert.Empty(t, st.Error)
}

func TestSliceRejectKeepsData(t *testing.T) {
	s := NewSlice[string]("report")
	s.Resolve(s.Begin(), "cached", "")

	require.True(t, s.Reject(s.Begin(), "Upstream down"))
	st := s.Snapshot()
	assert.Equal(t, "cached", st.Data)
	assert.Equal(t, "Upstream down", st.Error)
	assert.Equal(t, StatusErrored, st.Status)
}

func TestSliceApplyAlwaysTransforms(t *testing.T) {
	s := NewSlice[[]int]("list")
	s.Resolve(s.Begin(), []int{1, 2, 3}, "")

	del := s.Begin()
	newer := s.Begin()
	drop2 := func(in []int) []int {
		out := []int{}
		for _, v := range in {
			if v != 2 {
				out = append(out, v)
			}
		}
		return out
	}
	assert.False(t, s.Apply(del, drop2, "Deleted"))
	assert.Equal(t, []int{1, 3}, s.Snapshot().Data)
	assert.True(t, s.Snapshot().Loading, "flags belong to the newer request")

	require.True(t, s.Resolve(newer, s.Snapshot().Data, ""))
	assert.False(t, s.Snapshot().Loading)
}

func TestSliceResetInvalidatesInFlight(t *testing.T) {
	s := NewSlice[string]("report")
	seq := s.Begin()
	s.Reset()
	assert.False(t, s.Resolve(seq, "late", ""))
	st := s.Snapshot()
	assert.Equal(t, StatusIdle, st.Status)
	assert.Empty(t, st.Data)
}

func TestRunReducesErrors(t *testing.T) {
	s := NewSlice[int]("count")

	st, err := Run(context.Background(), s, "Failed to fetch", func(ctx context.Context) (int, error) {
		return 0, &upstream.APIError{Kind: upstream.KindResponse, StatusCode: 500, Message: "Database unavailable"}
	})
	require.Error(t, err)
	assert.Equal(t, "Database unavailable", st.Error)

	st, err = Run(context.Background(), s, "Failed to fetch", func(ctx context.Context) (int, error) {
		return 0, errors.New("dial tcp: refused")
	})
	require.Error(t, err)
	assert.Equal(t, "Failed to fetch", st.Error)

	st, err = RunMessage(context.Background(), s, "Failed", "Done", func(ctx context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, st.Data)
	assert.Equal(t, "Done", st.SuccessMessage)
}

func TestRunSuperseded(t *testing.T) {
	s := NewSlice[int]("count")
	st, err := Run(context.Background(), s, "Failed", func(ctx context.Context) (int, error) {
		s.Begin()
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrSuperseded)
	assert.True(t, st.Loading)
}
