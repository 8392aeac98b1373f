package normalize

import (
	"testing"
	"time"

	"github.com/cdtdelta/daybook/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day, hour int, op string) model.Event {
	return model.Event{Timestamp: time.Date(2024, 1, day, hour, 0, 0, 0, time.UTC), Operation: op}
}

func TestFilterDayBoundsAreInclusive(t *testing.T) {
	f, err := NewFilter("2024-01-02", "2024-01-03", nil, nil)
	require.NoError(t, err)

	events := []model.Event{at(1, 23, "A"), at(2, 0, "B"), at(3, 23, "C"), at(4, 0, "D")}
	got := f.Apply(events)

	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].Operation)
	assert.Equal(t, "C", got[1].Operation)
}

func TestFilterOperations(t *testing.T) {
	f, err := NewFilter("", "", []string{"LOGIN", " "}, nil)
	require.NoError(t, err)

	got := f.Apply([]model.Event{at(1, 1, "LOGIN"), at(1, 2, "LOGOUT")})
	require.Len(t, got, 1)
	assert.Equal(t, "LOGIN", got[0].Operation)
}

func TestFilterExclude(t *testing.T) {
	f, err := NewFilter("", "", nil, []string{"LOGOUT"})
	require.NoError(t, err)
	assert.False(t, f.Empty())

	got := f.Apply([]model.Event{at(1, 1, "LOGIN"), at(1, 2, "LOGOUT"), at(1, 3, "FAIL")})
	require.Len(t, got, 2)
	assert.Equal(t, "LOGIN", got[0].Operation)
	assert.Equal(t, "FAIL", got[1].Operation)

	f, err = NewFilter("", "", []string{"LOGIN", "LOGOUT"}, []string{"LOGOUT"})
	require.NoError(t, err)
	got = f.Apply([]model.Event{at(1, 1, "LOGIN"), at(1, 2, "LOGOUT"), at(1, 3, "FAIL")})
	require.Len(t, got, 1)
	assert.Equal(t, "LOGIN", got[0].Operation)
}

func TestFilterEmptyPassesThrough(t *testing.T) {
	f, err := NewFilter("", "", nil, nil)
	require.NoError(t, err)
	assert.True(t, f.Empty())

	events := []model.Event{at(1, 1, "A")}
	assert.Equal(t, events, f.Apply(events))
}

func TestNewFilterErrors(t *testing.T) {
	_, err := NewFilter("01/02/2024", "", nil, nil)
	assert.Error(t, err)

	_, err = NewFilter("2024-01-05", "2024-01-01", nil, nil)
	assert.Error(t, err)
}
