package realm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMarksAllEntriesReachable(t *testing.T) {
	r := New([]Entry{
		{Name: "Alpha", Address: "10.0.0.1"},
		{Name: "Bravo", Address: "10.0.0.2"},
	})
	for _, e := range r.Entries() {
		assert.True(t, e.Reachable())
	}
}

func TestByAddressFindsConfiguredRealm(t *testing.T) {
	r := New([]Entry{
		{Name: "Alpha", Address: "10.0.0.1"},
	})
	e, ok := r.ByAddress("10.0.0.1")
	require.True(t, ok)
	assert.Equal(t, "Alpha", e.Name)

	_, ok = r.ByAddress("10.0.0.9")
	assert.False(t, ok)
}

func TestEffectiveLockReflectsConfiguredLock(t *testing.T) {
	r := New([]Entry{
		{Name: "Alpha", Address: "10.0.0.1", IsLocked: 1},
	})
	e := r.Entries()[0]
	assert.Equal(t, byte(1), e.EffectiveLock())
}

func TestEffectiveLockReflectsUnreachability(t *testing.T) {
	r := New([]Entry{
		{Name: "Alpha", Address: "10.0.0.1", IsLocked: 0},
	})
	e := r.Entries()[0]
	assert.Equal(t, byte(0), e.EffectiveLock())

	e.SetReachable(false)
	assert.Equal(t, byte(1), e.EffectiveLock())

	e.SetReachable(true)
	assert.Equal(t, byte(0), e.EffectiveLock())
}

func TestWireEntriesProjectsEffectiveLock(t *testing.T) {
	r := New([]Entry{
		{Name: "Alpha", Address: "10.0.0.1", GamePort: 8085, Population: 1.5},
	})
	r.Entries()[0].SetReachable(false)

	got := r.WireEntries()
	require.Len(t, got, 1)
	assert.Equal(t, byte(1), got[0].IsLocked)
	assert.Equal(t, "Alpha", got[0].Name)
	assert.Equal(t, 8085, got[0].GamePort)
}
