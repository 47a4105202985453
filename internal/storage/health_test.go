package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthManager(t *testing.T) {
	hm := NewHealthManager()
	assert.False(t, hm.IsHealthy("archive", time.Minute))

	hm.Observe("archive", nil)
	assert.True(t, hm.IsHealthy("archive", time.Minute))
	assert.False(t, hm.IsHealthy("archive", -time.Second), "stale checks are not healthy")

	hm.Observe("archive", errors.New("connection refused"))
	h, ok := hm.GetHealth("archive")
	require.True(t, ok)
	assert.Equal(t, StatusUnhealthy, h.Status)
	assert.Equal(t, "connection refused", h.Error)
	assert.False(t, hm.IsHealthy("archive", time.Minute))

	all := hm.GetAllHealth()
	require.Len(t, all, 1)
	all["other"] = Health{}
	assert.Len(t, hm.GetAllHealth(), 1)
}
