package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecipientsPreferOwners(t *testing.T) {
	s := Service{
		Owners: []Owner{
			{Name: "A", Email: "a@example.com"},
			{Name: "B", Email: "b@example.com"},
		},
		ContactEmail: "legacy@example.com",
		ContactName:  "Legacy",
	}
	rcpts := s.Recipients()
	assert.Len(t, rcpts, 2)
	assert.Equal(t, "a@example.com", rcpts[0].Email)
}

func TestRecipientsLegacyContactFallback(t *testing.T) {
	s := Service{ContactEmail: "legacy@example.com", ContactName: "Legacy"}
	rcpts := s.Recipients()
	assert.Len(t, rcpts, 1)
	assert.Equal(t, "legacy@example.com", rcpts[0].Email)

	var empty Service
	assert.Nil(t, empty.Recipients())
}

func TestHasFired(t *testing.T) {
	s := Service{NotificationsSent: []string{"t30", "t7"}}
	assert.True(t, s.HasFired("t30"))
	assert.False(t, s.HasFired("t1"))
}

func TestDefaultThresholdsLadder(t *testing.T) {
	ts := DefaultThresholds()
	assert.Len(t, ts, 3)
	assert.Equal(t, 30, ts[0].DaysBefore)
	assert.Equal(t, 7, ts[1].DaysBefore)
	assert.Equal(t, 1, ts[2].DaysBefore)
	assert.NotEqual(t, ts[0].ID, ts[1].ID)
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole("admin"))
	assert.Equal(t, RoleUser, ParseRole("user"))
	assert.Equal(t, RoleUser, ParseRole("anything-else"))
}
