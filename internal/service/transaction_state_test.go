package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		current string
		next    string
		allowed bool
	}{
		{"pending", "completed", true},
		{"pending", "failed", true},
		{"pending", "cancelled", true},
		{"failed", "pending", true},
		{"failed", "completed", false},
		{"completed", "pending", false},
		{"completed", "failed", false},
		{"cancelled", "pending", false},
		{"PENDING", "Completed", true},
		{" pending ", "completed", true},
		{"unknown", "completed", false},
		{"pending", "unknown", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, canTransition(tc.current, tc.next),
			"%s -> %s", tc.current, tc.next)
	}
}

func TestNormalizeState(t *testing.T) {
	assert.Equal(t, "pending", normalizeState(" Pending "))
	assert.Equal(t, "completed", normalizeState("COMPLETED"))
}
