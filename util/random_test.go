package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewIDNoCollisions(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 10000; i++ {
		id := NewID()
		require.NotEmpty(t, id)
		require.False(t, seen[id], "duplicate id generated: %s", id)
		seen[id] = true
	}
}

func TestDeterministicColorStable(t *testing.T) {
	first := DeterministicColor("AdminSeed")
	for i := 0; i < 100; i++ {
		require.Equal(t, first, DeterministicColor("AdminSeed"))
	}
	require.Contains(t, AvatarColors, first)
	require.Contains(t, AvatarColors, DeterministicColor(""))
}

func TestInitials(t *testing.T) {
	require.Equal(t, "TA", Initials("Titan Admin"))
	require.Equal(t, "AD", Initials("ada"))
	require.Equal(t, "A", Initials("a"))
	require.Equal(t, "??", Initials("  "))
}
