package util

import (
	"strings"

	"github.com/google/uuid"
)

// Palette used for avatar placeholder backgrounds. The class names double as
// stable color tokens for clients.
var AvatarColors = []string{
	"bg-red-500", "bg-orange-500", "bg-amber-500", "bg-yellow-500", "bg-lime-500",
	"bg-green-500", "bg-emerald-500", "bg-teal-500", "bg-cyan-500", "bg-sky-500",
	"bg-blue-500", "bg-indigo-500", "bg-violet-500", "bg-purple-500", "bg-fuchsia-500",
	"bg-pink-500", "bg-rose-500",
}

// NewID returns a fresh entity ID. UUIDv4 is collision-resistant well beyond
// the volumes a single deployment produces.
func NewID() string {
	return uuid.NewString()
}

// DeterministicColor picks a color token from the palette, stable for a given
// seed so the same account always renders with the same placeholder color.
func DeterministicColor(seed string) string {
	if seed == "" {
		return AvatarColors[0]
	}
	var hash int32
	for _, r := range seed {
		hash = r + ((hash << 5) - hash)
	}
	if hash < 0 {
		hash = -hash
	}
	return AvatarColors[int(hash)%len(AvatarColors)]
}

// Initials derives a short avatar label from a display name.
func Initials(name string) string {
	words := strings.Fields(name)
	switch len(words) {
	case 0:
		return "??"
	case 1:
		word := []rune(words[0])
		if len(word) == 1 {
			return strings.ToUpper(string(word))
		}
		return strings.ToUpper(string(word[:2]))
	default:
		first := []rune(words[0])
		second := []rune(words[1])
		return strings.ToUpper(string(first[0]) + string(second[0]))
	}
}
