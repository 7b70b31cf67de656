package domain

import "strings"

const roomSeparator = ":"

// RoomID returns the chat room identifier for two users. The ids are ordered
// lexicographically so RoomID(a, b) == RoomID(b, a).
func RoomID(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return userA + roomSeparator + userB
}

// ParseRoomID splits a room id back into its two participants.
func ParseRoomID(room string) (string, string, error) {
	a, b, ok := strings.Cut(room, roomSeparator)
	if !ok || a == "" || b == "" || strings.Contains(b, roomSeparator) {
		return "", "", ErrInvalidRoom
	}
	if RoomID(a, b) != room {
		return "", "", ErrInvalidRoom
	}
	return a, b, nil
}

// IsParticipant reports whether userID is one of the two users of room.
func IsParticipant(room, userID string) bool {
	a, b, err := ParseRoomID(room)
	if err != nil {
		return false
	}
	return a == userID || b == userID
}
