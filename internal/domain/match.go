package domain

// Match is a mutual match seen from one of its participants.
type Match struct {
	User1ID string `json:"user1_id"`
	User2ID string `json:"user2_id"`
	RoomID  string `json:"room_id"`
}

// NewMatch builds the canonical, order-independent match between two users.
func NewMatch(userA, userB string) Match {
	if userB < userA {
		userA, userB = userB, userA
	}
	return Match{User1ID: userA, User2ID: userB, RoomID: RoomID(userA, userB)}
}

func (m *Match) HasUser(userID string) bool {
	return m.User1ID == userID || m.User2ID == userID
}

func (m *Match) GetOtherUserID(userID string) (string, bool) {
	if m.User1ID == userID {
		return m.User2ID, true
	}
	if m.User2ID == userID {
		return m.User1ID, true
	}
	return "", false
}
