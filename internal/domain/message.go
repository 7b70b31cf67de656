package domain

import "time"

type Message struct {
	ID          string    `json:"id" bson:"_id"`
	RoomID      string    `json:"room" bson:"room_id"`
	SenderID    string    `json:"sender" bson:"sender_id"`
	RecipientID string    `json:"recipient" bson:"recipient_id"`
	Text        string    `json:"text" bson:"text"`
	SentAt      time.Time `json:"timestamp" bson:"sent_at"`
}
