package chat

// Sender identifies who authored a chat turn.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one persisted turn of the support chat.
type Message struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Sender    Sender `json:"sender"`
	Timestamp int64  `json:"timestamp"`
}
