package mood

import "time"

// DateLayout is the calendar-day format stored on every entry.
const DateLayout = "2006-01-02"

// Label is one of the moods offered by the tracker.
type Label string

const (
	Happy    Label = "happy"
	Sad      Label = "sad"
	Anxious  Label = "anxious"
	Tired    Label = "tired"
	Angry    Label = "angry"
	Calm     Label = "calm"
	Grateful Label = "grateful"
	Neutral  Label = "neutral"
)

var emojis = map[Label]string{
	Happy:    "😊",
	Sad:      "😢",
	Anxious:  "😰",
	Tired:    "😴",
	Angry:    "😡",
	Calm:     "😌",
	Grateful: "🤗",
	Neutral:  "😐",
}

// Labels lists the offered moods in display order.
func Labels() []Label {
	return []Label{Happy, Sad, Anxious, Tired, Angry, Calm, Grateful, Neutral}
}

// Valid reports whether s names an offered mood.
func Valid(s string) bool {
	_, ok := emojis[Label(s)]
	return ok
}

// Emoji returns the display glyph for a mood, or an empty string.
func Emoji(s string) string {
	return emojis[Label(s)]
}

// Entry is a single mood submission. Date is fixed at creation time.
type Entry struct {
	ID        string `json:"id"`
	Mood      string `json:"mood"`
	Note      string `json:"note,omitempty"`
	Timestamp int64  `json:"timestamp"`
	Date      string `json:"date"`
}

// Draft carries the caller-supplied fields of a new Entry.
type Draft struct {
	Mood      string
	Note      string
	Timestamp int64
	Date      string
}

// DateOf formats t as a calendar day in t's location.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a stored calendar day.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
