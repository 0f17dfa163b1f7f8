package domain

import "time"

// Emotion is a feeling the user selects during a check-in.
type Emotion string

// Tone selects the voice of generated guidance.
type Tone string

// Tones offered during onboarding and check-in.
const (
	ToneGentle      Tone = "gentle"
	ToneEncouraging Tone = "encouraging"
	ToneDirect      Tone = "direct"
)

// CheckInInput is the payload for submitting a check-in. Timestamp is
// optional; the backend stamps the current time when it is absent.
type CheckInInput struct {
	Emotions  []Emotion `json:"emotions"`
	Tone      Tone      `json:"tone"`
	Timestamp string    `json:"timestamp,omitempty"`
}

// CheckIn is a recorded check-in with the guidance the backend generated
// in response.
type CheckIn struct {
	ID        string    `json:"id"`
	Emotions  []Emotion `json:"emotions"`
	Tone      Tone      `json:"tone"`
	Guidance  string    `json:"guidance,omitempty"`
	Scripture string    `json:"scripture,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CheckInList is a page of recent check-ins.
type CheckInList struct {
	CheckIns []CheckIn `json:"checkIns"`
	Total    int       `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}
