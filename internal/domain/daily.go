package domain

// Verse is a single scripture verse.
type Verse struct {
	Reference   string `json:"reference"`
	Text        string `json:"text"`
	Translation string `json:"translation,omitempty"`
}

// Devotional is a short daily reflection.
type Devotional struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Prayer string `json:"prayer,omitempty"`
}

// DailyScripture is the combined daily content: verse plus devotional.
// Content rotates once per day; Date is the backend's content date in
// YYYY-MM-DD form.
type DailyScripture struct {
	Date       string     `json:"date"`
	Verse      Verse      `json:"verse"`
	Devotional Devotional `json:"devotional"`
}
