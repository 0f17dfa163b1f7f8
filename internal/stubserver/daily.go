package stubserver

import (
	"net/http"
	"time"

	"github.com/BasilJohn/GraceGuide/internal/domain"
	"github.com/BasilJohn/GraceGuide/pkg/httputil"
)

// dailyContent is the rotation of daily verses and devotionals. Content is
// selected by day of year, so it changes once per day and is stable within
// a day.
var dailyContent = []domain.DailyScripture{
	{
		Verse: domain.Verse{
			Reference:   "Psalm 23:1",
			Text:        "The Lord is my shepherd; I shall not want.",
			Translation: "KJV",
		},
		Devotional: domain.Devotional{
			Title:  "Enough for Today",
			Body:   "A shepherd does not promise the flock tomorrow's pasture, only today's. Rest in what is provided now.",
			Prayer: "Lord, teach me to trust You with today.",
		},
	},
	{
		Verse: domain.Verse{
			Reference:   "Isaiah 41:10",
			Text:        "Fear thou not; for I am with thee: be not dismayed; for I am thy God.",
			Translation: "KJV",
		},
		Devotional: domain.Devotional{
			Title:  "Not Alone",
			Body:   "Fear shrinks when it is spoken in the presence of someone stronger. Speak yours today.",
			Prayer: "Father, steady me when I am dismayed.",
		},
	},
	{
		Verse: domain.Verse{
			Reference:   "Philippians 4:6",
			Text:        "Be careful for nothing; but in every thing by prayer and supplication with thanksgiving let your requests be made known unto God.",
			Translation: "KJV",
		},
		Devotional: domain.Devotional{
			Title:  "Trade Worry for Words",
			Body:   "Anxiety rehearses problems; prayer hands them over. The trade is always available.",
			Prayer: "God, I hand over what I have been rehearsing.",
		},
	},
}

func todayScripture() domain.DailyScripture {
	now := time.Now().UTC()
	content := dailyContent[now.YearDay()%len(dailyContent)]
	content.Date = now.Format("2006-01-02")
	return content
}

// handleDailyScripture handles GET /api/daily/scripture.
func (s *Server) handleDailyScripture(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, todayScripture())
}

// handleDailyVerse handles GET /api/daily/verse.
func (s *Server) handleDailyVerse(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, todayScripture().Verse)
}

// handleDailyDevotional handles GET /api/daily/devotional.
func (s *Server) handleDailyDevotional(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, todayScripture().Devotional)
}
