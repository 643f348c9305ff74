package text

import (
	"fmt"
	"strings"
	"time"

	"github.com/DaanHessen/pointboard/internal/engine"
)

// Announcer turns board events into the encouragement banner text.
type Announcer interface {
	Overtake(ev engine.Event) (string, error)
	RapidGain(ev engine.Event) (string, error)
}

// Announce dispatches on the event kind. Events with nothing to say yield "".
func Announce(a Announcer, ev engine.Event) string {
	var (
		s   string
		err error
	)
	switch ev.Kind {
	case engine.EventOvertake:
		s, err = a.Overtake(ev)
	case engine.EventRapidGain:
		s, err = a.RapidGain(ev)
	default:
		return ""
	}
	if err != nil {
		return ""
	}
	return s
}

type phrases struct {
	overtake    string // passer, passed list
	rapidGain   string // name, gain
	listSep     string
	neverSaved  string
	savedAgo    string
	seconds     string
	minutes     string
	hours       string
	days        string
	leaderTitle string
	leaderLine  string // name, points, percent
	remaining   string // remaining, percent
	resetPrompt string
	points      string
	goal        string
	embedTitle  string
	names       map[string]string
}

var books = map[string]phrases{
	"en": {
		overtake:    "%s passed %s — well done!",
		rapidGain:   "%s gained %d points in no time — great job!",
		listSep:     ", ",
		neverSaved:  "not saved yet",
		savedAgo:    "saved %s ago",
		seconds:     "%d seconds",
		minutes:     "%d minutes",
		hours:       "%d hours",
		days:        "%d days",
		leaderTitle: "## Leaders",
		leaderLine:  "%d. **%s** — %d points (%d%%)",
		remaining:   "The school needs **%d** more points to reach the goal (%d%%).",
		resetPrompt: "Reset every counter to 0?",
		points:      "points: %d",
		goal:        "Goal: %d",
		embedTitle:  "## Support the campaign",
		names: map[string]string{
			"gradeA":       "Fifth Grade",
			"gradeB":       "Sixth Grade",
			"gradeC":       "Seventh Grade",
			"gradeD":       "Eighth Grade",
			engine.TotalID: "Whole School",
		},
	},
	"he": {
		overtake:    "ה%s עקפה את ה%s — כל הכבוד!",
		rapidGain:   "%s עלתה ב-%d נקודות בזמן קצר — יפה מאוד!",
		listSep:     ", ",
		neverSaved:  "לא נשמר עדיין",
		savedAgo:    "נשמר לפני %s",
		seconds:     "%d שניות",
		minutes:     "%d דקות",
		hours:       "%d שעות",
		days:        "%d ימים",
		leaderTitle: "## מובילים",
		leaderLine:  "%d. **%s** — %d נקודות (%d%%)",
		remaining:   "הישיבה צריכה עוד **%d** נקודות כדי להגיע ליעד (%d%%).",
		resetPrompt: "לאפס את כל הנקודות ל-0?",
		points:      "נקודות: %d",
		goal:        "יעד: %d",
		embedTitle:  "## תמכו בקמפיין",
		names: map[string]string{
			"gradeA":       "חמישית",
			"gradeB":       "שישית",
			"gradeC":       "שביעית",
			"gradeD":       "שמינית",
			engine.TotalID: "בסך הכל",
		},
	},
}

// Book is the phrasing for one language. It is also the built-in Announcer.
type Book struct {
	Lang string
	p    phrases
}

// For returns the phrasebook for lang, falling back to English.
func For(lang string) Book {
	if p, ok := books[lang]; ok {
		return Book{Lang: lang, p: p}
	}
	return Book{Lang: "en", p: books["en"]}
}

func (b Book) Overtake(ev engine.Event) (string, error) {
	names := make([]string, len(ev.Passed))
	for i, c := range ev.Passed {
		names[i] = c.Name
	}
	return fmt.Sprintf(b.p.overtake, ev.Counter.Name, strings.Join(names, b.p.listSep)), nil
}

func (b Book) RapidGain(ev engine.Event) (string, error) {
	return fmt.Sprintf(b.p.rapidGain, ev.Counter.Name, ev.Gain), nil
}

// Ago renders an elapsed duration in the coarsest unit that keeps it under the next unit.
func (b Book) Ago(d time.Duration) string {
	s := int(d / time.Second)
	if s < 0 {
		s = 0
	}
	if s < 60 {
		return fmt.Sprintf(b.p.seconds, s)
	}
	m := s / 60
	if m < 60 {
		return fmt.Sprintf(b.p.minutes, m)
	}
	h := m / 60
	if h < 24 {
		return fmt.Sprintf(b.p.hours, h)
	}
	return fmt.Sprintf(b.p.days, h/24)
}

// SavedAgo is the save-status line.
func (b Book) SavedAgo(updated, now time.Time) string {
	if updated.IsZero() {
		return b.p.neverSaved
	}
	return fmt.Sprintf(b.p.savedAgo, b.Ago(now.Sub(updated)))
}

// Leaderboard renders the popup body as markdown.
func (b Book) Leaderboard(sum engine.Summary) string {
	var sb strings.Builder
	sb.WriteString(b.p.leaderTitle + "\n\n")
	for _, l := range sum.Leaders {
		sb.WriteString(fmt.Sprintf(b.p.leaderLine, l.Rank, l.Counter.Name, l.Counter.Points, l.Percent))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf(b.p.remaining, sum.Remaining, sum.TotalPercent))
	sb.WriteString("\n")
	return sb.String()
}

// EmbedPanel is the markdown shown while the board is swapped for the external page.
func (b Book) EmbedPanel(url string) string {
	return fmt.Sprintf("%s\n\n<%s>\n", b.p.embedTitle, url)
}

func (b Book) ResetPrompt() string  { return b.p.resetPrompt }
func (b Book) Points(n int) string  { return fmt.Sprintf(b.p.points, n) }
func (b Book) Goal(goal int) string { return fmt.Sprintf(b.p.goal, goal) }

// Localize names default counters in this language. Custom names are left alone.
func (b Book) Localize(items []engine.Counter) []engine.Counter {
	out := make([]engine.Counter, len(items))
	for i, c := range items {
		if n, ok := b.p.names[c.ID]; ok {
			c.Name = n
		}
		out[i] = c
	}
	return out
}
