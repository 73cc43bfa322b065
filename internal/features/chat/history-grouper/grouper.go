package historygrouper

import (
	"fmt"
	"strings"
	"time"

	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/metrics"
	"shopping-assistant/internal/models"
)

// Layouts carrying a zone offset.
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
}

// Layouts without a zone are read as wall time in the grouper's location.
var localLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Grouper buckets chat summaries into today, yesterday and earlier.
type Grouper struct {
	config *Config
	now    func() time.Time
	logger logger.Logger
}

func NewGrouper(config *Config, log logger.Logger) *Grouper {
	if config == nil || config.Location == nil {
		config = &Config{Location: time.Local}
	}
	return &Grouper{
		config: config,
		now:    time.Now,
		logger: log,
	}
}

// WithClock returns a copy of the grouper that reads the time from now.
func (g *Grouper) WithClock(now func() time.Time) *Grouper {
	clone := *g
	clone.now = now
	return &clone
}

// Group buckets chats against the current wall clock.
func (g *Grouper) Group(chats []models.ChatSummary) Groups {
	return g.GroupAt(chats, g.now())
}

// GroupAt buckets chats against now. Records whose updated_at cannot be
// parsed are left out of every bucket.
func (g *Grouper) GroupAt(chats []models.ChatSummary, now time.Time) Groups {
	groups := make(Groups)
	if len(chats) == 0 {
		return groups
	}

	loc := g.config.Location
	today := dateOf(now.In(loc))
	yesterday := today.AddDate(0, 0, -1)

	for _, chat := range chats {
		ts, err := ParseTimestamp(chat.UpdatedAt, loc)
		if err != nil {
			metrics.HistoryRecordsDropped.Inc()
			g.logger.Warn("dropping chat with unparseable updated_at", map[string]interface{}{
				"chatId":    chat.ChatID.String(),
				"updatedAt": chat.UpdatedAt,
				"error":     err.Error(),
			})
			continue
		}

		var label Label
		switch day := dateOf(ts.In(loc)); {
		case day.Equal(today):
			label = LabelToday
		case day.Equal(yesterday):
			label = LabelYesterday
		default:
			label = LabelEarlier
		}
		groups[label] = append(groups[label], chat)
	}

	return groups
}

// ParseTimestamp accepts RFC 3339 and the zone-less layouts the backend emits.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// dateOf truncates t to midnight of its calendar day in t's location.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
