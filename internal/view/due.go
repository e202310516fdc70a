package view

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/gosuda/dopalist/internal/domain"
)

type DueStatus string

const (
	DueOverdue DueStatus = "overdue"
	DueSoon    DueStatus = "soon"
	DueNormal  DueStatus = "normal"
)

// SoonWindow is the largest day distance still reported as DueSoon.
const SoonWindow = 3

// DaysUntil is the number of calendar days from today to due, comparing the
// date portion only. Negative values are in the past.
func DaysUntil(due, today time.Time) int {
	d := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Sub(t).Hours() / 24)
}

func StatusOf(due, today time.Time) DueStatus {
	switch days := DaysUntil(due, today); {
	case days < 0:
		return DueOverdue
	case days <= SoonWindow:
		return DueSoon
	default:
		return DueNormal
	}
}

const (
	msgOverdue  = "overdue by %d days"
	msgToday    = "due today"
	msgTomorrow = "due tomorrow"
	msgDueIn    = "due in %d days"
)

var (
	supported = []language.Tag{language.English, language.Chinese}
	matcher   = language.NewMatcher(supported)
	messages  = newCatalog()
)

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, m := range []struct{ key, en, zh string }{
		{msgOverdue, "overdue by %d days", "逾期 %d 天"},
		{msgToday, "due today", "今天到期"},
		{msgTomorrow, "due tomorrow", "明天到期"},
		{msgDueIn, "due in %d days", "%d 天后到期"},
	} {
		_ = b.SetString(language.English, m.key, m.en)
		_ = b.SetString(language.Chinese, m.key, m.zh)
	}
	return b
}

// Formatter renders due dates as relative text in one locale.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
}

// NewFormatter picks the closest supported locale for a BCP 47 tag such as
// "en", "zh-CN" or "zh-Hans". Unparseable input falls back to English.
func NewFormatter(locale string) *Formatter {
	tag := language.English
	if parsed, err := language.Parse(locale); err == nil {
		_, idx, _ := matcher.Match(parsed)
		tag = supported[idx]
	}
	return &Formatter{tag: tag, printer: message.NewPrinter(tag, message.Catalog(messages))}
}

func (f *Formatter) Locale() language.Tag { return f.tag }

// Text renders due relative to today: relative phrases up to SoonWindow days
// ahead, the day count when overdue, and a month/day date beyond that.
func (f *Formatter) Text(due, today time.Time) string {
	switch days := DaysUntil(due, today); {
	case days < 0:
		return f.printer.Sprintf(msgOverdue, -days)
	case days == 0:
		return f.printer.Sprintf(msgToday)
	case days == 1:
		return f.printer.Sprintf(msgTomorrow)
	case days <= SoonWindow:
		return f.printer.Sprintf(msgDueIn, days)
	default:
		return f.monthDay(due)
	}
}

func (f *Formatter) monthDay(d time.Time) string {
	if f.tag == language.Chinese {
		return fmt.Sprintf("%d月%d日", int(d.Month()), d.Day())
	}
	return d.Format("January 2")
}

// Due is the derived display state of one due date.
type Due struct {
	Date   string    `json:"date"`
	Days   int       `json:"days"`
	Status DueStatus `json:"status"`
	Text   string    `json:"text"`
}

// Describe parses a stored due date and derives its status and text.
func (f *Formatter) Describe(dueDate string, today time.Time) (Due, error) {
	d, err := domain.ParseDate(dueDate)
	if err != nil {
		return Due{}, err
	}
	return Due{
		Date:   d.Format(domain.DateLayout),
		Days:   DaysUntil(d, today),
		Status: StatusOf(d, today),
		Text:   f.Text(d, today),
	}, nil
}
