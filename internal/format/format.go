// Package format renders slot listings into Telegram Markdown messages that
// never exceed the transport's size limit.
package format

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ykvlv/cowin-alert-bot/internal/domain"
)

// MaxMessageLength is Telegram's limit for a single text message.
const MaxMessageLength = 4096

// TruncationNotice is appended when a message had to be cut.
const TruncationNotice = "\n\n (message truncated due to size)"

const (
	alertMarker = "*[ALERT!]* "
	alertFooter = "\n Click on /pause to disable the notifications"
)

// Truncate bounds msg to limit runes. Longer messages are cut to at most
// limit-len(TruncationNotice) runes and the notice is appended. The cut
// falls back to the last line break so no Markdown entity is left open.
func Truncate(msg string, limit int) string {
	if utf8.RuneCountInString(msg) <= limit {
		return msg
	}
	keep := limit - utf8.RuneCountInString(TruncationNotice)
	if keep <= 0 {
		return string([]rune(TruncationNotice)[:max(limit, 0)])
	}
	head := []rune(msg)[:keep]
	if i := lastIndexRune(head, '\n'); i > 0 {
		head = head[:i]
	}
	for len(head) > 0 && head[len(head)-1] == '\\' {
		head = head[:len(head)-1]
	}
	return string(head) + TruncationNotice
}

func lastIndexRune(rs []rune, r rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if rs[i] == r {
			return i
		}
	}
	return -1
}

// Render lists every open session grouped under its center, bounded by
// MaxMessageLength.
func Render(centers []domain.VaccinationCenter) string {
	return Truncate(render(centers), MaxMessageLength)
}

func render(centers []domain.VaccinationCenter) string {
	var b strings.Builder
	for _, c := range centers {
		b.WriteString("\n*")
		b.WriteString(escape(c.Name))
		b.WriteString("*")
		if c.Paid() {
			b.WriteString("*(Paid)*")
		}
		b.WriteString(":")
		for _, s := range c.AvailableSessions() {
			fmt.Fprintf(&b, "\n    • %s: %d", s.Date, s.AvailableCapacity)
			if s.Vaccine != "" {
				fmt.Fprintf(&b, " (%s)", escape(s.Vaccine))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Header names the pincode and age bracket a listing was produced for.
func Header(pincode string, pref domain.AgePreference) string {
	return fmt.Sprintf("Following slots are available (pincode: %s, age limit: %s)\n", pincode, pref)
}

// NoSlots is the reply for an on-demand check that found nothing.
func NoSlots(pincode string, pref domain.AgePreference) string {
	return fmt.Sprintf("Sorry, no free slots available (pincode: %s, age limit: %s)", pincode, pref)
}

// Listing is the on-demand reply: header plus rendered centers.
func Listing(pincode string, pref domain.AgePreference, centers []domain.VaccinationCenter) string {
	return Truncate(Header(pincode, pref)+Render(centers), MaxMessageLength)
}

// Alert is the scheduler's push message: alert marker, header, listing and
// the pause hint, bounded as a whole.
func Alert(pincode string, pref domain.AgePreference, centers []domain.VaccinationCenter) string {
	return Truncate(alertMarker+Header(pincode, pref)+Render(centers)+alertFooter, MaxMessageLength)
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}
