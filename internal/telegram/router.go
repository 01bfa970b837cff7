package telegram

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/cowin-alert-bot/internal/domain"
	"github.com/ykvlv/cowin-alert-bot/internal/store"
)

// BotAPI is the subset of *tgbotapi.BotAPI the router uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// SlotProvider answers on-demand /check requests.
type SlotProvider interface {
	FetchCenters(ctx context.Context, pincode, date string) ([]domain.VaccinationCenter, error)
}

// Options configures a Router.
type Options struct {
	Maintainers []int64        // user ids allowed to run /stats
	Location    *time.Location // timezone for the provider's "today"
}

// Router wires Telegram updates to handlers and delivers alerts.
type Router struct {
	bot         BotAPI
	log         *zap.Logger
	repo        store.Repo
	provider    SlotProvider
	maintainers map[int64]bool
	loc         *time.Location
	now         func() time.Time
}

// NewRouter creates a new Telegram router.
func NewRouter(bot BotAPI, log *zap.Logger, repo store.Repo, provider SlotProvider, opts Options) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	m := make(map[int64]bool, len(opts.Maintainers))
	for _, id := range opts.Maintainers {
		m[id] = true
	}
	return &Router{
		bot:         bot,
		log:         log,
		repo:        repo,
		provider:    provider,
		maintainers: m,
		loc:         opts.Location,
		now:         time.Now,
	}
}

// splitCommand returns the command name without slash or bot suffix and its
// arguments. cmd is empty for free-form text.
func splitCommand(text string) (cmd, args string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	head, rest, _ := strings.Cut(text, " ")
	head = strings.TrimPrefix(head, "/")
	if i := strings.IndexByte(head, '@'); i >= 0 {
		head = head[:i]
	}
	return strings.ToLower(head), strings.TrimSpace(rest)
}

// HandleUpdate routes a single update to appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID
	userID := msg.From.ID

	cmd, args := splitCommand(msg.Text)
	switch cmd {
	case "start":
		r.handleStart(ctx, userID, chatID, msg.From.UserName)
	case "help":
		r.sendText(chatID, helpText)
	case "pincode":
		r.handlePincode(ctx, userID, chatID, args)
	case "age":
		r.handleAge(ctx, userID, chatID, args)
	case "alert", "resume":
		r.handleEnable(ctx, userID, chatID)
	case "pause":
		r.handleDisable(ctx, userID, chatID)
	case "check":
		r.handleCheck(ctx, userID, chatID)
	case "stats":
		r.handleStats(ctx, userID, chatID)
	case "":
		r.handleFreeForm(ctx, userID, chatID, args)
	default:
		r.sendText(chatID, unknownCommandText)
	}
}

// SendMessage sends a Markdown message to the given chat.
// This makes Router satisfy scheduler.Sender.
func (r *Router) SendMessage(chatID int64, text string) error {
	m := tgbotapi.NewMessage(chatID, text)
	m.ParseMode = tgbotapi.ModeMarkdown
	_, err := r.bot.Send(m)
	return err
}

// SendPlain sends text without any parse mode.
func (r *Router) SendPlain(chatID int64, text string) error {
	_, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
