package telegram

import (
	"context"
	"infinite-buying/config"
	"infinite-buying/pkg/logger"
	"infinite-buying/pkg/utils"

	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

// Notifier delivers best-effort trading notifications to a single chat.
// Delivery failures are logged, never propagated: a dropped message must not
// stop a trading decision.
type Notifier interface {
	NotifyOrder(ctx context.Context, label, symbol string, qty *int64, price, amount *float64)
	NotifyBalance(ctx context.Context, cash float64, positions []PositionSnapshot)
	NotifyError(ctx context.Context, err error)
	Start()
	Stop()
}

// PositionSnapshot is one holding line of the daily account report.
type PositionSnapshot struct {
	Symbol       string
	Quantity     float64
	AveragePrice float64
	CurrentPrice float64
	TotalValue   float64
	ProfitRate   float64
}

type notifier struct {
	cfg     *config.TelegramConfig
	log     *logger.Logger
	bot     *telebot.Bot
	limiter *rate.Limiter
}

func NewNotifier(cfg *config.TelegramConfig, log *logger.Logger, bot *telebot.Bot) Notifier {
	n := &notifier{
		cfg:     cfg,
		log:     log,
		bot:     bot,
		limiter: rate.NewLimiter(rate.Limit(cfg.MaxRequestPerSecond), cfg.MaxRequestPerSecond),
	}

	bot.Handle("/status", func(c telebot.Context) error {
		return c.Send("Bot is up and running.")
	})

	return n
}

// Start runs the long poller so the /status command is served.
func (n *notifier) Start() {
	utils.GoSafe(func() {
		n.bot.Start()
	})
}

func (n *notifier) Stop() {
	n.bot.Stop()
}

func (n *notifier) NotifyOrder(ctx context.Context, label, symbol string, qty *int64, price, amount *float64) {
	n.send(ctx, FormatOrderMessage(label, symbol, qty, price, amount))
}

func (n *notifier) NotifyBalance(ctx context.Context, cash float64, positions []PositionSnapshot) {
	n.send(ctx, FormatBalanceMessage(cash, positions))
}

func (n *notifier) NotifyError(ctx context.Context, err error) {
	n.send(ctx, FormatErrorMessage(err))
}

func (n *notifier) send(ctx context.Context, message string) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.cfg.TimeoutDuration)

	utils.GoSafe(func() {
		defer cancel()

		if err := n.limiter.Wait(sendCtx); err != nil {
			n.log.WarnContext(sendCtx, "Skipped telegram notification", logger.ErrorField(err))
			return
		}

		_, err := n.bot.Send(&telebot.Chat{ID: n.cfg.ChatID}, message, telebot.ModeHTML)
		if err != nil {
			n.log.ErrorContext(sendCtx, "Failed to send telegram notification", logger.ErrorField(err))
		}
	})
}
