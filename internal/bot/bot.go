package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mr-tron/base58"

	"github.com/haoxiang14/solana-wallet-tracker/internal/config"
	"github.com/haoxiang14/solana-wallet-tracker/internal/logger"
	"github.com/haoxiang14/solana-wallet-tracker/internal/subscription"
)

// Callback data for the main menu keyboard.
const (
	cbAddWallet    = "add_wallet"
	cbListWallets  = "list_wallets"
	cbRemoveWallet = "remove_wallet"
	cbSettings     = "settings"
	cbHelp         = "help"
	cbBackToMenu   = "back_to_menu"
)

const (
	msgWelcome = "👋 *Welcome to Wallet Tracker!*\n\n" +
		"I watch the wallets you follow and ping you the moment they swap.\n\n" +
		"Use the menu below to get started."
	msgMenu            = "📋 *Main Menu*\n\nWhat would you like to do?"
	msgAskAddWallet    = "➕ Send me the wallet address you want to track.\n\n_You have 5 minutes before this request expires._"
	msgAskRemoveWallet = "➖ Send me the wallet address you want to stop tracking."
	msgTimeout         = "⏰ Request timed out. Use /menu to start again."
	msgInvalidWallet   = "⚠️ That doesn't look like a valid wallet address. Please try again or use /menu to cancel."
	msgDuplicate       = "ℹ️ You're already monitoring that wallet."
	msgSyncWarning     = "✅ Saved, but updating the tracking service failed. Monitoring may lag until the next sync."
	msgGenericError    = "❌ Something went wrong. Please try again."
	msgUnauthorized    = "🚫 This bot is private."
	msgNoWallets       = "📭 You aren't tracking any wallets yet. Use the menu to add one."
	msgHelp            = "ℹ️ *Help*\n\n" +
		"• *Add Wallet* starts tracking a wallet's swaps\n" +
		"• *List Wallets* shows everything you follow\n" +
		"• *Remove Wallet* stops tracking\n\n" +
		"Commands: /start /menu /help"
	msgSettings = "⚙️ *Settings*\n\nNotifications are on for every wallet you track. Per-wallet muting is coming later."
)

// Subscriptions is the slice of the subscription service the bot needs.
type Subscriptions interface {
	AddWallet(ctx context.Context, userID int64, wallet string) error
	RemoveWallet(ctx context.Context, userID int64, wallet string) error
	ListWallets(ctx context.Context, userID int64) ([]string, error)
}

// telegramAPI is the slice of the Telegram client the bot uses.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot runs the Telegram side: commands, the inline menu, and the short
// conversational flows for adding and removing wallets. It also serves as
// the message sender for swap notifications.
type Bot struct {
	api        telegramAPI
	cfg        config.TelegramConfig
	subs       Subscriptions
	state      *StateStore
	retryCount int
	log        logger.Logger
}

func New(cfg config.TelegramConfig, subs Subscriptions, log logger.Logger) (*Bot, error) {
	if log == nil {
		log = logger.Global()
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	retryCount := cfg.RetryCount
	if retryCount <= 0 {
		retryCount = 3
	}

	b := &Bot{
		api:        api,
		cfg:        cfg,
		subs:       subs,
		retryCount: retryCount,
		log:        log.With(logger.F("component", "bot")),
	}
	b.state = NewStateStore(cfg.StateTTL, b.notifyTimeout, log)
	b.registerCommands()

	b.log.Info("bot authorized", logger.F("username", api.Self.UserName))
	return b, nil
}

// registerCommands publishes the command list so clients offer completions.
// Failure is logged and ignored; the bot works without it.
func (b *Bot) registerCommands() {
	commands := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Start the bot"},
		tgbotapi.BotCommand{Command: "menu", Description: "Show the main menu"},
		tgbotapi.BotCommand{Command: "help", Description: "How wallet tracking works"},
	)
	if _, err := b.api.Request(commands); err != nil {
		b.log.Warn("command registration failed", logger.F("error", err))
	}
}

// Run consumes updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30

	updates := b.api.GetUpdatesChan(updateCfg)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if !b.cfg.IsAuthorized(chatID) {
		b.log.Warn("unauthorized chat", logger.F("chat_id", chatID))
		b.send(ctx, chatID, msgUnauthorized, nil)
		return
	}

	if msg.IsCommand() {
		b.state.ClearState(chatID)
		b.handleCommand(ctx, chatID, msg.Command())
		return
	}

	step := b.state.GetState(chatID)
	if step == StepNone {
		// Free text outside a flow carries no meaning here; stay silent.
		return
	}

	b.handlePendingInput(ctx, chatID, step, strings.TrimSpace(msg.Text))
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, command string) {
	switch command {
	case "start":
		b.send(ctx, chatID, msgWelcome, mainMenuKeyboard())
	case "menu":
		b.send(ctx, chatID, msgMenu, mainMenuKeyboard())
	case "help":
		b.send(ctx, chatID, msgHelp, backKeyboard())
	default:
		b.send(ctx, chatID, msgMenu, mainMenuKeyboard())
	}
}

func (b *Bot) handleCallbackQuery(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Telegram omits the message for callbacks older than 48 hours.
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	// Acknowledge so the client stops its spinner.
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn("callback ack failed", logger.F("error", err))
	}

	if !b.cfg.IsAuthorized(chatID) {
		b.send(ctx, chatID, msgUnauthorized, nil)
		return
	}

	switch cb.Data {
	case cbAddWallet:
		b.state.SetState(chatID, StepAwaitWalletAdd)
		b.send(ctx, chatID, msgAskAddWallet, nil)
	case cbRemoveWallet:
		b.state.SetState(chatID, StepAwaitWalletRemove)
		b.send(ctx, chatID, msgAskRemoveWallet, nil)
	case cbListWallets:
		b.sendWalletList(ctx, chatID)
	case cbSettings:
		b.send(ctx, chatID, msgSettings, backKeyboard())
	case cbHelp:
		b.send(ctx, chatID, msgHelp, backKeyboard())
	case cbBackToMenu:
		b.send(ctx, chatID, msgMenu, mainMenuKeyboard())
	}
}

// handlePendingInput consumes the wallet address a flow is waiting for.
func (b *Bot) handlePendingInput(ctx context.Context, chatID int64, step Step, text string) {
	if !isValidWalletAddress(text) {
		// State stays pending so the user can correct the address.
		b.send(ctx, chatID, msgInvalidWallet, nil)
		return
	}

	b.state.ClearState(chatID)

	switch step {
	case StepAwaitWalletAdd:
		b.finishAdd(ctx, chatID, text)
	case StepAwaitWalletRemove:
		b.finishRemove(ctx, chatID, text)
	}
}

func (b *Bot) finishAdd(ctx context.Context, chatID int64, wallet string) {
	err := b.subs.AddWallet(ctx, chatID, wallet)
	switch {
	case errors.Is(err, subscription.ErrDuplicate):
		b.send(ctx, chatID, msgDuplicate, mainMenuKeyboard())
	case errors.Is(err, subscription.ErrAllowlistSync):
		b.send(ctx, chatID, msgSyncWarning, mainMenuKeyboard())
	case err != nil:
		b.log.Error("add wallet failed",
			logger.F("chat_id", chatID),
			logger.F("error", err))
		b.send(ctx, chatID, msgGenericError, mainMenuKeyboard())
	default:
		text := fmt.Sprintf("✅ Now tracking `%s`", wallet)
		b.send(ctx, chatID, text, mainMenuKeyboard())
	}
}

func (b *Bot) finishRemove(ctx context.Context, chatID int64, wallet string) {
	err := b.subs.RemoveWallet(ctx, chatID, wallet)
	switch {
	case errors.Is(err, subscription.ErrAllowlistSync):
		b.send(ctx, chatID, msgSyncWarning, mainMenuKeyboard())
	case err != nil:
		b.log.Error("remove wallet failed",
			logger.F("chat_id", chatID),
			logger.F("error", err))
		b.send(ctx, chatID, msgGenericError, mainMenuKeyboard())
	default:
		text := fmt.Sprintf("🗑 No longer tracking `%s`", wallet)
		b.send(ctx, chatID, text, mainMenuKeyboard())
	}
}

func (b *Bot) sendWalletList(ctx context.Context, chatID int64) {
	wallets, err := b.subs.ListWallets(ctx, chatID)
	if err != nil {
		b.log.Error("list wallets failed",
			logger.F("chat_id", chatID),
			logger.F("error", err))
		b.send(ctx, chatID, msgGenericError, mainMenuKeyboard())
		return
	}
	if len(wallets) == 0 {
		b.send(ctx, chatID, msgNoWallets, mainMenuKeyboard())
		return
	}

	var sb strings.Builder
	sb.WriteString("👀 *Tracked Wallets*\n\n")
	for i, w := range wallets {
		fmt.Fprintf(&sb, "%d. [`%s`](https://solscan.io/account/%s)\n", i+1, w, w)
	}
	b.send(ctx, chatID, sb.String(), mainMenuKeyboard())
}

// notifyTimeout is wired into the state store and tells a chat its pending
// request expired.
func (b *Bot) notifyTimeout(chatID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	b.send(ctx, chatID, msgTimeout, mainMenuKeyboard())
}

// SendMessage delivers a Markdown message with retry. It backs the swap
// notification dispatcher.
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	return b.sendWithRetry(ctx, msg)
}

func (b *Bot) send(ctx context.Context, chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}

	if err := b.sendWithRetry(ctx, msg); err != nil {
		b.log.Error("send failed",
			logger.F("chat_id", chatID),
			logger.F("error", err))
	}
}

// sendWithRetry retries transient failures with a quadratic backoff.
func (b *Bot) sendWithRetry(ctx context.Context, msg tgbotapi.MessageConfig) error {
	var lastErr error
	for i := 0; i < b.retryCount; i++ {
		if i > 0 {
			backoff := time.Duration(i*i) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		if _, err := b.api.Send(msg); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("send after %d attempts: %w", b.retryCount, lastErr)
}

func mainMenuKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Add Wallet", cbAddWallet),
			tgbotapi.NewInlineKeyboardButtonData("👀 List Wallets", cbListWallets),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➖ Remove Wallet", cbRemoveWallet),
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Settings", cbSettings),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❓ Help", cbHelp),
		),
	)
	return &kb
}

func backKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back to Menu", cbBackToMenu),
		),
	)
	return &kb
}

// isValidWalletAddress checks that text is a plausible base58 public key.
func isValidWalletAddress(text string) bool {
	if len(text) < 32 || len(text) > 44 {
		return false
	}
	decoded, err := base58.Decode(text)
	if err != nil {
		return false
	}
	return len(decoded) == 32
}
