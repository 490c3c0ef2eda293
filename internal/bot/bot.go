package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/amarchal/majordome/internal/assistant"
	"github.com/amarchal/majordome/internal/planner"
)

const helpText = `🤖 Majordome

Commandes:
/briefing - Briefing du jour
/emails - Résumé des emails
/list - Tâches en attente
/add <texte> - Ajout direct sans analyse
/done <id ou titre> - Terminer une tâche
/event <description> - Créer un événement
/content <sujet> - Générer tweet + LinkedIn
/plan - Plan du jour
/focus - Priorité du moment
/decompose <id> - Découper une tâche
/review - Bilan de la semaine
/stats - Statistiques

Sinon, écris-moi en langage naturel.`

// Bot is the Telegram shell. It serves exactly one authorized chat and
// forwards everything to the assistant router.
type Bot struct {
	api     *tgbotapi.BotAPI
	chatID  int64
	router  *assistant.Router
	planner *planner.Engine
	log     zerolog.Logger
}

// New connects to the Telegram API with the given token.
func New(token string, chatID int64, router *assistant.Router, plannerEngine *planner.Engine, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}
	log.Info().Str("username", api.Self.UserName).Msg("telegram bot authorized")
	return &Bot{api: api, chatID: chatID, router: router, planner: plannerEngine, log: log}, nil
}

// Notifier returns a briefing.Notifier that pushes to the authorized chat.
func (b *Bot) Notifier() *Notifier {
	return &Notifier{api: b.api, chatID: b.chatID}
}

// Run polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat.ID != b.chatID {
		b.log.Warn().Int64("chat_id", msg.Chat.ID).Msg("ignoring message from unauthorized chat")
		return
	}

	var reply string
	if msg.IsCommand() {
		reply = b.handleCommand(ctx, msg.Command(), strings.TrimSpace(msg.CommandArguments()))
	} else {
		reply = b.dispatch(ctx, msg.Text)
	}
	if reply == "" {
		return
	}
	b.send(reply)
}

// handleCommand maps slash commands onto the router. Commands with free
// text arguments reuse the natural-language pipeline so that command and
// message behavior never diverge.
func (b *Bot) handleCommand(ctx context.Context, command, args string) string {
	switch command {
	case "start", "help":
		return helpText
	case "briefing":
		return b.dispatch(ctx, "briefing")
	case "emails":
		return b.dispatch(ctx, "emails")
	case "list":
		return b.dispatch(ctx, "liste")
	case "stats":
		return b.dispatch(ctx, "stats")
	case "focus":
		return b.dispatch(ctx, "focus")
	case "review":
		return b.dispatch(ctx, "bilan de la semaine")
	case "add":
		if args == "" {
			return "Usage: /add <texte> [urgent|important] [catégorie]"
		}
		out, err := b.router.ForceAddTask(ctx, args)
		if err != nil {
			return FormatError(err)
		}
		return FormatOutcome(out)
	case "done":
		if args == "" {
			return "Usage: /done <id ou titre>"
		}
		return b.dispatch(ctx, "fait "+args)
	case "event":
		if args == "" {
			return "Usage: /event <description>"
		}
		return b.dispatch(ctx, "planifie "+args)
	case "content":
		if args == "" {
			return "Usage: /content <sujet>"
		}
		return b.dispatch(ctx, "content "+args)
	case "plan":
		plan, err := b.planner.SuggestDailyPriorities(ctx)
		if err != nil {
			return FormatError(err)
		}
		return FormatPlan(plan)
	case "decompose":
		id, err := strconv.ParseInt(args, 10, 64)
		if err != nil {
			return "Usage: /decompose <id>"
		}
		d, err := b.planner.DecomposeTask(ctx, id)
		if err != nil {
			return FormatError(err)
		}
		return FormatDecomposition(d)
	default:
		return "🤔 Commande inconnue. /help pour la liste."
	}
}

func (b *Bot) dispatch(ctx context.Context, text string) string {
	out, err := b.router.HandleMessage(ctx, b.chatID, text)
	if err != nil {
		b.log.Error().Err(err).Msg("message handling failed")
		return FormatError(err)
	}
	return FormatOutcome(out)
}

func (b *Bot) send(text string) {
	msg := tgbotapi.NewMessage(b.chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error().Err(err).Msg("telegram send failed")
	}
}
