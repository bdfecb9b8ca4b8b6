// Package transport feeds Telegram updates to the bot, either by long polling
// or through a webhook endpoint.
package transport

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Handler consumes one update. *bot.BotService satisfies it.
type Handler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

type dispatcher struct {
	handler Handler
	dedup   Deduper
	log     *zap.Logger
}

// dispatch hands the update to the handler unless its id was already seen.
// A failing deduper does not block delivery.
func (d *dispatcher) dispatch(ctx context.Context, update tgbotapi.Update) bool {
	fresh, err := d.dedup.MarkNew(ctx, update.UpdateID)
	if err != nil {
		d.log.Warn("update dedup failed", zap.Int("update_id", update.UpdateID), zap.Error(err))
		fresh = true
	}

	if !fresh {
		d.log.Info("duplicate update dropped", zap.Int("update_id", update.UpdateID))
		return false
	}

	d.handler.HandleUpdate(ctx, update)
	return true
}
