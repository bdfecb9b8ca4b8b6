package transport

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// UpdatesSource is the long-polling part of *tgbotapi.BotAPI.
type UpdatesSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Poller struct {
	dispatcher
	api     UpdatesSource
	timeout int
}

func NewPoller(api UpdatesSource, handler Handler, dedup Deduper, log *zap.Logger) *Poller {
	return &Poller{
		dispatcher: dispatcher{handler: handler, dedup: dedup, log: log},
		api:        api,
		timeout:    60,
	}
}

// Run handles updates one at a time until ctx is cancelled or the channel
// closes. Fetch errors are retried by tgbotapi on a fixed delay.
func (p *Poller) Run(ctx context.Context) error {
	if _, err := p.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		p.log.Warn("failed to delete webhook before polling", zap.Error(err))
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = p.timeout
	updates := p.api.GetUpdatesChan(u)

	p.log.Info("polling for updates")

	for {
		select {
		case <-ctx.Done():
			p.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			p.dispatch(ctx, update)
		}
	}
}
