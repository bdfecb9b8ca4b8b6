package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// Sender is the outbound half of the Telegram API. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// RateLimitedSender keeps outbound traffic under Telegram's global bot limit.
type RateLimitedSender struct {
	next    Sender
	limiter *rate.Limiter
}

func NewRateLimitedSender(next Sender, perSecond float64) *RateLimitedSender {
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}

	return &RateLimitedSender{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (s *RateLimitedSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := s.limiter.Wait(context.Background()); err != nil {
		return tgbotapi.Message{}, fmt.Errorf("RateLimitedSender.Send: %w", err)
	}

	return s.next.Send(c)
}

func (s *RateLimitedSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if err := s.limiter.Wait(context.Background()); err != nil {
		return nil, fmt.Errorf("RateLimitedSender.Request: %w", err)
	}

	return s.next.Request(c)
}
