package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AlekSi/pointer"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gratefultolord/astro_bot/internal/db"
	"github.com/gratefultolord/astro_bot/internal/prompt"
)

// Completer produces text for a prompt.
type Completer interface {
	Complete(ctx context.Context, p prompt.Prompt, temperature float32) (string, error)
}

// TimezoneResolver maps coordinates to an IANA zone id.
type TimezoneResolver interface {
	Lookup(ctx context.Context, lat, lng float64) (string, error)
}

type BotService struct {
	sender    Sender
	profiles  db.ProfileStore
	completer Completer
	timezones TimezoneResolver
	states    *StateStore
	log       *zap.Logger
	now       func() time.Time
}

func New(
	sender Sender,
	profiles db.ProfileStore,
	completer Completer,
	timezones TimezoneResolver,
	states *StateStore,
	log *zap.Logger,
) *BotService {
	return &BotService{
		sender:    sender,
		profiles:  profiles,
		completer: completer,
		timezones: timezones,
		states:    states,
		log:       log,
		now:       time.Now,
	}
}

// HandleUpdate dispatches one inbound update. It never panics and never
// returns an error: failures are logged and reported to the chat.
func (b *BotService) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	log := b.log.With(
		zap.String("trace_id", uuid.NewString()),
		zap.Int("update_id", update.UpdateID),
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while handling update", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	if update.CallbackQuery != nil {
		b.handleCallback(ctx, log, update.CallbackQuery)
		return
	}

	message := update.Message
	if message == nil || message.Chat == nil {
		return
	}

	chatID := message.Chat.ID
	log = log.With(zap.Int64("chat_id", chatID))

	if message.Location != nil {
		b.states.Clear(chatID)
		b.handleLocation(ctx, log, chatID, message.Location)
		return
	}

	if message.IsCommand() {
		b.states.Clear(chatID)
		b.handleCommand(ctx, log, message)
		return
	}

	text := strings.TrimSpace(message.Text)
	if text == "" {
		return
	}

	switch step := b.states.Current(chatID); step {
	case StepProfileDetails:
		b.handleProfileDetails(ctx, log, chatID, text)
	case StepManualTimezone:
		b.handleManualTimezone(ctx, log, chatID, text)
	case StepBirthTime:
		b.handleBirthTime(ctx, log, chatID, text)
	default:
		b.handleQuestion(ctx, log, chatID, text)
	}
}

func (b *BotService) handleCommand(ctx context.Context, log *zap.Logger, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	command := message.Command()

	log.Info("command received", zap.String("command", command))

	switch command {
	case "start":
		b.handleStart(log, chatID)
	case "help":
		b.handleHelp(ctx, log, chatID)
	case "setinfo":
		b.askFor(ctx, log, chatID, StepProfileDetails, func(t texts) string { return t.SetInfoPrompt })
	case "viewinfo":
		b.handleViewInfo(ctx, log, chatID)
	case "setbirthtime":
		b.askFor(ctx, log, chatID, StepBirthTime, func(t texts) string { return t.BirthTimePrompt })
	case "today", "tomorrow", "year", "compatibility":
		b.handleReading(ctx, log, chatID, command, message.CommandArguments())
	case "settimezone":
		b.handleSetTimezone(ctx, log, chatID)
	case "settimezone_manual":
		b.askFor(ctx, log, chatID, StepManualTimezone, func(t texts) string { return t.TimezoneManual })
	case "cancel":
		b.send(log, tgbotapi.NewMessage(chatID, b.textsFor(ctx, log, chatID).Cancelled))
	default:
		b.send(log, tgbotapi.NewMessage(chatID, b.textsFor(ctx, log, chatID).UnknownCommand))
	}
}

func (b *BotService) handleStart(log *zap.Logger, chatID int64) {
	msg := tgbotapi.NewMessage(chatID, languagePicker)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("English", callbackLangEN),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Русский", callbackLangRU),
		),
	)
	b.send(log, msg)
}

func (b *BotService) handleCallback(ctx context.Context, log *zap.Logger, query *tgbotapi.CallbackQuery) {
	if _, err := b.sender.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.Warn("failed to answer callback query", zap.Error(err))
	}

	var chatID int64
	switch {
	case query.Message != nil && query.Message.Chat != nil:
		chatID = query.Message.Chat.ID
	case query.From != nil:
		chatID = query.From.ID
	default:
		log.Warn("callback query without chat")
		return
	}
	log = log.With(zap.Int64("chat_id", chatID))

	var lang db.Language
	switch query.Data {
	case callbackLangRU:
		lang = db.LanguageRU
	case callbackLangEN, callbackLangENLegacy:
		lang = db.LanguageEN
	default:
		log.Warn("unknown callback data", zap.String("data", query.Data))
		return
	}

	if err := b.profiles.Save(ctx, chatID, db.Fields{db.FieldLanguage: string(lang)}); err != nil {
		log.Error("failed to save language", zap.Error(err))
		b.send(log, tgbotapi.NewMessage(chatID, textsFor(lang).Apology))
		return
	}

	log.Info("language selected", zap.String("language", string(lang)))
	b.send(log, tgbotapi.NewMessage(chatID, textsFor(lang).Greeting))
}

func (b *BotService) handleHelp(ctx context.Context, log *zap.Logger, chatID int64) {
	b.send(log, tgbotapi.NewMessage(chatID, b.textsFor(ctx, log, chatID).Help))
}

// askFor sends a question and waits for the next text message from the chat.
func (b *BotService) askFor(ctx context.Context, log *zap.Logger, chatID int64, step Step, question func(texts) string) {
	msg := tgbotapi.NewMessage(chatID, question(b.textsFor(ctx, log, chatID)))
	msg.ReplyMarkup = tgbotapi.ForceReply{ForceReply: true, Selective: true}
	b.send(log, msg)

	b.states.Await(chatID, step)
}

func (b *BotService) handleProfileDetails(ctx context.Context, log *zap.Logger, chatID int64, text string) {
	b.states.Clear(chatID)
	t := b.textsFor(ctx, log, chatID)

	fields, ok := ParseProfileDetails(text)
	if !ok {
		log.Info("invalid profile details")
		b.send(log, tgbotapi.NewMessage(chatID, t.SetInfoInvalid))
		return
	}

	if err := b.profiles.Save(ctx, chatID, fields); err != nil {
		log.Error("failed to save profile details", zap.Error(err))
		b.send(log, tgbotapi.NewMessage(chatID, t.Apology))
		return
	}

	b.send(log, tgbotapi.NewMessage(chatID, t.SetInfoSaved))
}

func (b *BotService) handleViewInfo(ctx context.Context, log *zap.Logger, chatID int64) {
	profile := b.loadProfile(ctx, log, chatID)
	t := textsFor(profile.LanguageOrDefault())

	if !profile.HasDetails() {
		b.send(log, tgbotapi.NewMessage(chatID, t.NoInfo))
		return
	}

	text := fmt.Sprintf(t.ViewInfo,
		pointer.Get(profile.Name), pointer.Get(profile.Birthday), pointer.Get(profile.Birthplace))
	if profile.BirthTime != nil {
		text += fmt.Sprintf(t.ViewInfoTime, pointer.Get(profile.BirthTime))
	}
	if profile.Timezone != nil {
		text += fmt.Sprintf(t.ViewInfoTimezone, pointer.Get(profile.Timezone))
	}

	b.send(log, tgbotapi.NewMessage(chatID, text))
}

func (b *BotService) handleBirthTime(ctx context.Context, log *zap.Logger, chatID int64, text string) {
	t := b.textsFor(ctx, log, chatID)

	if isCancel(text) {
		b.states.Clear(chatID)
		b.send(log, tgbotapi.NewMessage(chatID, t.Cancelled))
		return
	}

	if !IsValidBirthTime(text) {
		b.states.Await(chatID, StepBirthTime)
		b.send(log, tgbotapi.NewMessage(chatID, t.BirthTimeInvalid))
		return
	}

	b.states.Clear(chatID)
	if err := b.profiles.Save(ctx, chatID, db.Fields{db.FieldBirthTime: text}); err != nil {
		log.Error("failed to save birth time", zap.Error(err))
		b.send(log, tgbotapi.NewMessage(chatID, t.Apology))
		return
	}

	b.send(log, tgbotapi.NewMessage(chatID, t.BirthTimeSaved))
}

// handleReading serves /today, /tomorrow, /year and /compatibility.
func (b *BotService) handleReading(ctx context.Context, log *zap.Logger, chatID int64, command, args string) {
	profile := b.loadProfile(ctx, log, chatID)
	lang := profile.LanguageOrDefault()
	t := textsFor(lang)

	if !profile.HasBirthData() {
		b.send(log, tgbotapi.NewMessage(chatID, t.NeedInfo))
		return
	}

	loc, err := ResolveLocation(profile.TimezoneOrDefault())
	if err != nil {
		log.Warn("stored timezone is invalid", zap.Error(err))
		b.send(log, tgbotapi.NewMessage(chatID, t.TimezoneIssue))
		return
	}
	now := b.now().In(loc)

	var task string
	switch command {
	case "today":
		task = prompt.Today(profile, now.Format(dateLayout), lang)
	case "tomorrow":
		task = prompt.Tomorrow(profile, now.AddDate(0, 0, 1).Format(dateLayout), lang)
	case "year":
		task = prompt.Year(profile, now.Year(), lang)
	case "compatibility":
		task = prompt.Compatibility(profile, args, lang)
	}

	b.reply(ctx, log, chatID, prompt.Build(task, profile, lang), prompt.TemperatureReading, t)
}

func (b *BotService) handleQuestion(ctx context.Context, log *zap.Logger, chatID int64, question string) {
	profile := b.loadProfile(ctx, log, chatID)
	lang := profile.LanguageOrDefault()
	t := textsFor(lang)

	if !profile.HasDetails() {
		b.send(log, tgbotapi.NewMessage(chatID, t.NeedInfo))
		return
	}

	loc, err := ResolveLocation(profile.TimezoneOrDefault())
	if err != nil {
		log.Warn("stored timezone is invalid, using UTC", zap.Error(err))
		loc = time.UTC
	}

	task := prompt.Question(question, b.now().In(loc).Format(dateLayout), lang)
	b.reply(ctx, log, chatID, prompt.Build(task, profile, lang), prompt.TemperatureFreeForm, t)
}

// reply calls the completion API once and relays its text verbatim.
func (b *BotService) reply(ctx context.Context, log *zap.Logger, chatID int64, p prompt.Prompt, temperature float32, t texts) {
	if _, err := b.sender.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		log.Debug("failed to send typing action", zap.Error(err))
	}

	started := b.now()
	answer, err := b.completer.Complete(ctx, p, temperature)
	if err != nil {
		log.Error("completion failed", zap.Error(err))
		b.send(log, tgbotapi.NewMessage(chatID, t.Apology))
		return
	}

	log.Info("completion generated",
		zap.Duration("took", b.now().Sub(started)),
		zap.Int("length", len(answer)))
	b.send(log, tgbotapi.NewMessage(chatID, answer))
}

func (b *BotService) handleSetTimezone(ctx context.Context, log *zap.Logger, chatID int64) {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonLocation(locationButton),
		),
	)
	keyboard.OneTimeKeyboard = true

	msg := tgbotapi.NewMessage(chatID, b.textsFor(ctx, log, chatID).TimezoneRequest)
	msg.ReplyMarkup = keyboard
	b.send(log, msg)
}

func (b *BotService) handleLocation(ctx context.Context, log *zap.Logger, chatID int64, location *tgbotapi.Location) {
	t := b.textsFor(ctx, log, chatID)

	tz, err := b.timezones.Lookup(ctx, location.Latitude, location.Longitude)
	if err != nil {
		log.Error("timezone lookup failed", zap.Error(err))
		b.send(log, withoutKeyboard(tgbotapi.NewMessage(chatID, t.TimezoneFailed)))
		return
	}

	if err := b.profiles.Save(ctx, chatID, db.Fields{db.FieldTimezone: tz}); err != nil {
		log.Error("failed to save timezone", zap.Error(err))
		b.send(log, withoutKeyboard(tgbotapi.NewMessage(chatID, t.Apology)))
		return
	}

	log.Info("timezone detected", zap.String("timezone", tz))
	b.send(log, withoutKeyboard(tgbotapi.NewMessage(chatID, fmt.Sprintf(t.TimezoneSet, tz))))
}

func (b *BotService) handleManualTimezone(ctx context.Context, log *zap.Logger, chatID int64, text string) {
	t := b.textsFor(ctx, log, chatID)

	if isCancel(text) {
		b.states.Clear(chatID)
		b.send(log, tgbotapi.NewMessage(chatID, t.Cancelled))
		return
	}

	if !IsValidTimezone(text) {
		b.states.Await(chatID, StepManualTimezone)
		b.send(log, tgbotapi.NewMessage(chatID, t.TimezoneInvalid))
		return
	}

	b.states.Clear(chatID)
	if err := b.profiles.Save(ctx, chatID, db.Fields{db.FieldTimezone: text}); err != nil {
		log.Error("failed to save timezone", zap.Error(err))
		b.send(log, tgbotapi.NewMessage(chatID, t.Apology))
		return
	}

	b.send(log, tgbotapi.NewMessage(chatID, fmt.Sprintf(t.TimezoneSet, text)))
}

// loadProfile returns nil both when the profile is missing and when the store
// fails; the latter is logged.
func (b *BotService) loadProfile(ctx context.Context, log *zap.Logger, chatID int64) *db.Profile {
	profile, err := b.profiles.Load(ctx, chatID)
	if err != nil {
		if !errors.Is(err, db.ErrProfileNotFound) {
			log.Error("failed to load profile", zap.Error(err))
		}
		return nil
	}

	return profile
}

func (b *BotService) textsFor(ctx context.Context, log *zap.Logger, chatID int64) texts {
	return textsFor(b.loadProfile(ctx, log, chatID).LanguageOrDefault())
}

func (b *BotService) send(log *zap.Logger, msg tgbotapi.MessageConfig) {
	if _, err := b.sender.Send(msg); err != nil {
		log.Error("failed to send message", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
	}
}

func withoutKeyboard(msg tgbotapi.MessageConfig) tgbotapi.MessageConfig {
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	return msg
}

func isCancel(text string) bool {
	switch NormalizeText(text) {
	case "cancel", "отмена":
		return true
	}

	return false
}
