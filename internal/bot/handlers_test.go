package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/gratefultolord/astro_bot/internal/db"
	"github.com/gratefultolord/astro_bot/internal/prompt"
)

type fakeSender struct {
	mu       sync.Mutex
	messages []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		s.messages = append(s.messages, msg)
	}
	return tgbotapi.Message{}, nil
}

func (s *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (s *fakeSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()

	if len(s.messages) == 0 {
		t.Fatal("no messages sent")
	}
	return s.messages[len(s.messages)-1]
}

type completion struct {
	prompt      prompt.Prompt
	temperature float32
}

type fakeCompleter struct {
	answer string
	err    error
	calls  []completion
}

func (c *fakeCompleter) Complete(_ context.Context, p prompt.Prompt, temperature float32) (string, error) {
	c.calls = append(c.calls, completion{prompt: p, temperature: temperature})
	return c.answer, c.err
}

type fakeTimezones struct {
	zone string
	err  error
}

func (f fakeTimezones) Lookup(context.Context, float64, float64) (string, error) {
	return f.zone, f.err
}

type brokenStore struct{}

func (brokenStore) Save(context.Context, int64, db.Fields) error {
	return errors.New("store unavailable")
}

func (brokenStore) Load(context.Context, int64) (*db.Profile, error) {
	return nil, errors.New("store unavailable")
}

type harness struct {
	bot       *BotService
	sender    *fakeSender
	store     *db.MemoryProfileRepository
	completer *fakeCompleter
	states    *StateStore
	nextID    int
}

var fixedNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		sender:    &fakeSender{},
		store:     db.NewMemoryProfileRepository(),
		completer: &fakeCompleter{answer: "The stars favour you today."},
		states:    NewStateStore(10 * time.Minute),
	}
	h.states.now = func() time.Time { return fixedNow }

	h.bot = New(h.sender, h.store, h.completer, fakeTimezones{zone: "Europe/Paris"}, h.states, zap.NewNop())
	h.bot.now = func() time.Time { return fixedNow }

	return h
}

func (h *harness) update() int {
	h.nextID++
	return h.nextID
}

func (h *harness) command(chatID int64, text string) {
	name := strings.SplitN(text, " ", 2)[0]
	h.bot.HandleUpdate(context.Background(), tgbotapi.Update{
		UpdateID: h.update(),
		Message: &tgbotapi.Message{
			Chat: &tgbotapi.Chat{ID: chatID},
			Text: text,
			Entities: []tgbotapi.MessageEntity{
				{Type: "bot_command", Offset: 0, Length: len(name)},
			},
		},
	})
}

func (h *harness) text(chatID int64, text string) {
	h.bot.HandleUpdate(context.Background(), tgbotapi.Update{
		UpdateID: h.update(),
		Message:  &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: text},
	})
}

func (h *harness) callback(chatID int64, data string) {
	h.bot.HandleUpdate(context.Background(), tgbotapi.Update{
		UpdateID: h.update(),
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb",
			Data:    data,
			Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}},
		},
	})
}

func (h *harness) location(chatID int64) {
	h.bot.HandleUpdate(context.Background(), tgbotapi.Update{
		UpdateID: h.update(),
		Message: &tgbotapi.Message{
			Chat:     &tgbotapi.Chat{ID: chatID},
			Location: &tgbotapi.Location{Latitude: 48.85, Longitude: 2.35},
		},
	})
}

func (h *harness) completeProfile(t *testing.T, chatID int64) {
	t.Helper()

	err := h.store.Save(context.Background(), chatID, db.Fields{
		db.FieldName:       "Jane",
		db.FieldBirthday:   "1990-01-01",
		db.FieldBirthplace: "Paris",
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestUnknownChatGetsEnglishDefaults(t *testing.T) {
	h := newHarness(t)

	h.command(100, "/help")
	if got := h.sender.last(t).Text; got != catalog[db.LanguageEN].Help {
		t.Fatalf("unexpected help text: %q", got)
	}

	h.command(100, "/viewinfo")
	if got := h.sender.last(t).Text; got != catalog[db.LanguageEN].NoInfo {
		t.Fatalf("unexpected viewinfo text: %q", got)
	}
}

func TestReadingsRequireBirthData(t *testing.T) {
	h := newHarness(t)
	_ = h.store.Save(context.Background(), 1, db.Fields{db.FieldName: "Jane"})

	for _, cmd := range []string{"/today", "/tomorrow", "/year", "/compatibility"} {
		h.command(1, cmd)

		if got := h.sender.last(t).Text; got != catalog[db.LanguageEN].NeedInfo {
			t.Fatalf("%s: unexpected reply %q", cmd, got)
		}
	}

	if len(h.completer.calls) != 0 {
		t.Fatalf("completion API must not be called, got %d calls", len(h.completer.calls))
	}
}

func TestEndToEndScenario(t *testing.T) {
	h := newHarness(t)
	const chatID = 77

	h.command(chatID, "/start")
	if h.sender.last(t).ReplyMarkup == nil {
		t.Fatal("/start must send the language picker")
	}

	h.callback(chatID, callbackLangEN)
	if got := h.store.Fields(chatID)[db.FieldLanguage]; got != "EN" {
		t.Fatalf("expected language EN, got %q", got)
	}
	if h.sender.last(t).Text != catalog[db.LanguageEN].Greeting {
		t.Fatalf("unexpected greeting: %q", h.sender.last(t).Text)
	}

	h.command(chatID, "/setinfo")
	if h.states.Current(chatID) != StepProfileDetails {
		t.Fatal("expected chat to await profile details")
	}

	h.text(chatID, "Jane, 1990-01-01, Paris")
	doc := h.store.Fields(chatID)
	if doc[db.FieldName] != "Jane" || doc[db.FieldBirthday] != "1990-01-01" || doc[db.FieldBirthplace] != "Paris" {
		t.Fatalf("unexpected profile: %v", doc)
	}
	if h.states.Current(chatID) != StepIdle {
		t.Fatal("expected chat to return to idle")
	}

	h.command(chatID, "/today")

	if len(h.completer.calls) != 1 {
		t.Fatalf("expected exactly one completion, got %d", len(h.completer.calls))
	}

	call := h.completer.calls[0]
	for _, part := range []string{"2026-10-15", "Jane", "1990-01-01", "Paris"} {
		if !strings.Contains(call.prompt.User, part) {
			t.Fatalf("prompt %q is missing %q", call.prompt.User, part)
		}
	}
	if call.temperature != prompt.TemperatureReading {
		t.Fatalf("unexpected temperature %v", call.temperature)
	}

	if got := h.sender.last(t).Text; got != h.completer.answer {
		t.Fatalf("completion not relayed verbatim: %q", got)
	}
}

func TestSetInfoRoundTrip(t *testing.T) {
	h := newHarness(t)

	h.command(5, "/setinfo")
	h.text(5, "  Zoë Ä. Smith ,1985-12-03,  Miami, FL ")
	h.command(5, "/viewinfo")

	want := "Your details:\nName: Zoë Ä. Smith\nBirthday: 1985-12-03\nBirthplace: Miami, FL"
	if got := h.sender.last(t).Text; got != want {
		t.Fatalf("unexpected viewinfo:\n got: %q\nwant: %q", got, want)
	}
}

func TestInvalidSetInfoReplyLeavesProfile(t *testing.T) {
	h := newHarness(t)
	h.completeProfile(t, 9)
	before := h.store.Fields(9)

	h.command(9, "/setinfo")
	h.text(9, "just my name")

	if got := h.sender.last(t).Text; got != catalog[db.LanguageEN].SetInfoInvalid {
		t.Fatalf("unexpected reply: %q", got)
	}

	after := h.store.Fields(9)
	for _, key := range []string{db.FieldName, db.FieldBirthday, db.FieldBirthplace} {
		if before[key] != after[key] {
			t.Fatalf("%s changed from %q to %q", key, before[key], after[key])
		}
	}

	if h.states.Current(9) != StepIdle {
		t.Fatal("expected idle after invalid reply")
	}
}

func TestFreeTextQuestion(t *testing.T) {
	h := newHarness(t)
	h.completeProfile(t, 3)

	h.text(3, "Will I travel soon?")

	if len(h.completer.calls) != 1 {
		t.Fatalf("expected one completion, got %d", len(h.completer.calls))
	}

	call := h.completer.calls[0]
	if call.temperature != prompt.TemperatureFreeForm {
		t.Fatalf("unexpected temperature %v", call.temperature)
	}
	if !strings.Contains(call.prompt.User, "User's question: Will I travel soon?. Today's date: 2026-10-15.") {
		t.Fatalf("question not embedded: %q", call.prompt.User)
	}
}

func TestFreeTextWithoutProfile(t *testing.T) {
	h := newHarness(t)

	h.text(4, "hello?")

	if len(h.completer.calls) != 0 {
		t.Fatal("completion API must not be called for incomplete profiles")
	}
	if got := h.sender.last(t).Text; got != catalog[db.LanguageEN].NeedInfo {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestCompletionFailureApologizes(t *testing.T) {
	h := newHarness(t)
	h.completeProfile(t, 6)
	h.completer.err = errors.New("upstream 500")

	h.command(6, "/year")

	if got := h.sender.last(t).Text; got != catalog[db.LanguageEN].Apology {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestRussianLanguage(t *testing.T) {
	h := newHarness(t)
	h.completeProfile(t, 8)

	h.callback(8, callbackLangRU)
	h.command(8, "/help")

	if got := h.sender.last(t).Text; got != catalog[db.LanguageRU].Help {
		t.Fatalf("expected russian help, got %q", got)
	}

	h.command(8, "/today")
	call := h.completer.calls[0]
	if call.prompt.System != prompt.System(db.LanguageRU) {
		t.Fatal("expected russian persona")
	}
}

func TestDatesFollowTimezone(t *testing.T) {
	h := newHarness(t)
	h.completeProfile(t, 10)
	_ = h.store.Save(context.Background(), 10, db.Fields{db.FieldTimezone: "+3"})
	h.bot.now = func() time.Time { return time.Date(2026, 10, 15, 23, 30, 0, 0, time.UTC) }

	h.command(10, "/tomorrow")

	if !strings.Contains(h.completer.calls[0].prompt.User, "2026-10-17") {
		t.Fatalf("expected tomorrow in +3 to be 2026-10-17: %q", h.completer.calls[0].prompt.User)
	}
}

func TestBrokenStoredTimezone(t *testing.T) {
	h := newHarness(t)
	h.completeProfile(t, 11)
	_ = h.store.Save(context.Background(), 11, db.Fields{db.FieldTimezone: "Mars/Olympus"})

	h.command(11, "/today")

	if got := h.sender.last(t).Text; got != catalog[db.LanguageEN].TimezoneIssue {
		t.Fatalf("unexpected reply: %q", got)
	}
	if len(h.completer.calls) != 0 {
		t.Fatal("completion API must not be called")
	}
}

func TestManualTimezone(t *testing.T) {
	h := newHarness(t)

	h.command(12, "/settimezone_manual")
	h.text(12, "Nowhere/Special")

	if got := h.sender.last(t).Text; got != catalog[db.LanguageEN].TimezoneInvalid {
		t.Fatalf("unexpected reply: %q", got)
	}
	if h.states.Current(12) != StepManualTimezone {
		t.Fatal("invalid timezone must keep the chat waiting")
	}

	h.text(12, "-5")

	if got := h.store.Fields(12)[db.FieldTimezone]; got != "-5" {
		t.Fatalf("timezone not saved: %q", got)
	}
	if h.states.Current(12) != StepIdle {
		t.Fatal("expected idle after valid timezone")
	}
}

func TestLocationSetsTimezone(t *testing.T) {
	h := newHarness(t)

	h.command(13, "/settimezone")
	if h.sender.last(t).ReplyMarkup == nil {
		t.Fatal("expected location keyboard")
	}

	h.location(13)

	if got := h.store.Fields(13)[db.FieldTimezone]; got != "Europe/Paris" {
		t.Fatalf("timezone not saved: %q", got)
	}
	if !strings.Contains(h.sender.last(t).Text, "Europe/Paris") {
		t.Fatalf("unexpected reply: %q", h.sender.last(t).Text)
	}
}

func TestLocationLookupFailure(t *testing.T) {
	h := newHarness(t)
	h.bot.timezones = fakeTimezones{err: errors.New("quota")}

	h.location(14)

	if got := h.sender.last(t).Text; got != catalog[db.LanguageEN].TimezoneFailed {
		t.Fatalf("unexpected reply: %q", got)
	}
	if _, ok := h.store.Fields(14)[db.FieldTimezone]; ok {
		t.Fatal("timezone must not be saved on failure")
	}
}

func TestCommandSupersedesPendingReply(t *testing.T) {
	h := newHarness(t)

	h.command(15, "/setinfo")
	h.command(15, "/help")

	if h.states.Current(15) != StepIdle {
		t.Fatal("a new command must clear the pending reply")
	}
}

func TestPendingReplyExpires(t *testing.T) {
	h := newHarness(t)

	h.command(16, "/setinfo")
	h.states.now = func() time.Time { return fixedNow.Add(11 * time.Minute) }

	h.text(16, "Jane, 1990-01-01, Paris")

	if _, ok := h.store.Fields(16)[db.FieldName]; ok {
		t.Fatal("expired state must not consume the reply as profile details")
	}
	if got := h.sender.last(t).Text; got != catalog[db.LanguageEN].NeedInfo {
		t.Fatalf("expected the text to be treated as a question, got %q", got)
	}
}

func TestBirthTime(t *testing.T) {
	h := newHarness(t)
	h.completeProfile(t, 17)

	h.command(17, "/setbirthtime")
	h.text(17, "25:00")
	if h.states.Current(17) != StepBirthTime {
		t.Fatal("invalid time must keep the chat waiting")
	}

	h.text(17, "21:22")
	if got := h.store.Fields(17)[db.FieldBirthTime]; got != "21:22" {
		t.Fatalf("birth time not saved: %q", got)
	}

	h.command(17, "/today")
	if !strings.Contains(h.completer.calls[0].prompt.User, "Birth time: 21:22") {
		t.Fatalf("birth time missing from prompt: %q", h.completer.calls[0].prompt.User)
	}
}

func TestCompatibilityArguments(t *testing.T) {
	h := newHarness(t)
	h.completeProfile(t, 18)

	h.command(18, "/compatibility Leo, born 1992-08-10")

	if !strings.Contains(h.completer.calls[0].prompt.User, "Partner: Leo, born 1992-08-10.") {
		t.Fatalf("partner missing from prompt: %q", h.completer.calls[0].prompt.User)
	}
}

func TestStoreFailureFallsBackToDefaults(t *testing.T) {
	h := newHarness(t)
	h.bot.profiles = brokenStore{}

	h.command(19, "/viewinfo")
	if got := h.sender.last(t).Text; got != catalog[db.LanguageEN].NoInfo {
		t.Fatalf("unexpected reply: %q", got)
	}

	h.command(19, "/setinfo")
	h.text(19, "Jane, 1990-01-01, Paris")
	if got := h.sender.last(t).Text; got != catalog[db.LanguageEN].Apology {
		t.Fatalf("expected apology on failed save, got %q", got)
	}
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)

	h.command(20, "/horoscope")

	if got := h.sender.last(t).Text; got != catalog[db.LanguageEN].UnknownCommand {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestCallbackIsAnswered(t *testing.T) {
	h := newHarness(t)

	h.callback(21, callbackLangENLegacy)

	var answered bool
	for _, r := range h.sender.requests {
		if _, ok := r.(tgbotapi.CallbackConfig); ok {
			answered = true
		}
	}
	if !answered {
		t.Fatal("callback query was not answered")
	}
	if got := h.store.Fields(21)[db.FieldLanguage]; got != "EN" {
		t.Fatalf("legacy callback should store EN, got %q", got)
	}
}
