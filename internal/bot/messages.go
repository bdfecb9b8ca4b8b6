package bot

import "github.com/gratefultolord/astro_bot/internal/db"

const (
	callbackLangEN       = "LANG_EN"
	callbackLangENLegacy = "LANG_ENG"
	callbackLangRU       = "LANG_RU"

	languagePicker = "Choose your language / Выберите язык:"
	locationButton = "📍 Share Location/Поделиться геолокацией"
)

type texts struct {
	Greeting         string
	Help             string
	SetInfoPrompt    string
	SetInfoInvalid   string
	SetInfoSaved     string
	ViewInfo         string
	ViewInfoTime     string
	ViewInfoTimezone string
	NoInfo           string
	NeedInfo         string
	TimezoneIssue    string
	TimezoneRequest  string
	TimezoneSet      string
	TimezoneFailed   string
	TimezoneManual   string
	TimezoneInvalid  string
	BirthTimePrompt  string
	BirthTimeInvalid string
	BirthTimeSaved   string
	Cancelled        string
	UnknownCommand   string
	Apology          string
}

var catalog = map[db.Language]texts{
	db.LanguageEN: {
		Greeting: "Hello! Use /help to view the available commands.",
		Help: "Available commands:\n" +
			"/setinfo - Enter your details\n" +
			"/viewinfo - Show your details\n" +
			"/setbirthtime - Set your birth time\n" +
			"/today - Today's horoscope\n" +
			"/tomorrow - Tomorrow's horoscope\n" +
			"/year - Annual forecast\n" +
			"/compatibility - Compatibility reading (optionally followed by partner details)\n" +
			"/settimezone - Set timezone automatically\n" +
			"/settimezone_manual - Set timezone manually\n" +
			"/cancel - Cancel the current input\n\n" +
			"Once your details are set you can also just ask me a question.",
		SetInfoPrompt:    "Please send your details in this format:\nName, Birthday (YYYY-MM-DD), Birthplace",
		SetInfoInvalid:   "❌ Invalid format. Please use: Name, Birthday (YYYY-MM-DD), Birthplace. Send /setinfo to try again.",
		SetInfoSaved:     "✅ Your details have been saved.",
		ViewInfo:         "Your details:\nName: %s\nBirthday: %s\nBirthplace: %s",
		ViewInfoTime:     "\nBirth time: %s",
		ViewInfoTimezone: "\nTimezone: %s",
		NoInfo:           "You haven't entered any details yet. Use /setinfo.",
		NeedInfo:         "Please set your details first using /setinfo.",
		TimezoneIssue:    "There was an issue with your timezone. Please reset it using /settimezone.",
		TimezoneRequest:  "Please share your location so I can set your timezone automatically.",
		TimezoneSet:      "✅ Your timezone has been set to \"%s\".",
		TimezoneFailed:   "❌ Unable to detect timezone. Please try again or set it manually using /settimezone_manual.",
		TimezoneManual:   "Please provide your timezone manually (e.g., 'America/New_York' or '+3').",
		TimezoneInvalid:  "❌ Invalid timezone format. Try again (e.g., 'Europe/Paris' or '-5').",
		BirthTimePrompt:  "Please send your birth time in 24-hour format, e.g. 21:22.",
		BirthTimeInvalid: "❌ Invalid time. Please use HH:MM, e.g. 07:45.",
		BirthTimeSaved:   "✅ Your birth time has been saved.",
		Cancelled:        "Okay, cancelled.",
		UnknownCommand:   "I don't know this command. Use /help to view the available commands.",
		Apology:          "An error occurred while generating a response. Please try again later.",
	},
	db.LanguageRU: {
		Greeting: "Привет! Используйте /help для просмотра команд.",
		Help: "Доступные команды:\n" +
			"/setinfo - Ввести данные\n" +
			"/viewinfo - Показать данные\n" +
			"/setbirthtime - Указать время рождения\n" +
			"/today - Гороскоп на сегодня\n" +
			"/tomorrow - Гороскоп на завтра\n" +
			"/year - Годовой прогноз\n" +
			"/compatibility - Совместимость (можно указать данные партнёра после команды)\n" +
			"/settimezone - Установить часовой пояс (автоматически)\n" +
			"/settimezone_manual - Установить часовой пояс вручную\n" +
			"/cancel - Отменить текущий ввод\n\n" +
			"После ввода данных можно просто задать мне вопрос.",
		SetInfoPrompt:    "Пожалуйста, отправьте ваши данные в формате:\nИмя, Дата рождения (ГГГГ-ММ-ДД), Место рождения",
		SetInfoInvalid:   "❌ Неверный формат. Пожалуйста, используйте: Имя, Дата рождения (ГГГГ-ММ-ДД), Место рождения. Отправьте /setinfo, чтобы попробовать снова.",
		SetInfoSaved:     "✅ Ваши данные сохранены.",
		ViewInfo:         "Ваши данные:\nИмя: %s\nДата рождения: %s\nМесто рождения: %s",
		ViewInfoTime:     "\nВремя рождения: %s",
		ViewInfoTimezone: "\nЧасовой пояс: %s",
		NoInfo:           "Вы еще не ввели данные. Используйте /setinfo.",
		NeedInfo:         "Сначала укажите свои данные с помощью /setinfo.",
		TimezoneIssue:    "Проблема с вашим часовым поясом. Установите его заново с помощью /settimezone.",
		TimezoneRequest:  "Поделитесь геолокацией, чтобы я автоматически определил ваш часовой пояс.",
		TimezoneSet:      "✅ Ваш часовой пояс установлен: \"%s\".",
		TimezoneFailed:   "❌ Не удалось определить часовой пояс. Попробуйте снова или укажите его вручную: /settimezone_manual.",
		TimezoneManual:   "Укажите часовой пояс вручную (например, 'Europe/Moscow' или '+3').",
		TimezoneInvalid:  "❌ Неверный формат часового пояса. Попробуйте снова (например, 'Europe/Moscow' или '-5').",
		BirthTimePrompt:  "Отправьте время рождения в 24-часовом формате, например 21:22.",
		BirthTimeInvalid: "❌ Неверное время. Используйте формат ЧЧ:ММ, например 07:45.",
		BirthTimeSaved:   "✅ Время рождения сохранено.",
		Cancelled:        "Хорошо, отменено.",
		UnknownCommand:   "Я не знаю такой команды. Используйте /help для просмотра команд.",
		Apology:          "Произошла ошибка при генерации ответа. Пожалуйста, попробуйте позже.",
	},
}

func textsFor(lang db.Language) texts {
	if t, ok := catalog[lang]; ok {
		return t
	}

	return catalog[db.LanguageEN]
}
