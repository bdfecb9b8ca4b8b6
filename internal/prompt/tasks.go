package prompt

import (
	"fmt"
	"strings"

	"github.com/AlekSi/pointer"

	"github.com/gratefultolord/astro_bot/internal/db"
)

// Task instructions. Callers guarantee birthday and birthplace are set for the
// reading tasks.

func Today(p *db.Profile, date string, lang db.Language) string {
	if lang == db.LanguageRU {
		return fmt.Sprintf("Гороскоп на сегодня, %s, для человека, родившегося %s в %s.",
			date, pointer.Get(p.Birthday), pointer.Get(p.Birthplace))
	}

	return fmt.Sprintf("Today's horoscope for %s for %s in %s.",
		date, pointer.Get(p.Birthday), pointer.Get(p.Birthplace))
}

func Tomorrow(p *db.Profile, date string, lang db.Language) string {
	if lang == db.LanguageRU {
		return fmt.Sprintf("Гороскоп на завтра, %s, для человека, родившегося %s в %s.",
			date, pointer.Get(p.Birthday), pointer.Get(p.Birthplace))
	}

	return fmt.Sprintf("Tomorrow's horoscope for %s for %s in %s.",
		date, pointer.Get(p.Birthday), pointer.Get(p.Birthplace))
}

func Year(p *db.Profile, year int, lang db.Language) string {
	if lang == db.LanguageRU {
		return fmt.Sprintf("Годовой прогноз на %d год для человека, родившегося %s в %s.",
			year, pointer.Get(p.Birthday), pointer.Get(p.Birthplace))
	}

	return fmt.Sprintf("Annual forecast for the year %d for %s in %s.",
		year, pointer.Get(p.Birthday), pointer.Get(p.Birthplace))
}

// Compatibility embeds the optional partner description when given.
func Compatibility(p *db.Profile, partner string, lang db.Language) string {
	partner = strings.TrimSpace(partner)

	if lang == db.LanguageRU {
		task := fmt.Sprintf("Астрологическая совместимость для человека, родившегося %s в %s.",
			pointer.Get(p.Birthday), pointer.Get(p.Birthplace))
		if partner != "" {
			return task + fmt.Sprintf(" Партнёр: %s.", partner)
		}
		return task + " Опиши, с какими знаками совместимость наиболее и наименее гармонична."
	}

	task := fmt.Sprintf("Astrological compatibility reading for %s in %s.",
		pointer.Get(p.Birthday), pointer.Get(p.Birthplace))
	if partner != "" {
		return task + fmt.Sprintf(" Partner: %s.", partner)
	}
	return task + " Describe which signs are the most and the least harmonious matches."
}

func Question(question, date string, lang db.Language) string {
	if lang == db.LanguageRU {
		return fmt.Sprintf("Вопрос пользователя: %s. Сегодняшняя дата: %s.", question, date)
	}

	return fmt.Sprintf("User's question: %s. Today's date: %s.", question, date)
}
