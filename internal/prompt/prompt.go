// Package prompt assembles the system and user text sent to the completion API.
package prompt

import (
	"fmt"
	"strings"

	"github.com/AlekSi/pointer"

	"github.com/gratefultolord/astro_bot/internal/db"
)

const (
	systemEN = "You are a compassionate psychologist and experienced astrologer with decades of practice. " +
		"Support the user in overcoming anxiety, pain, and life challenges. " +
		"Offer wise guidance and predict key moments for their growth and healing."
	systemRU = "Ты чуткий психолог и опытный астролог с многолетней практикой. " +
		"Поддерживай пользователя, помогая справляться с тревогой, болью и жизненными трудностями. " +
		"Дай мудрые советы и предскажи важные моменты для их роста и исцеления."
)

// Sampling temperatures per kind of request.
const (
	TemperatureReading  float32 = 0.7
	TemperatureFreeForm float32 = 1.0
)

type Prompt struct {
	System string
	User   string
}

func System(lang db.Language) string {
	if lang == db.LanguageRU {
		return systemRU
	}

	return systemEN
}

// Build joins the profile context and the task with a blank line. The result
// depends only on the arguments.
func Build(task string, profile *db.Profile, lang db.Language) Prompt {
	return Prompt{
		System: System(lang),
		User:   contextLine(profile, lang) + "\n\n" + task,
	}
}

func contextLine(p *db.Profile, lang db.Language) string {
	labels := [4]string{"Name", "Birthday", "Birthplace", "Birth time"}
	head, none := "User info: ", "No user details provided."
	if lang == db.LanguageRU {
		labels = [4]string{"Имя", "Дата рождения", "Место рождения", "Время рождения"}
		head, none = "Данные пользователя: ", "Данные пользователя не указаны."
	}

	if p == nil {
		return none
	}

	var parts []string
	for i, v := range []*string{p.Name, p.Birthday, p.Birthplace, p.BirthTime} {
		if v != nil {
			parts = append(parts, fmt.Sprintf("%s: %s", labels[i], pointer.Get(v)))
		}
	}

	if len(parts) == 0 {
		return none
	}

	return head + strings.Join(parts, ", ") + "."
}
