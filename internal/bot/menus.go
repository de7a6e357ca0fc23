package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"bookkicker/internal/models"
	"bookkicker/internal/reading"
)

func label(ru, en, lang string) string {
	if lang == "en" {
		return en
	}
	return ru
}

// mainMenu is the top-level inline keyboard
func mainMenu(lang string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label("📖 Читать", "📖 Read", lang), "action:read_more"),
			tgbotapi.NewInlineKeyboardButtonData(label("📚 Библиотека", "📚 Library", lang), "menu:library"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label("📊 Статистика", "📊 Statistics", lang), "menu:stats"),
			tgbotapi.NewInlineKeyboardButtonData(label("⚙️ Настройки", "⚙️ Settings", lang), "menu:settings"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label("❓ Помощь", "❓ Help", lang), "action:help"),
		),
	)
}

// readingMenu is attached to every delivered portion
func readingMenu(lang string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label("▶️ Ещё", "▶️ More", lang), "action:read_more"),
			tgbotapi.NewInlineKeyboardButtonData(label("⏩ Пропустить", "⏩ Skip", lang), "action:skip"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label("🔖 Закладка", "🔖 Bookmark", lang), "action:add_bookmark"),
			tgbotapi.NewInlineKeyboardButtonData(label("🏠 Меню", "🏠 Menu", lang), "menu:main"),
		),
	)
}

func settingsMenu(lang string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label("🔄 Автоотправка", "🔄 Auto-send", lang), "action:toggle_auto"),
			tgbotapi.NewInlineKeyboardButtonData(label("⏰ Частота", "⏰ Frequency", lang), "setting:frequency"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label("📏 Размер порции", "📏 Chunk size", lang), "setting:chunk_size"),
			tgbotapi.NewInlineKeyboardButtonData(label("🌍 Язык", "🌍 Language", lang), "setting:language"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label("🔊 Аудио", "🔊 Audio", lang), "setting:audio"),
			tgbotapi.NewInlineKeyboardButtonData(label("🏠 Меню", "🏠 Menu", lang), "menu:main"),
		),
	)
}

// frequencyMenu marks the currently selected frequency
func frequencyMenu(current int, lang string) tgbotapi.InlineKeyboardMarkup {
	options := []int{1, 2, 4, 6, 12}
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, n := range options {
		text := fmt.Sprintf("%d/", n) + label("день", "day", lang)
		if n == current {
			text = "✅ " + text
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(text, fmt.Sprintf("freq:set:%d", n)))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(label("⬅️ Назад", "⬅️ Back", lang), "menu:settings"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func chunkSizeMenu(current int, lang string) tgbotapi.InlineKeyboardMarkup {
	options := []int{400, 893, 1500, 2500, 4000}
	var row []tgbotapi.InlineKeyboardButton
	for _, n := range options {
		text := fmt.Sprintf("%d", n)
		if n == current {
			text = "✅ " + text
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(text, fmt.Sprintf("chunk:set:%d", n)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		row,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label("⬅️ Назад", "⬅️ Back", lang), "menu:settings"),
		),
	)
}

func languageMenu(lang string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🇷🇺 Русский", "lang:set:ru"),
			tgbotapi.NewInlineKeyboardButtonData("🇬🇧 English", "lang:set:en"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label("⬅️ Назад", "⬅️ Back", lang), "menu:settings"),
		),
	)
}

func audioMenu(enabled bool, lang string) tgbotapi.InlineKeyboardMarkup {
	on := label("Вкл", "On", lang)
	off := label("Выкл", "Off", lang)
	if enabled {
		on = "✅ " + on
	} else {
		off = "✅ " + off
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(on, "audio:set:on"),
			tgbotapi.NewInlineKeyboardButtonData(off, "audio:set:off"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label("⬅️ Назад", "⬅️ Back", lang), "menu:settings"),
		),
	)
}

func statsMenu(lang string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label("Σ Всего", "Σ Total", lang), "stats:total"),
			tgbotapi.NewInlineKeyboardButtonData(label("📈 Неделя", "📈 Week", lang), "stats:week"),
			tgbotapi.NewInlineKeyboardButtonData(label("📅 Месяц", "📅 Month", lang), "stats:month"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label("🏠 Меню", "🏠 Menu", lang), "menu:main"),
		),
	)
}

// libraryMenu lists the user's books with progress, one button per book.
func libraryMenu(positions []models.Position, lang string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, pos := range positions {
		text := pos.BookName
		if percent, known := reading.Progress(pos.Offset, pos.TotalLines); known {
			text = fmt.Sprintf("%s — %.1f%%", pos.BookName, percent)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(text, "book:set:"+pos.BookName),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(label("🏠 Меню", "🏠 Menu", lang), "menu:main"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// bookmarksMenu lists bookmarks of the current book: tap to jump, ✖ to delete.
func bookmarksMenu(bookmarks []models.Bookmark, lang string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, bm := range bookmarks {
		text := fmt.Sprintf("📍 %d", bm.Offset)
		if bm.Note != "" {
			text = fmt.Sprintf("📍 %d — %s", bm.Offset, bm.Note)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(text, fmt.Sprintf("book:jump:%d", bm.ID)),
			tgbotapi.NewInlineKeyboardButtonData("✖", fmt.Sprintf("bm:del:%d", bm.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(label("🏠 Меню", "🏠 Menu", lang), "menu:main"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
