package bot

// User-facing texts keyed by message id and language. Russian is the
// default; unknown languages fall back to it.
var messages = map[string]map[string]string{
	"start": {
		"ru": "Привет! Я присылаю книги по кусочкам.\n\nПришлите мне .txt файл с книгой, и я буду отправлять вам порции текста — по команде /more или по расписанию.",
		"en": "Hi! I deliver books in small portions.\n\nSend me a .txt file and I will send you chunks of text — on /more or on a schedule.",
	},
	"help": {
		"ru": "Команды:\n/more — следующая порция\n/skip — пропустить ~100 строк\n/menu — главное меню\n/library — ваши книги\n/bookmarks — закладки\n/stats — статистика чтения\n\nПришлите .txt файл, чтобы добавить книгу.",
		"en": "Commands:\n/more — next portion\n/skip — skip ~100 lines\n/menu — main menu\n/library — your books\n/bookmarks — bookmarks\n/stats — reading statistics\n\nSend a .txt file to add a book.",
	},
	"menu":            {"ru": "Главное меню:", "en": "Main menu:"},
	"settings":        {"ru": "⚙️ Настройки:", "en": "⚙️ Settings:"},
	"no_book":         {"ru": "Книга не найдена. Сначала загрузите книгу.", "en": "No book found. Please upload a book first."},
	"book_finished":   {"ru": "📕 Книга закончилась. Поздравляем!", "en": "📕 The book is finished. Congratulations!"},
	"book_added":      {"ru": "✅ Книга «%s» добавлена! Используйте /more, чтобы начать читать.", "en": "✅ Book \"%s\" added! Use /more to start reading."},
	"bad_file_type":   {"ru": "Я понимаю только .txt файлы.", "en": "I can only read .txt files."},
	"upload_failed":   {"ru": "Не получилось обработать файл. Попробуйте ещё раз.", "en": "Failed to process the file. Please try again."},
	"try_again":       {"ru": "Что-то пошло не так. Попробуйте ещё раз.", "en": "Something went wrong. Please try again."},
	"skipped":         {"ru": "⏩ Пропущено ~100 строк", "en": "⏩ Skipped ~100 lines"},
	"no_stats":        {"ru": "Статистика пока пуста.", "en": "No statistics yet."},
	"empty_library":   {"ru": "Ваша библиотека пуста.", "en": "Your library is empty."},
	"library":         {"ru": "📚 Ваша библиотека:", "en": "📚 Your library:"},
	"no_bookmarks":    {"ru": "Закладок пока нет.", "en": "No bookmarks yet."},
	"bookmarks":       {"ru": "🔖 Закладки:", "en": "🔖 Bookmarks:"},
	"bookmark_added":  {"ru": "🔖 Закладка добавлена", "en": "🔖 Bookmark added"},
	"bookmark_gone":   {"ru": "Закладка удалена", "en": "Bookmark deleted"},
	"jumped":          {"ru": "Переход к закладке выполнен", "en": "Jumped to bookmark"},
	"lang_changed":    {"ru": "Язык изменён ✅", "en": "Language changed ✅"},
	"book_selected":   {"ru": "✅ Книга установлена текущей", "en": "✅ Book set as current"},
	"auto_on":         {"ru": "Автоотправка включена ✅", "en": "Auto-send enabled ✅"},
	"auto_off":        {"ru": "Автоотправка выключена", "en": "Auto-send disabled"},
	"audio_on":        {"ru": "Аудио: Вкл ✅", "en": "Audio: On ✅"},
	"audio_off":       {"ru": "Аудио: Выкл", "en": "Audio: Off"},
	"bad_setting":     {"ru": "Недопустимое значение, настройка не изменена.", "en": "Invalid value, setting unchanged."},
	"choose_freq":     {"ru": "⏰ Частота отправки:", "en": "⏰ Send frequency:"},
	"choose_chunk":    {"ru": "📏 Размер порции текста:", "en": "📏 Text chunk size:"},
	"choose_lang":     {"ru": "🌍 Выберите язык:", "en": "🌍 Choose language:"},
	"choose_audio":    {"ru": "🔊 Аудио режим:", "en": "🔊 Audio mode:"},
	"stats_title":     {"ru": "📊 Статистика:", "en": "📊 Statistics:"},
	"unknown_command": {"ru": "Не понимаю. Используйте /help.", "en": "I don't understand. Try /help."},
}

func msgText(lang, key string) string {
	byLang, ok := messages[key]
	if !ok {
		return key
	}
	if text, ok := byLang[lang]; ok {
		return text
	}
	return byLang["ru"]
}
