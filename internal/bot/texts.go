package bot

import (
	"fmt"
	"strings"

	"finbot/internal/core"
	"finbot/internal/services"
)

const (
	textWelcome = "👋 Добро пожаловать в финансового бота!\n" +
		"Введите /help для списка команд.\n" +
		"Этот бот поможет вам управлять вашими 💰 доходами и 💸 расходами."

	textHelp = "Список команд:\n" +
		"🔹 /add - Добавить транзакцию\n" +
		"🔹 /edit - Изменить транзакцию\n" +
		"🔹 /delete - Удалить транзакцию\n" +
		"🔹 /transactions - Показать все транзакции\n" +
		"🔹 /report - Показать отчет за месяц\n" +
		"🔹 /setlimit - Установить лимит расходов (off - снять)\n" +
		"🔹 /limit - Показать лимит и расходы\n" +
		"🔹 /export - Экспортировать транзакции в CSV"

	textAddUsage = "⚠️ Для добавления транзакции используйте формат:\n" +
		"/add доход/расход, категория, сумма\n" +
		"Пример: /add доход, зарплата, 5000"

	textAddFormat = "❌ Ошибка! Формат: /add доход/расход, категория, сумма"
	textAdded     = "✅ Транзакция успешно добавлена!"

	textEditUsage = "⚠️ Для редактирования транзакции используйте формат:\n" +
		"/edit <индекс>, <доход/расход>, <категория>, <сумма>\n" +
		"Пример: /edit 1, доход, премия, 2000"

	textEditFormat = "❌ Ошибка! Формат: /edit <индекс>, <доход/расход>, <категория>, <сумма>"
	textEditEmpty  = "ℹ️ Нет транзакций для редактирования."
	textEdited     = "✅ Транзакция успешно обновлена!"

	textDeleteUsage = "⚠️ Для удаления транзакции используйте формат:\n" +
		"/delete <индекс>\n" +
		"Пример: /delete 1"

	textDeleteFormat = "❌ Ошибка! Формат: /delete <индекс>"
	textDeleteEmpty  = "ℹ️ Нет транзакций для удаления."
	textDeleted      = "✅ Транзакция успешно удалена!"

	textSetLimitUsage = "⚠️ Для установки лимита используйте формат:\n" +
		"/setlimit сумма\n" +
		"Пример: /setlimit 20000\n" +
		"Чтобы снять лимит: /setlimit off"

	textSetLimitFormat = "❌ Ошибка! Формат: /setlimit сумма"
	textLimitCleared   = "✅ Лимит снят."

	textNoTransactions = "ℹ️ Нет записанных транзакций."
	textNoReport       = "ℹ️ Нет данных для отчета."
	textNoExport       = "ℹ️ Нет данных для экспорта."

	textBadIndex      = "❌ Ошибка: указан неверный индекс."
	textLimitExceeded = "❌ Ошибка! Расход превышает установленный лимит."
	textThrottled     = "⏳ Слишком много запросов. Попробуйте через минуту."
	textUnknown       = "🤔 Неизвестная команда. Введите /help для списка команд."
	textInternal      = "❌ Внутренняя ошибка. Попробуйте позже."
	textSheetFailed   = "⚠️ Не удалось выгрузить транзакции в Google Таблицы."
)

func kindLabel(k core.Kind) string {
	switch k {
	case core.Income:
		return "доход"
	case core.Expense:
		return "расход"
	default:
		return k.String()
	}
}

func formatTransactions(txs []core.Transaction) string {
	var b strings.Builder
	b.WriteString("📜 Все транзакции:\n")
	for i, t := range txs {
		fmt.Fprintf(&b, "%d. %s - %s - %s - %s\n",
			i+1,
			t.Timestamp.Format("2006-01-02"),
			kindLabel(t.Kind),
			t.Category,
			core.FormatAmount(t.Amount))
	}
	return b.String()
}

func formatReport(r core.Report) string {
	return fmt.Sprintf("📅 Отчет за %s\n💰 Доход: %s\n💸 Расход: %s\n📊 Баланс: %s",
		r.Period,
		core.FormatAmount(r.Income),
		core.FormatAmount(r.Expense),
		core.FormatAmount(r.Balance))
}

func formatLimitSet(limit string) string {
	return "✅ Лимит установлен: " + limit
}

func formatLimitStatus(st services.LimitStatus) string {
	if st.Limit == nil {
		return "ℹ️ Лимит не установлен.\n💸 Израсходовано: " + core.FormatAmount(st.Spent)
	}
	return fmt.Sprintf("📏 Лимит: %s\n💸 Израсходовано: %s\n🟢 Остаток: %s",
		core.FormatAmount(*st.Limit),
		core.FormatAmount(st.Spent),
		core.FormatAmount(st.Limit.Sub(st.Spent)))
}

func formatSheetRef(ref string) string {
	return "📄 Транзакции также выгружены в таблицу: " + ref
}
