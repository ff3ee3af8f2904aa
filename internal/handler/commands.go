package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"coo-bot/internal/fault"
	"coo-bot/internal/logger"
)

const helpText = `Я веду твою систему задач и проектов.
ID: /myid
0) /unlock <секретная фраза> — открыть доступ к Notion
1) /setup — создать рабочее пространство в Notion
2) /newtask Текст — добавить задачу
3) /newproject Название — добавить проект
4) /focus — текущий срез по задачам и проектам
5) Голосовое/текст — дам COO-ответ и предложу изменения в Notion
6) /approve — применить предложенные изменения
7) /reject — отклонить предложенные изменения
8) /remind 09:30 mon,wed Текст — напоминание по дням недели
   /remind 09:30 daily Текст — ежедневное
   /remind 2026-09-01 15:00 Текст — разовое
9) /reminders — список, /delreminder <id> — удалить, /resume <id> — возобновить`

// handleCommand dispatches slash commands. Returns false when the message is
// not a command so free-text handling can take over.
func handleCommand(ctx *th.Context, bot *telego.Bot, message telego.Message) (bool, error) {
	text := strings.TrimSpace(message.Text)
	if !strings.HasPrefix(text, "/") {
		return false, nil
	}

	command, args := splitCommand(text)
	userID := message.From.ID
	chatID := message.Chat.ID

	switch command {
	case "/start":
		username := message.From.Username
		sendText(ctx, bot, chatID, fmt.Sprintf(
			"COO агент активен.\nТвой user_id: %d\nТвой username: @%s\nКоманды: /help",
			userID, username))
	case "/help":
		sendText(ctx, bot, chatID, helpText)
	case "/myid":
		sendText(ctx, bot, chatID, fmt.Sprintf("Твой user_id: %d\nТвой username: @%s", userID, message.From.Username))
	case "/unlock":
		handleUnlock(ctx, bot, userID, chatID, args)
	case "/setup":
		handleSetup(ctx, bot, userID, chatID)
	case "/focus":
		handleFocus(ctx, bot, userID, chatID)
	case "/newtask":
		handleNewTask(ctx, bot, userID, chatID, args)
	case "/newproject":
		handleNewProject(ctx, bot, userID, chatID, args)
	case "/approve":
		if !guardNotion(ctx, bot, userID, chatID) {
			return true, nil
		}
		sendText(ctx, bot, chatID, asst.Approve(ctx.Context(), userID))
	case "/reject":
		sendText(ctx, bot, chatID, asst.Reject(userID))
	case "/remind":
		handleRemind(ctx, bot, userID, chatID, args)
	case "/reminders":
		handleListReminders(ctx, bot, userID, chatID)
	case "/delreminder":
		handleDeleteReminder(ctx, bot, userID, chatID, args)
	case "/resume":
		handleResumeReminder(ctx, bot, userID, chatID, args)
	default:
		sendText(ctx, bot, chatID, "Неизвестная команда. Список: /help")
	}
	return true, nil
}

// splitCommand separates the command token (with any @botname stripped) from
// its arguments.
func splitCommand(text string) (string, string) {
	parts := strings.SplitN(text, " ", 2)
	command := parts[0]
	if at := strings.Index(command, "@"); at > 0 {
		command = command[:at]
	}
	args := ""
	if len(parts) == 2 {
		args = strings.TrimSpace(parts[1])
	}
	return command, args
}

func handleUnlock(ctx *th.Context, bot *telego.Bot, userID, chatID int64, phrase string) {
	if globalConfig.Notion.AccessPhrase == "" {
		unlocked.Add(userID)
		sendText(ctx, bot, chatID, "Доступ к Notion открыт (фраза не задана в конфигурации).")
		return
	}
	if phrase != "" && phrase == globalConfig.Notion.AccessPhrase {
		unlocked.Add(userID)
		sendText(ctx, bot, chatID, "Доступ к Notion открыт.")
		return
	}
	sendText(ctx, bot, chatID, "Неверная фраза.")
}

func handleSetup(ctx *th.Context, bot *telego.Bot, userID, chatID int64) {
	if !guardNotion(ctx, bot, userID, chatID) {
		return
	}
	ids, err := workspace.EnsureWorkspace(ctx.Context())
	if err != nil {
		logger.Warningf("Workspace setup failed: %v", err)
		sendText(ctx, bot, chatID, errorText(err))
		return
	}
	sendText(ctx, bot, chatID, fmt.Sprintf(
		"Готово. Workspace в Notion подготовлен.\nWORKSPACE_PAGE_ID=%s\nTASKS_DB_ID=%s\nPROJECTS_DB_ID=%s",
		ids.WorkspacePageID, ids.TasksDBID, ids.ProjectsDBID))
}

func handleFocus(ctx *th.Context, bot *telego.Bot, userID, chatID int64) {
	if !guardNotion(ctx, bot, userID, chatID) {
		return
	}
	snapshot, err := workspace.Snapshot(ctx.Context())
	if err != nil {
		logger.Warningf("Focus snapshot failed: %v", err)
		sendText(ctx, bot, chatID, errorText(err))
		return
	}
	sendText(ctx, bot, chatID, snapshot.Text)
}

func handleNewTask(ctx *th.Context, bot *telego.Bot, userID, chatID int64, text string) {
	if !guardNotion(ctx, bot, userID, chatID) {
		return
	}
	if text == "" {
		sendText(ctx, bot, chatID, "Использование: /newtask <текст задачи>")
		return
	}
	taskID, err := workspace.AddTask(ctx.Context(), text, "", "", "")
	if err != nil {
		logger.Warningf("Failed to add task: %v", err)
		sendText(ctx, bot, chatID, errorText(err))
		return
	}
	sendText(ctx, bot, chatID, "Задача добавлена в Notion. ID: "+taskID)
}

func handleNewProject(ctx *th.Context, bot *telego.Bot, userID, chatID int64, name string) {
	if !guardNotion(ctx, bot, userID, chatID) {
		return
	}
	if name == "" {
		sendText(ctx, bot, chatID, "Использование: /newproject <название проекта>")
		return
	}
	projectID, err := workspace.AddProject(ctx.Context(), name, "", "")
	if err != nil {
		logger.Warningf("Failed to add project: %v", err)
		sendText(ctx, bot, chatID, errorText(err))
		return
	}
	sendText(ctx, bot, chatID, "Проект добавлен в Notion. ID: "+projectID)
}

func handleRemind(ctx *th.Context, bot *telego.Bot, userID, chatID int64, args string) {
	def, err := parseRemind(args, userID, chatID, globalConfig.Reminder.DefaultTimezone)
	if err != nil {
		sendText(ctx, bot, chatID, errorText(err)+"\n\n"+remindUsage)
		return
	}
	id, err := reminders.Create(def)
	if err != nil {
		logger.Warningf("Failed to create reminder: %v", err)
		sendText(ctx, bot, chatID, errorText(err))
		return
	}
	sendText(ctx, bot, chatID, fmt.Sprintf("Напоминание #%d создано.", id))
}

func handleListReminders(ctx *th.Context, bot *telego.Bot, userID, chatID int64) {
	defs, err := reminders.List(userID)
	if err != nil {
		logger.Warningf("Failed to list reminders: %v", err)
		sendText(ctx, bot, chatID, errorText(err))
		return
	}
	if len(defs) == 0 {
		sendText(ctx, bot, chatID, "Напоминаний нет. Создать: /remind")
		return
	}
	lines := make([]string, 0, len(defs))
	for _, def := range defs {
		lines = append(lines, def.Describe())
	}
	sendText(ctx, bot, chatID, "Твои напоминания:\n"+strings.Join(lines, "\n"))
}

func handleDeleteReminder(ctx *th.Context, bot *telego.Bot, userID, chatID int64, args string) {
	id, ok := parseReminderID(args)
	if !ok {
		sendText(ctx, bot, chatID, "Использование: /delreminder <id>")
		return
	}
	if err := reminders.Delete(userID, id); err != nil {
		sendText(ctx, bot, chatID, errorText(err))
		return
	}
	sendText(ctx, bot, chatID, fmt.Sprintf("Напоминание #%d удалено.", id))
}

func handleResumeReminder(ctx *th.Context, bot *telego.Bot, userID, chatID int64, args string) {
	id, ok := parseReminderID(args)
	if !ok {
		sendText(ctx, bot, chatID, "Использование: /resume <id>")
		return
	}
	if err := reminders.Reactivate(userID, id); err != nil {
		sendText(ctx, bot, chatID, errorText(err))
		return
	}
	sendText(ctx, bot, chatID, fmt.Sprintf("Напоминание #%d возобновлено.", id))
}

func parseReminderID(args string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(args), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// errorText renders a fault kind for chat without leaking backend details.
func errorText(err error) string {
	switch fault.KindOf(err) {
	case fault.KindValidation:
		msg := err.Error()
		var fe *fault.Error
		if errors.As(err, &fe) {
			msg = fe.Err.Error()
		}
		return "Некорректный запрос: " + msg
	case fault.KindUnauthorized:
		return "Доступ к Notion отклонён. Проверь токен и права интеграции."
	case fault.KindNotFound:
		return "Не найдено."
	default:
		return "Временная ошибка. Попробуй ещё раз чуть позже."
	}
}
