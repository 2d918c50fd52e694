/*
Shop Chat - терминальный чат с ассистентом витрины.
TUI на Bubble Tea, ассистент работает напрямую (без HTTP сервера),
инструменты каталога подключены как в боевом сервере.
*/

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/muesli/reflow/wordwrap"

	"github.com/ilkoid/vitrina-ai/internal/ui"
	"github.com/ilkoid/vitrina-ai/pkg/agent"
	"github.com/ilkoid/vitrina-ai/pkg/catalog"
	"github.com/ilkoid/vitrina-ai/pkg/config"
	"github.com/ilkoid/vitrina-ai/pkg/events"
	"github.com/ilkoid/vitrina-ai/pkg/factory"
	"github.com/ilkoid/vitrina-ai/pkg/llm"
	"github.com/ilkoid/vitrina-ai/pkg/prompt"
	"github.com/ilkoid/vitrina-ai/pkg/tools"
	"github.com/ilkoid/vitrina-ai/pkg/tools/shop"
)

// fallbackSystemPrompt используется когда YAML промпт недоступен.
const fallbackSystemPrompt = "Ты ассистент интернет-магазина. Помогаешь покупателям " +
	"находить товары через инструменты каталога. Отвечай на русском языке, кратко и по делу. " +
	"Не выдумывай товары, которых нет в каталоге."

// ChatState хранит состояние чата.
type ChatState struct {
	history   []llm.Message
	assistant *agent.Assistant
	modelDef  config.ModelDef
	modelName string
}

// teaMsg типы для коммуникации.
type aiResponseMsg struct {
	text       string
	transcript []llm.Message
}
type toolEventMsg struct{ text string }
type errorMsg struct{ err error }

// chatModel - TUI модель для чата.
type chatModel struct {
	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model

	chatState *ChatState
	loading   bool
	err       error
	ready     bool
}

// initialModel создает начальное состояние TUI.
func initialModel(chatState *ChatState) tea.Model {
	ta := textarea.New()
	ta.Placeholder = "Спросите про товары..."
	ta.Focus()
	ta.Prompt = "┃ "
	ta.SetHeight(3)
	ta.CharLimit = 1000
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false) // Enter отправляет, не переносит строку

	// Размеры вьюпорта обновятся при WindowSizeMsg
	vp := viewport.New(0, 0)

	initialContent := fmt.Sprintf("%s\nМодель: %s\n%s\n%s\n",
		ui.SystemMsgStyle("🛍  Vitrina Shop Chat"),
		chatState.modelName,
		ui.SystemMsgStyle("Напишите сообщение и нажмите Enter"),
		ui.SystemMsgStyle("Ctrl+C или Esc для выхода"))
	vp.SetContent(initialContent)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return chatModel{
		chatState: chatState,
		textarea:  ta,
		viewport:  vp,
		spinner:   sp,
		ready:     false,
	}
}

// Init инициализирует TUI.
func (m chatModel) Init() tea.Cmd {
	return textarea.Blink
}

// Update обрабатывает события.
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		headerHeight := 1
		footerHeight := m.textarea.Height() + 2

		vpHeight := msg.Height - headerHeight - footerHeight
		if vpHeight < 0 {
			vpHeight = 0
		}

		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
		m.textarea.SetWidth(msg.Width)
		m.ready = true

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			input := m.textarea.Value()
			if input == "" {
				return m, nil
			}

			m.textarea.Reset()
			m.appendLog(ui.UserMsgStyle("Вы: ") + input)

			m.loading = true
			return m, tea.Batch(
				m.spinner.Tick,
				makeAIRequestCmd(m.chatState, input),
			)

		case tea.KeyCtrlU:
			m.textarea.Reset()
			return m, nil
		}

	case toolEventMsg:
		m.appendLog(ui.ToolMsgStyle(msg.text))

	case aiResponseMsg:
		m.loading = false

		// Транскрипт запроса (user + tool calls + ответ) уходит в историю
		m.chatState.history = append(m.chatState.history, msg.transcript...)
		m.appendLog(ui.SystemMsgStyle("Ассистент: ") + m.wrap(msg.text))

	case errorMsg:
		m.loading = false
		m.err = msg.err
		m.appendLog(ui.ErrorMsgStyle("❌ Ошибка: ") + msg.err.Error())
	}

	if m.loading {
		m.spinner, spCmd = m.spinner.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, spCmd)
	}

	return m, tea.Batch(tiCmd, vpCmd)
}

// wrap переносит длинные ответы по ширине вьюпорта.
func (m *chatModel) wrap(text string) string {
	width := m.viewport.Width
	if width <= 0 {
		return text
	}
	return wordwrap.String(text, width)
}

// Хелпер для добавления строки в лог.
func (m *chatModel) appendLog(str string) {
	newContent := fmt.Sprintf("%s\n%s", m.viewport.View(), str)
	m.viewport.SetContent(newContent)
	m.viewport.GotoBottom()
}

// View рендерит интерфейс.
func (m chatModel) View() string {
	if !m.ready {
		return "Initializing UI..."
	}

	status := fmt.Sprintf(" SHOP CHAT | MODEL: %s ", m.chatState.modelName)

	header := ui.HeaderStyle.
		Width(m.viewport.Width).
		Render(status)

	border := ui.BorderStyle.
		Width(m.viewport.Width).
		Render("──────────────────────────────────────────────────")

	view := fmt.Sprintf("%s\n%s\n%s\n%s",
		header,
		m.viewport.View(),
		border,
		m.textarea.View(),
	)

	if m.loading {
		view += "\n" + m.spinner.View() + " Думаю..."
	}

	return view
}

// Команда для запроса к ассистенту.
func makeAIRequestCmd(chatState *ChatState, input string) tea.Cmd {
	return func() tea.Msg {
		timeout := chatState.modelDef.Timeout
		if timeout <= 0 {
			timeout = 2 * time.Minute
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		result, err := chatState.assistant.Ask(ctx, chatState.history, input)
		if err != nil {
			return errorMsg{err: fmt.Errorf("ошибка API: %w", err)}
		}

		return aiResponseMsg{text: result.Answer, transcript: result.Transcript}
	}
}

// forwardToolEvents транслирует события ассистента в TUI.
func forwardToolEvents(p *tea.Program, sub events.Subscriber) {
	for event := range sub.Events() {
		switch data := event.Data.(type) {
		case events.ToolCallData:
			p.Send(toolEventMsg{text: fmt.Sprintf("⚙ %s %s", data.ToolName, data.Args)})
		case events.ToolResultData:
			p.Send(toolEventMsg{text: fmt.Sprintf("⚙ %s готово (%s)", data.ToolName, data.Duration.Round(time.Millisecond))})
		}
	}
}

func main() {
	configPath := flag.String("config", "config.yaml", "путь к config.yaml")
	flag.Parse()

	// .env опционален: боевой конфиг берёт ключи из окружения
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	modelName := cfg.Models.DefaultChat
	modelDef, ok := cfg.GetChatModel("")
	if !ok {
		log.Fatalf("Модель '%s' не найдена в определениях", modelName)
	}

	provider, err := factory.NewLLMProvider(modelDef)
	if err != nil {
		log.Fatalf("Ошибка создания провайдера: %v", err)
	}

	// Каталог: YAML посев или встроенные демо-товары
	var repo catalog.Repository
	if cfg.Catalog.SeedPath != "" {
		repo, err = catalog.NewMemoryRepositoryFromFile(cfg.Catalog.SeedPath)
		if err != nil {
			log.Fatalf("Ошибка загрузки каталога: %v", err)
		}
	} else {
		repo, err = catalog.NewMemoryRepository(catalog.DemoProducts())
		if err != nil {
			log.Fatalf("Ошибка инициализации каталога: %v", err)
		}
	}

	registry := tools.NewRegistry()
	for _, tool := range []tools.Tool{
		shop.NewSearchProductsTool(repo),
		shop.NewGetProductDetailsTool(repo),
		shop.NewCheckStockTool(repo),
	} {
		if err := registry.Register(tool); err != nil {
			log.Fatalf("Ошибка регистрации инструмента: %v", err)
		}
	}

	systemPrompt := fallbackSystemPrompt
	if cfg.App.PromptsDir != "" {
		if pf, err := prompt.LoadFromDir(cfg.App.PromptsDir, "assistant_system"); err == nil {
			systemPrompt = pf.SystemText()
		}
	}

	emitter := events.NewChanEmitter(64)
	defer emitter.Close()

	assistant := agent.New(provider, registry, systemPrompt,
		agent.WithEmitter(emitter),
		agent.WithMaxIterations(cfg.App.MaxIterations),
	)

	chatState := &ChatState{
		assistant: assistant,
		modelDef:  modelDef,
		modelName: modelName,
	}

	p := tea.NewProgram(
		initialModel(chatState),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go forwardToolEvents(p, emitter.Subscribe())

	if _, err := p.Run(); err != nil {
		log.Fatalf("Ошибка запуска TUI: %v", err)
	}
}
