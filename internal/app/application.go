package app

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"

	"flowsheet/internal/config"
	"flowsheet/internal/events"
	"flowsheet/internal/keyboard"
	"flowsheet/internal/logger"
	"flowsheet/internal/widgets"
	"flowsheet/internal/window"
)

const (
	AppName    = "flowsheet"
	AppID      = "io.flowsheet.scaffold"
	AppVersion = "0.1.0"

	MainMenuID   = "main"
	ExitButtonID = "exit"
	QuitCombo    = "ctrl+q"
	HelpKey      = "f1"
	PressedCombo = "ctrl+shift+k"

	component = "Application"
)

var (
	menuLabels = []string{"Help", "Clear", "Keys", "Exit"}
	newMenu    = widgets.NewMenu
)

// Options carries what New needs beyond the config.
type Options struct {
	Config config.Config
	// ConfigPath enables live reload when set.
	ConfigPath string
	// FyneApp defaults to a new fyne application.
	FyneApp fyne.App
	// Console receives the run log mirror when Config.Log.Console is set.
	// Defaults to stderr.
	Console io.Writer
}

type Application struct {
	cfg        config.Config
	configPath string

	fyneApp   fyne.App
	window    *window.Window
	runLog    *logger.RunLog
	keys      *keyboard.Helper
	registry  *events.Registry
	handlers  *Handlers
	lifecycle *Lifecycle

	status *widgets.Label
	exit   *widgets.Button
	menu   *widgets.Menu

	loopExited atomic.Bool
}

// New opens the run log and builds the window, keyboard helper and
// registry, then binds the application's handlers.
func New(opts Options) (*Application, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runOpts := []logger.RunLogOption{logger.WithLevel(logger.ParseLevel(cfg.Log.Level))}
	if cfg.Log.Console {
		console := opts.Console
		if console == nil {
			console = os.Stderr
		}
		runOpts = append(runOpts, logger.WithConsole(console))
	}
	runLog, created, err := logger.OpenRunLog(cfg.Log.Dir, runOpts...)
	if err != nil {
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	if created {
		runLog.LogInfo(fmt.Sprintf("log directory %s created", cfg.Log.Dir))
	}

	fyneApp := opts.FyneApp
	if fyneApp == nil {
		fyneApp = fyneapp.NewWithID(AppID)
	}

	a := &Application{
		cfg:        cfg,
		configPath: opts.ConfigPath,
		fyneApp:    fyneApp,
		runLog:     runLog,
		keys: keyboard.New(
			keyboard.WithLogger(runLog),
			keyboard.WithMaxInterval(cfg.Keyboard.ComboInterval),
			keyboard.WithPollInterval(cfg.Keyboard.PollInterval),
			keyboard.WithHistorySize(cfg.Keyboard.HistorySize),
		),
		registry: events.NewRegistry(runLog, events.WithLogger(runLog)),
		window: window.New(fyneApp, cfg.Window.Title,
			fyne.NewSize(cfg.Window.Width, cfg.Window.Height),
			window.WithLogger(runLog)),
	}
	a.lifecycle = NewLifecycle(runLog)

	if err := a.buildUI(); err != nil {
		runLog.Close()
		return nil, err
	}
	a.handlers = NewHandlers(a.status, a.keys, runLog, a.window.Fyne(), a.requestQuit)
	a.exit.OnError = a.handlers.ReportError
	a.menu.SetOnError(a.handlers.ReportError)

	if err := a.bindHandlers(); err != nil {
		runLog.Close()
		return nil, err
	}

	runLog.Info(component, "initialization complete", map[string]interface{}{
		"version": AppVersion,
		"width":   cfg.Window.Width,
		"height":  cfg.Window.Height,
	})
	return a, nil
}

func (a *Application) buildUI() error {
	a.status = widgets.NewLabel("hello")
	a.status.Resize(fyne.NewSize(360, 40))
	a.status.Goto(fyne.NewPos(100, 100))

	a.exit = widgets.NewButton("exit")
	a.exit.Resize(fyne.NewSize(80, 40))
	a.exit.Move(fyne.NewPos(500, 500))

	// Actions come from the registry.
	menu, err := newMenu(MainMenuID, menuLabels, nil)
	if err != nil {
		return fmt.Errorf("building menu: %w", err)
	}
	a.menu = menu

	a.window.SetContent(container.NewBorder(
		a.menu.Object(), nil, nil, nil,
		container.NewWithoutLayout(a.status, a.exit),
	))
	return nil
}

// bindHandlers declares every handler first and finalizes them against the
// registry and keyboard helper, then registers the widgets.
func (a *Application) bindHandlers() error {
	h := a.handlers
	notQuitting := func() bool {
		select {
		case <-h.Quitting():
			return false
		default:
			return true
		}
	}

	builder := events.NewBuilder().
		OnButton(ExitButtonID, h.Quit, nil).
		OnMenuButton(MainMenuID, 0, h.ShowHelp, nil).
		OnMenuButton(MainMenuID, 1, h.ClearHistory, nil).
		OnMenuButton(MainMenuID, 2, h.ShowPressed, nil).
		OnMenuButton(MainMenuID, 3, h.Quit, events.Text("Menu '{target}' requested exit")).
		OnKey(QuitCombo, h.Quit, events.Text("Quit requested via {target} ({source})")).
		With(map[string]any{"source": "keyboard"}).
		OnKey(HelpKey, events.When(notQuitting, h.ShowHelp), nil).
		OnKey(PressedCombo, events.When(notQuitting, h.ShowPressed), nil)

	if err := builder.Finalize(a.registry, a.keys); err != nil {
		return fmt.Errorf("binding handlers: %w", err)
	}
	a.runLog.Debug(component, "handlers declared", map[string]interface{}{
		"count": len(builder.Intents()),
	})
	if err := a.registry.BindWidget(ExitButtonID, a.exit); err != nil {
		return err
	}
	if err := a.registry.RegisterMenuButtons(MainMenuID, events.Widgets(a.menu.Buttons())); err != nil {
		return err
	}
	return a.window.AddCheck(fyne.KeyEscape, func() {
		if err := h.ClearHistory(); err != nil {
			h.ReportError(err)
		}
	})
}

func (a *Application) requestQuit() {
	a.runLog.Info(component, "quit requested", nil)
	if a.loopExited.Load() {
		return
	}
	fyne.Do(a.fyneApp.Quit)
}

// Start logs the run start, begins key tracking and, when a config path is
// set, watches it for changes. Run calls Start itself.
func (a *Application) Start() error {
	return a.lifecycle.Start(a)
}

// Run starts the application and blocks until the window closes or quit is
// requested, then shuts everything down.
func (a *Application) Run() error {
	if err := a.Start(); err != nil {
		return err
	}
	a.window.ShowAndRun()
	a.loopExited.Store(true)
	a.lifecycle.Shutdown()
	return nil
}

// Shutdown stops the application without waiting for the event loop.
func (a *Application) Shutdown() {
	a.lifecycle.Shutdown()
}

// applyConfig takes the settings that can change while running.
func (a *Application) applyConfig(cfg config.Config) {
	if err := a.keys.SetMaxInterval(cfg.Keyboard.ComboInterval); err != nil {
		a.runLog.Error(component, err, nil)
		return
	}
	a.runLog.Info(component, "combo interval updated", map[string]interface{}{
		"interval": cfg.Keyboard.ComboInterval.String(),
	})
	if cfg.Window.Title != a.window.Title() {
		fyne.Do(func() {
			a.window.SetTitle(cfg.Window.Title)
		})
	}
}

func (a *Application) Keys() *keyboard.Helper {
	return a.keys
}

func (a *Application) Registry() *events.Registry {
	return a.registry
}

func (a *Application) Window() *window.Window {
	return a.window
}

func (a *Application) Handlers() *Handlers {
	return a.handlers
}

func (a *Application) Lifecycle() *Lifecycle {
	return a.lifecycle
}

// LogPath is the run log file of this run.
func (a *Application) LogPath() string {
	return a.runLog.Path()
}
