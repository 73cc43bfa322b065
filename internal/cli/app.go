package cli

import (
	"io"

	"shopping-assistant/internal/common/auth"
	"shopping-assistant/internal/common/backend"
	"shopping-assistant/internal/common/config"
	"shopping-assistant/internal/common/errors"
	httpclient "shopping-assistant/internal/common/http"
	"shopping-assistant/internal/common/logger"
	historygrouper "shopping-assistant/internal/features/chat/history-grouper"
	"shopping-assistant/internal/output"
	"shopping-assistant/internal/session"
)

// App wires the clients and state managers one command invocation uses.
type App struct {
	Config   *config.Config
	Logger   logger.Logger
	Errors   *errors.ErrorHandler
	Printer  *output.Printer
	Auth     *auth.Client
	Backend  *backend.Client
	Sessions *session.Manager
}

// NewApp builds the application from cfg, writing to out and errOut.
func NewApp(cfg *config.Config, out, errOut io.Writer, colors output.ColorMode) (*App, error) {
	log := logger.NewStructured(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	groupCfg, err := historygrouper.LoadConfig(cfg.Chat)
	if err != nil {
		return nil, errors.NewInvalidInputError("chat.location", err.Error())
	}

	transport := httpclient.NewClient(httpclient.Options{
		BaseURL:   cfg.Backend.BaseURL,
		Timeout:   config.GetDuration(cfg.Backend.Timeout),
		UserAgent: cfg.Backend.UserAgent,
	}, log)

	authClient := auth.NewClient(transport, log)
	backendClient := backend.NewClient(transport, log)
	sessions := session.NewManager(session.NewStore(cfg), authClient, session.Dependencies{
		Chats:   backendClient,
		Carts:   backendClient,
		Grouper: historygrouper.NewGrouper(groupCfg, log),
	}, log)

	return &App{
		Config:   cfg,
		Logger:   log,
		Errors:   errors.NewErrorHandler(log),
		Printer:  output.NewPrinterWithWriters(out, errOut, output.ResolveColors(colors, cfg.Output.Colors)),
		Auth:     authClient,
		Backend:  backendClient,
		Sessions: sessions,
	}, nil
}
