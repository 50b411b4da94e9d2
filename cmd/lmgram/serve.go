package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/lmgram/lmgram/internal/chat"
	"github.com/lmgram/lmgram/internal/config"
	"github.com/lmgram/lmgram/internal/db"
	"github.com/lmgram/lmgram/internal/logger"
	"github.com/lmgram/lmgram/internal/queue"
	"github.com/lmgram/lmgram/internal/store"
	"github.com/lmgram/lmgram/internal/telegram"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBConn,
			provideStore,
			provideChatClient,
			queue.NewRegistry,
			provideBotAPI,
			provideSender,
			provideWorker,
			provideDispatcher,
			provideBot,
		),
		fx.Invoke(startBot),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = config.DefaultConfigPath
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*sql.DB, error) {
	conn, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := db.InitSchema(conn); err != nil {
		return nil, fmt.Errorf("db schema: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { return conn.Close() }})
	return conn, nil
}

func provideStore(log *slog.Logger, conn *sql.DB, cfg config.Config) *store.Service {
	return store.NewService(log, conn, cfg.Backend.Model)
}

func provideChatClient(log *slog.Logger, cfg config.Config) *chat.Client {
	return chat.NewClient(log, chat.Options{
		BaseURL:       cfg.Backend.BaseURL,
		Timeout:       time.Duration(cfg.Backend.TimeoutSeconds) * time.Second,
		VisionTimeout: time.Duration(cfg.Backend.VisionTimeoutSecs) * time.Second,
		Params: chat.Params{
			MaxTokens:   cfg.Backend.MaxTokens,
			Temperature: cfg.Backend.Temperature,
			TopP:        cfg.Backend.TopP,
		},
		VisionMaxTokens: cfg.Backend.VisionMaxTokens,
	})
}

func provideBotAPI(cfg config.Config) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram connect: %w", err)
	}
	return api, nil
}

func provideSender(log *slog.Logger, api *tgbotapi.BotAPI) *telegram.Sender {
	return telegram.NewSender(log, api)
}

func provideWorker(log *slog.Logger, registry *queue.Registry, st *store.Service, client *chat.Client, sender *telegram.Sender, cfg config.Config) *queue.Worker {
	return queue.NewWorker(log, registry, st, client, sender, cfg.History.MaxChars)
}

func provideDispatcher(log *slog.Logger, registry *queue.Registry, worker *queue.Worker, sender *telegram.Sender) *queue.Dispatcher {
	return queue.NewDispatcher(log, registry, worker, sender)
}

func provideBot(log *slog.Logger, api *tgbotapi.BotAPI, sender *telegram.Sender, dispatcher *queue.Dispatcher, st *store.Service) *telegram.Bot {
	return telegram.NewBot(log, api, sender, dispatcher, st)
}

func startBot(lc fx.Lifecycle, log *slog.Logger, bot *telegram.Bot) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("starting lmgram")
			return bot.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return bot.Stop(ctx)
		},
	})
}
