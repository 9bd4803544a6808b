package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/store/memory"
	"fintrack/internal/storage"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	return Config{
		Type:         backendType,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		DatabaseURL:  appConfig.DatabaseURL,
		SeedFile:     appConfig.SeedFile,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	var (
		store Backend
		err   error
	)
	switch config.Type {
	case MemoryBackend:
		store, err = memory.NewFromFile(config.SeedFile)
	case SQLiteBackend:
		store, err = storage.NewSQLiteRepository(config.SQLiteDBPath)
	case PostgresBackend:
		store, err = storage.NewPostgresRepository(config.DatabaseURL)
	default:
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("initialize %s backend: %w", config.Type, err)
	}

	result := &BackendResult{Backend: store}
	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", "error", err)
			amqpClient = nil
		} else {
			result.Publisher = amqpClient
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	result.Cleanup = func() error {
		var errs *multierror.Error
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("close amqp client: %w", err))
			}
		}
		if err := store.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("close store: %w", err))
		}
		return errs.ErrorOrNil()
	}

	f.logger.InfoContext(ctx, "Initialized backend",
		"type", config.Type,
		"events_enabled", result.Publisher != nil)
	return result, nil
}
