package dependency_container

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	appConversation "github.com/studiumlabs/voicebridge/pkg/app/conversation"
	"github.com/studiumlabs/voicebridge/pkg/config"
	domainQuota "github.com/studiumlabs/voicebridge/pkg/domain/quota"
	"github.com/studiumlabs/voicebridge/pkg/domain/studynote"
	domainTelemetry "github.com/studiumlabs/voicebridge/pkg/domain/telemetry"
	handlers "github.com/studiumlabs/voicebridge/pkg/handlers/http"
	wsHandlers "github.com/studiumlabs/voicebridge/pkg/handlers/websocket"
	"github.com/studiumlabs/voicebridge/pkg/infra/auth/jwt"
	"github.com/studiumlabs/voicebridge/pkg/infra/cache"
	infraComposer "github.com/studiumlabs/voicebridge/pkg/infra/composer"
	"github.com/studiumlabs/voicebridge/pkg/infra/httpx"
	providersFactory "github.com/studiumlabs/voicebridge/pkg/infra/providers/factory"
	infraQuota "github.com/studiumlabs/voicebridge/pkg/infra/quota"
	"github.com/studiumlabs/voicebridge/pkg/infra/registry"
	infraTelemetry "github.com/studiumlabs/voicebridge/pkg/infra/telemetry"
	"github.com/studiumlabs/voicebridge/pkg/infra/telemetry/kafka"
	"github.com/studiumlabs/voicebridge/pkg/infra/upstream"
	"github.com/studiumlabs/voicebridge/pkg/middleware"
)

type Container struct {
	Cache               cache.Client
	SessionRegistry     *registry.MemoryRegistry
	QuotaGuard          domainQuota.Guard
	SessionExporter     domainTelemetry.Exporter
	NoteComposer        studynote.Composer
	JWTManager          jwt.Manager
	HandlerTransport    handlers.HandlerTransport
	WSHandlerTransport  wsHandlers.HandlerTransport
	MiddlewareTransport middleware.Transport
}

type ContainerDI struct {
	Cfg    *config.Config
	Logger *logrus.Logger
}

func NewContainer(di ContainerDI) (*Container, error) {
	httpClient := httpx.NewFastHTTPClient()

	// Redis backs only the redis quota adapter; nothing else in the voice
	// path touches it.
	var cacheInstance cache.Client
	if strings.EqualFold(di.Cfg.Quota.Provider, infraQuota.ProviderRedis) {
		var err error
		cacheInstance, err = cache.NewClient(cache.Config{
			Host:     di.Cfg.Redis.Host,
			Port:     di.Cfg.Redis.Port,
			Password: di.Cfg.Redis.Password,
			DB:       di.Cfg.Redis.DB,
			TLS:      di.Cfg.Redis.TLS,
		}, di.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize cache: %v", err)
		}
	}

	sessionRegistry := registry.NewMemoryRegistry(
		di.Cfg.Session.IdleTTL,
		di.Cfg.Session.SweepInterval,
		di.Logger,
	)

	var redisClient *redis.Client
	if cacheInstance != nil {
		redisClient = cacheInstance.RedisClient()
	}

	quotaGuard, err := infraQuota.NewGuard(di.Cfg.Quota, httpClient, redisClient, di.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize quota guard: %w", err)
	}

	exporterLocator := infraTelemetry.NewExporterLocator(
		infraTelemetry.WithExporter(kafka.ExporterName, kafka.NewKafkaExporter()),
		infraTelemetry.WithExporter(infraTelemetry.NoopExporterName, infraTelemetry.NewNoopExporter()),
	)

	var sessionExporter domainTelemetry.Exporter = infraTelemetry.NewNoopExporter()
	if di.Cfg.Events.Enabled {
		sessionExporter, err = exporterLocator.GetExporter(di.Cfg.Events.Exporter, di.Cfg.Events.Settings)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize session event exporter: %w", err)
		}
	}

	var noteComposer studynote.Composer
	if di.Cfg.Composer.Enabled {
		notesBreaker := httpx.NewCircuitBreaker("notes-service", 30*time.Second, 5, 1)
		notesClient := infraComposer.NewHTTPNotesClient(
			httpClient,
			di.Logger,
			notesBreaker,
			di.Cfg.Composer.NotesBaseURL,
			di.Cfg.Composer.NotesToken,
		)
		noteComposer = infraComposer.NewNoteComposer(
			notesClient,
			providersFactory.NewProviderLocator(),
			di.Cfg.Composer,
			di.Logger,
		)
	}

	upstreamDialer := upstream.NewDialer(di.Cfg.Upstream, di.Logger)

	completionDispatcher := wsHandlers.NewCompletionDispatcher(
		quotaGuard,
		sessionExporter,
		noteComposer,
		di.Cfg.Quota,
		di.Logger,
	)

	// app services
	starter := appConversation.NewStarter(di.Logger, sessionRegistry)
	stopper := appConversation.NewStopper(di.Logger, sessionRegistry)
	statusFinder := appConversation.NewStatusFinder(di.Logger, sessionRegistry)
	lister := appConversation.NewLister(di.Logger, sessionRegistry)

	jwtManager := jwt.NewJwtManager(di.Cfg.Auth)

	wsHandlerTransport := &wsHandlers.HandlerTransportDTO{
		VoiceHandler: wsHandlers.NewVoiceHandler(
			di.Cfg,
			di.Logger,
			sessionRegistry,
			quotaGuard,
			upstreamDialer,
			completionDispatcher,
		),
	}

	handlerTransport := handlers.HandlerTransport{
		// Conversation
		StartConversationHandler:  handlers.NewStartConversationHandler(di.Logger, starter),
		StopConversationHandler:   handlers.NewStopConversationHandler(di.Logger, stopper),
		ConversationStatusHandler: handlers.NewConversationStatusHandler(di.Logger, statusFinder),
		ListConversationsHandler:  handlers.NewListConversationsHandler(di.Logger, lister),

		// Version
		GetVersionHandler: handlers.NewGetVersionHandler(di.Logger),
	}

	middlewareTransport := middleware.Transport{
		AuthMiddleware:         middleware.NewAuthMiddleware(di.Logger, jwtManager),
		WebsocketMiddleware:    middleware.NewWebsocketMiddleware(di.Cfg, di.Logger, jwtManager),
		PanicRecoverMiddleware: middleware.NewPanicRecoverMiddleware(di.Logger),
	}

	container := &Container{
		Cache:               cacheInstance,
		SessionRegistry:     sessionRegistry,
		QuotaGuard:          quotaGuard,
		SessionExporter:     sessionExporter,
		NoteComposer:        noteComposer,
		JWTManager:          jwtManager,
		HandlerTransport:    handlerTransport,
		WSHandlerTransport:  wsHandlerTransport,
		MiddlewareTransport: middlewareTransport,
	}

	return container, nil
}
