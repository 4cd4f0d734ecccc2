package server

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/studiumlabs/voicebridge/pkg/config"
	handlers "github.com/studiumlabs/voicebridge/pkg/handlers/http"
	wsHandlers "github.com/studiumlabs/voicebridge/pkg/handlers/websocket"
	"github.com/studiumlabs/voicebridge/pkg/infra/metrics"
	"github.com/studiumlabs/voicebridge/pkg/middleware"
	"github.com/studiumlabs/voicebridge/pkg/server/router"
)

type (
	VoiceServerDI struct {
		Config              *config.Config
		Logger              *logrus.Logger
		MiddlewareTransport middleware.Transport
		HandlerTransport    handlers.HandlerTransport
		WSHandlerTransport  wsHandlers.HandlerTransport
	}
	VoiceServer struct {
		*BaseServer
	}
)

func NewVoiceServer(di VoiceServerDI) *VoiceServer {
	metrics.Initialize(metrics.MetricsConfig{
		Enabled: di.Config.Metrics.Enabled,
	})

	s := &VoiceServer{
		BaseServer: NewBaseServer(di.Config, di.Logger),
	}

	s.BaseServer.WithRouters(router.NewVoiceRouter(
		&di.MiddlewareTransport,
		di.HandlerTransport,
		di.WSHandlerTransport,
		di.Config,
	))
	s.BaseServer.setupHealthCheck()
	s.BaseServer.setupMetricsEndpoint()
	return s
}

func (s *VoiceServer) Run() error {
	addr := fmt.Sprintf(":%d", s.Config.Server.Port)
	s.Logger.WithField("addr", addr).Info("Starting voice server")
	return s.Router.Listen(addr)
}

func (s *VoiceServer) Shutdown() error {
	return s.Router.Shutdown()
}
