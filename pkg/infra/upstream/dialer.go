package upstream

import (
	"context"
	"fmt"
	"net/url"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/studiumlabs/voicebridge/pkg/config"
	"github.com/studiumlabs/voicebridge/pkg/domain"
)

//go:generate mockery --name=Dialer --dir=. --output=mocks/ --filename=dialer_mock.go --case=underscore --with-expecter
type Dialer interface {
	Dial(ctx context.Context) (*gorilla.Conn, error)
}

type liveDialer struct {
	cfg    config.UpstreamConfig
	logger *logrus.Logger
}

func NewDialer(cfg config.UpstreamConfig, logger *logrus.Logger) Dialer {
	return &liveDialer{
		cfg:    cfg,
		logger: logger,
	}
}

func (d *liveDialer) Dial(ctx context.Context) (*gorilla.Conn, error) {
	if d.cfg.APIKey == "" {
		return nil, domain.NewUpstreamUnavailableError("api key is not configured", nil)
	}

	target, err := url.Parse(d.cfg.URL)
	if err != nil {
		return nil, domain.NewUpstreamUnavailableError("invalid upstream url", err)
	}
	switch target.Scheme {
	case "https":
		target.Scheme = "wss"
	case "http":
		target.Scheme = "ws"
	}

	query := target.Query()
	query.Set("key", d.cfg.APIKey)
	target.RawQuery = query.Encode()

	dialer := gorilla.Dialer{HandshakeTimeout: d.cfg.HandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, target.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, domain.NewUpstreamUnavailableError(
				fmt.Sprintf("websocket dial failed (HTTP %d)", resp.StatusCode), err)
		}
		return nil, domain.NewUpstreamUnavailableError("websocket dial failed", err)
	}

	d.logger.WithField("host", target.Host).Debug("upstream connection established")

	return conn, nil
}

// RefreshDeadline arms the read deadline and pong handler on a freshly dialed
// connection. Pongs push the deadline forward.
func RefreshDeadline(conn *gorilla.Conn, pongWait time.Duration) error {
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	return conn.SetReadDeadline(time.Now().Add(pongWait))
}
