package quota

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/studiumlabs/voicebridge/pkg/domain/quota"
	"github.com/studiumlabs/voicebridge/pkg/infra/httpx"
)

const (
	precheckPath = "/v1/quota/precheck"
	settlePath   = "/v1/quota/settle"
)

var ErrFailedQuotaCall = errors.New("quota service call failed")

type precheckRequest struct {
	UserID string `json:"user_id"`
	Cost   int64  `json:"cost"`
}

type precheckResponse struct {
	Allowed bool `json:"allowed"`
}

type settleRequest struct {
	UserID    string `json:"user_id"`
	Cost      int64  `json:"cost"`
	Operation string `json:"operation"`
}

// HTTPGuard enforces quota against a remote quota service.
type HTTPGuard struct {
	client         httpx.Client
	logger         *logrus.Logger
	circuitBreaker httpx.CircuitBreaker
	baseURL        string
	token          string
	bufferPool     sync.Pool
}

func NewHTTPGuard(
	client httpx.Client,
	logger *logrus.Logger,
	circuitBreaker httpx.CircuitBreaker,
	baseURL string,
	token string,
) quota.Guard {
	if client == nil {
		client = &http.Client{}
	}

	return &HTTPGuard{
		client:         client,
		logger:         logger,
		circuitBreaker: circuitBreaker,
		baseURL:        baseURL,
		token:          token,
		bufferPool: sync.Pool{
			New: func() any {
				buf := make([]byte, 4096)
				return &buf
			},
		},
	}
}

func (g *HTTPGuard) Precheck(ctx context.Context, userID string, estimatedCost int64) (bool, error) {
	var allowed bool
	err := g.circuitBreaker.Execute(func() error {
		var execErr error
		allowed, execErr = g.executePrecheck(ctx, userID, estimatedCost)
		return execErr
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			g.logger.WithError(err).Error("quota precheck failed (circuit breaker)")
		}
		return false, err
	}
	return allowed, nil
}

func (g *HTTPGuard) executePrecheck(ctx context.Context, userID string, estimatedCost int64) (bool, error) {
	body, err := json.Marshal(precheckRequest{UserID: userID, Cost: estimatedCost})
	if err != nil {
		return false, fmt.Errorf("failed to marshal precheck request: %w", err)
	}
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		g.baseURL+precheckPath,
		bytes.NewReader(body),
	)
	if err != nil {
		return false, fmt.Errorf("failed to create precheck request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Token", g.token)

	resp, err := g.client.Do(req)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			g.logger.WithError(err).Error("failed to call quota precheck")
		}
		return false, fmt.Errorf("failed to call quota precheck: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.WithField("status_code", resp.StatusCode).Error("quota precheck returned non-200 status")
		return false, fmt.Errorf("%w: status %d", ErrFailedQuotaCall, resp.StatusCode)
	}

	bufPtr, ok := g.bufferPool.Get().(*[]byte)
	if !ok {
		return false, fmt.Errorf("failed to get buffer from pool")
	}
	defer g.bufferPool.Put(bufPtr)
	buf := *bufPtr

	n, err := resp.Body.Read(buf)
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("precheck response read error: %w", err)
	}

	var precheckResp precheckResponse
	if err := json.Unmarshal(buf[:n], &precheckResp); err != nil {
		return false, fmt.Errorf("invalid precheck response: %w", err)
	}

	return precheckResp.Allowed, nil
}

func (g *HTTPGuard) Settle(ctx context.Context, userID string, cost int64, operation string) error {
	err := g.circuitBreaker.Execute(func() error {
		return g.executeSettle(ctx, userID, cost, operation)
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			g.logger.WithError(err).Error("quota settle failed (circuit breaker)")
		}
		return err
	}
	return nil
}

func (g *HTTPGuard) executeSettle(ctx context.Context, userID string, cost int64, operation string) error {
	body, err := json.Marshal(settleRequest{UserID: userID, Cost: cost, Operation: operation})
	if err != nil {
		return fmt.Errorf("failed to marshal settle request: %w", err)
	}
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		g.baseURL+settlePath,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("failed to create settle request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Token", g.token)

	resp, err := g.client.Do(req)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			g.logger.WithError(err).Error("failed to call quota settle")
		}
		return fmt.Errorf("failed to call quota settle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		g.logger.WithField("status_code", resp.StatusCode).Error("quota settle returned non-2xx status")
		return fmt.Errorf("%w: status %d", ErrFailedQuotaCall, resp.StatusCode)
	}

	return nil
}
