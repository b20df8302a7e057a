package registry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/petshop-plataforma/sales-service/internal/config"
)

// Client announces this instance to the service directory and keeps the
// registration alive with heartbeats.
type Client struct {
	http *resty.Client
	cfg  *config.Registry
}

type registration struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	HealthURL     string `json:"healthUrl"`
	StatusPageURL string `json:"statusPageUrl"`
}

func New(cfg *config.Registry) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(cfg.URL).
			SetTimeout(5 * time.Second).
			SetRetryCount(3),
		cfg: cfg,
	}
}

// Enabled reports whether a directory service is configured at all.
func (c *Client) Enabled() bool {
	return c.cfg.URL != ""
}

func (c *Client) Register(ctx context.Context) error {

	reg := registration{
		Name:          c.cfg.AppName,
		Address:       c.cfg.InstanceAddr,
		HealthURL:     fmt.Sprintf("http://%s/health", c.cfg.InstanceAddr),
		StatusPageURL: fmt.Sprintf("http://%s/health", c.cfg.InstanceAddr),
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(reg).
		Post("/apps")
	if err != nil {
		return fmt.Errorf("failed to register with directory service: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("directory service rejected registration: %s", resp.Status())
	}

	return nil
}

func (c *Client) Deregister(ctx context.Context) error {

	resp, err := c.http.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/apps/%s/%s", c.cfg.AppName, c.cfg.InstanceAddr))
	if err != nil {
		return fmt.Errorf("failed to deregister from directory service: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("directory service rejected deregistration: %s", resp.Status())
	}

	return nil
}

// StartHeartbeat renews the registration until ctx is cancelled.
func (c *Client) StartHeartbeat(ctx context.Context) {

	ticker := time.NewTicker(c.cfg.HeartbeatRate)

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.heartbeat(ctx); err != nil {
					slog.Warn("Directory service heartbeat failed", slog.String("error", err.Error()))
				}
			}
		}
	}()
}

func (c *Client) heartbeat(ctx context.Context) error {

	resp, err := c.http.R().
		SetContext(ctx).
		Put(fmt.Sprintf("/apps/%s/%s/heartbeat", c.cfg.AppName, c.cfg.InstanceAddr))
	if err != nil {
		return err
	}

	if resp.IsError() {
		return fmt.Errorf("heartbeat rejected: %s", resp.Status())
	}

	return nil
}
