package health

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hellofresh/health-go/v5"
	healthPostgres "github.com/hellofresh/health-go/v5/checks/postgres"
	healthRedis "github.com/hellofresh/health-go/v5/checks/redis"

	"github.com/petshop-plataforma/sales-service/internal/config"
	"github.com/petshop-plataforma/sales-service/internal/utils/response"
)

func New(cfg *config.Config) (*health.Health, error) {

	h, err := health.New(
		health.WithComponent(health.Component{
			Name:    cfg.Registry.AppName,
			Version: "1.0.0",
		}),
		health.WithSystemInfo(),
		health.WithChecks(
			health.Config{
				Name:      "database",
				Timeout:   3 * time.Second,
				SkipOnErr: false,
				Check: healthPostgres.New(healthPostgres.Config{
					DSN: cfg.Database.GetDSN(),
				}),
			},
			health.Config{
				Name:      "redis",
				Timeout:   2 * time.Second,
				SkipOnErr: true,
				Check: healthRedis.New(healthRedis.Config{
					DSN: cfg.RedisConnect.GetDSN(),
				}),
			},
		),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create health instance: %w", err)
	}

	return h, nil
}

// Handler answers the liveness probe with the UP/DOWN wire format the
// directory service expects, backed by the registered checks.
func Handler(h *health.Health) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		check := h.Measure(r.Context())

		if check.Status == health.StatusUnavailable {
			response.WriteJson(w, http.StatusServiceUnavailable, map[string]string{"status": "DOWN"})
			return
		}

		response.WriteJson(w, http.StatusOK, map[string]string{"status": "UP"})
	}
}
