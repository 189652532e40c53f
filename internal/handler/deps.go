package handler

import (
	"net/http"

	"voicesvc/internal/app/presence"
	"voicesvc/internal/configs"
	"voicesvc/internal/pkg/auth/livekit"
	"voicesvc/internal/pkg/auth/matrix"
	"voicesvc/internal/telemetry"
)

type AppDeps struct {
	Config   *configs.AppConfig
	Registry *presence.Registry
	Hub      *presence.Hub
	Verifier matrix.Verifier
	Minter   *livekit.Minter
	Metrics  *telemetry.Metrics

	// MetricsHandler serves /metrics. Nil disables the endpoint.
	MetricsHandler http.Handler
}
