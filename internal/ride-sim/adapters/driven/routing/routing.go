package routing

import (
	"fmt"
	"net/http"

	"ride-sim/internal/config"
	"ride-sim/internal/mylogger"
	"ride-sim/internal/ride-sim/core/ports/driven"
)

const (
	KindOSRM     = "osrm"
	KindStraight = "straight"
)

// New builds the router selected by cfg.Kind.
func New(cfg *config.Routerconfig, log mylogger.Logger) (driven.IRouter, error) {
	switch cfg.Kind {
	case KindOSRM, "":
		return NewOSRM(cfg.URL, &http.Client{Timeout: cfg.Timeout}, log), nil
	case KindStraight:
		return NewStraight(cfg.Points), nil
	default:
		return nil, fmt.Errorf("unknown router kind %q", cfg.Kind)
	}
}
