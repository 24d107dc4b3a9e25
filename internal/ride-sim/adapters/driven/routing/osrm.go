package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"ride-sim/internal/mylogger"
	"ride-sim/internal/ride-sim/core/domain/model"
	"ride-sim/internal/ride-sim/core/myerrors"
	"ride-sim/internal/ride-sim/core/ports/driven"
)

const maxErrorBody = 1024

// OSRM talks to an OSRM-compatible /route/v1 endpoint.
type OSRM struct {
	baseURL string
	client  *http.Client
	mylog   mylogger.Logger
}

var _ driven.IRouter = (*OSRM)(nil)

func NewOSRM(baseURL string, client *http.Client, log mylogger.Logger) *OSRM {
	if client == nil {
		client = http.DefaultClient
	}
	return &OSRM{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		mylog:   log.WithGroup("osrm"),
	}
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Type        string      `json:"type"`
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

func (o *OSRM) Route(ctx context.Context, req model.RouteRequest) (model.Route, error) {
	log := o.mylog.Action("route")

	url := fmt.Sprintf("%s/route/v1/driving/%s;%s?overview=full&geometries=geojson",
		o.baseURL, lonLat(req.Origin), lonLat(req.Destination))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.Route{}, fmt.Errorf("build osrm request: %w", err)
	}

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return model.Route{}, fmt.Errorf("osrm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return model.Route{}, fmt.Errorf("osrm status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.Route{}, fmt.Errorf("decode osrm response: %w", err)
	}
	if out.Code != "Ok" || len(out.Routes) == 0 {
		return model.Route{}, fmt.Errorf("%w: code=%s %s", myerrors.ErrNoRoute, out.Code, out.Message)
	}

	best := out.Routes[0]
	path := make(model.Polyline, 0, len(best.Geometry.Coordinates))
	for _, pt := range best.Geometry.Coordinates {
		if len(pt) < 2 {
			continue
		}
		// GeoJSON positions are [lon, lat]
		path = append(path, model.Coordinate{Latitude: pt[1], Longitude: pt[0]})
	}
	if len(path) == 0 {
		return model.Route{}, fmt.Errorf("%w: empty geometry", myerrors.ErrNoRoute)
	}

	log.Debug("route received", "points", len(path), "distance", best.Distance)
	return model.Route{
		Path:            path,
		Center:          path.Center(),
		DistanceMeters:  best.Distance,
		DurationSeconds: best.Duration,
	}, nil
}

func lonLat(c model.Coordinate) string {
	return strconv.FormatFloat(c.Longitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Latitude, 'f', -1, 64)
}
