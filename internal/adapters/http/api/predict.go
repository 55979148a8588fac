package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/disasterscope/internal/domain/geo"
	"github.com/okian/disasterscope/pkg/logger"
	"github.com/okian/disasterscope/pkg/metrics"
)

const maxBodyBytes = 1 << 20

var (
	errMissing = errors.New(msgMissingCoordinates)
	errFormat  = errors.New(msgInvalidFormat)
)

// PredictHandler handles /predict requests.
type PredictHandler struct {
	deps Dependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps Dependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// HandlePredict accepts coordinates as GET query parameters or a POST JSON
// body. Invalid input is a 400; a model failure is a 500.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	var (
		lat, lng float64
		err      error
	)
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodGet:
		lat, lng, err = queryCoordinates(r.URL.Query())
	case http.MethodPost:
		lat, lng, err = bodyCoordinates(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !geo.ValidLatitude(lat) {
		writeError(w, http.StatusBadRequest, msgLatitudeRange)
		return
	}
	if !geo.ValidLongitude(lng) {
		writeError(w, http.StatusBadRequest, msgLongitudeRange)
		return
	}

	res, err := h.deps.Predict(r.Context(), lat, lng)
	if err != nil {
		logger.Get().Error(r.Context(), "prediction failed",
			logger.String("request_id", RequestIDFrom(r.Context())),
			logger.Float64("lat", lat),
			logger.Float64("lng", lng),
			logger.Error(err),
		)
		metrics.RecordErrorByComponent("api", "prediction_error")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// queryCoordinates reads lat/lng, falling back to latitude/longitude.
func queryCoordinates(q url.Values) (float64, float64, error) {
	latRaw, okLat := firstQuery(q, "lat", "latitude")
	lngRaw, okLng := firstQuery(q, "lng", "longitude")
	if !okLat || !okLng {
		return 0, 0, errMissing
	}
	lat, err := parseNumber(latRaw)
	if err != nil {
		return 0, 0, err
	}
	lng, err := parseNumber(lngRaw)
	if err != nil {
		return 0, 0, err
	}
	return lat, lng, nil
}

func firstQuery(q url.Values, keys ...string) (string, bool) {
	for _, k := range keys {
		if q.Has(k) {
			return q.Get(k), true
		}
	}
	return "", false
}

// bodyCoordinates reads latitude/longitude, falling back to lat/lng. Values
// may be JSON numbers or numeric strings. An unreadable body counts as empty.
func bodyCoordinates(w http.ResponseWriter, r *http.Request) (float64, float64, error) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		body = nil
	}
	latRaw, okLat := firstField(body, "latitude", "lat")
	lngRaw, okLng := firstField(body, "longitude", "lng")
	if !okLat || !okLng {
		return 0, 0, errMissing
	}
	lat, err := jsonNumber(latRaw)
	if err != nil {
		return 0, 0, err
	}
	lng, err := jsonNumber(lngRaw)
	if err != nil {
		return 0, 0, err
	}
	return lat, lng, nil
}

// firstField treats an explicit null like an absent key.
func firstField(body map[string]json.RawMessage, keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		v, ok := body[k]
		if ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return v, true
		}
	}
	return nil, false
}

func jsonNumber(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parseNumber(s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, errFormat
	}
	return f, nil
}

func parseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errFormat
	}
	return f, nil
}
