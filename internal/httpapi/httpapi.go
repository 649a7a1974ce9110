// Package httpapi exposes the Engine façade over HTTP: GET "/" hands out a
// challenge, POST "/" grades an answer, GET "/{id}" redeems a token, plus
// /healthz and /metrics for operational use.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sashko-guz/imhumane/internal/captcha"
	"github.com/sashko-guz/imhumane/internal/engine"
	"github.com/sashko-guz/imhumane/internal/logger"
)

var log = logger.Component("HTTP")

const (
	headerID         = "x-imhumane-id"
	headerTopic      = "x-imhumane-topic"
	headerImageSize  = "x-imhumane-image-size"
	headerGapSize    = "x-imhumane-gap-size"
	headerGridLength = "x-imhumane-grid-length"
)

// gradeRequest is the JSON body of a POST "/" grading submission.
type gradeRequest struct {
	ChallengeID string `json:"challenge_id"`
	Answer      string `json:"answer"`
}

// NewRouter builds the mux.Router exposing e's façade.
func NewRouter(e *engine.Engine) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", getChallenge(e)).Methods(http.MethodGet)
	r.HandleFunc("/", gradeChallenge(e)).Methods(http.MethodPost)
	// Registered before "/{id}": mux matches routes in registration order.
	r.HandleFunc("/healthz", healthz(e)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/{id}", redeemToken(e)).Methods(http.MethodGet)

	return r
}

func getChallenge(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		challenge, ok := e.GetChallenge(r.Context())
		if !ok {
			// Caller-side abandonment: the request context was canceled
			// while waiting on the buffer.
			return
		}

		e.RegisterAnswer(challenge.ID, challenge.Answer)

		w.Header().Set(headerID, challenge.ID)
		w.Header().Set(headerTopic, challenge.Topic)
		w.Header().Set(headerImageSize, strconv.Itoa(challenge.ImageSize))
		w.Header().Set(headerGapSize, strconv.Itoa(challenge.GapSize))
		w.Header().Set(headerGridLength, strconv.Itoa(challenge.GridLength))
		w.Header().Set("Content-Type", "image/jpeg")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(challenge.Image)
	}
}

func gradeChallenge(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gradeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Warnf("malformed grading request from %s: %v", r.RemoteAddr, err)
			http.Error(w, "malformed request body", http.StatusBadRequest)
			return
		}

		if _, err := parseChallengeID(req.ChallengeID); err != nil {
			log.Warnf("malformed challenge_id %q from %s: %v", req.ChallengeID, r.RemoteAddr, err)
			http.Error(w, "malformed challenge_id", http.StatusBadRequest)
			return
		}

		if !e.CheckAnswer(req.ChallengeID, req.Answer) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func redeemToken(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if _, err := parseChallengeID(id); err != nil {
			http.Error(w, "malformed challenge id", http.StatusBadRequest)
			return
		}

		if !e.CheckToken(id) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func healthz(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":       "ok",
			"buffer_empty": e.Empty(),
			"time":         time.Now().Format(time.RFC3339),
		})
	}
}

func parseChallengeID(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", captcha.NewParseUUIDError(err)
	}
	return id, nil
}
