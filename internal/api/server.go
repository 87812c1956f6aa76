package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/ZilDuck/opensea-trader/internal/log"
	"github.com/ZilDuck/opensea-trader/internal/trade"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"net/http"
)

type Server struct {
	trader trade.Service
}

func NewServer(trader trade.Service) Server {
	return Server{trader}
}

func (s Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestIdMiddleware, metricsMiddleware)

	r.HandleFunc("/", s.handleHomepage).Methods("GET")
	r.HandleFunc("/sell", s.handleSell).Methods("POST")
	r.HandleFunc("/buy", s.handleBuy).Methods("POST")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.NotFoundHandler = notFoundHandler()

	return r
}

func (s Server) handleHomepage(w http.ResponseWriter, r *http.Request) {
	_, _ = fmt.Fprintf(w, "Server is running.")
}

func (s Server) handleSell(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	expirationTime, err := s.trader.Sell(r.Context(), body.listing())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeResult(w, r, expirationTime)
}

func (s Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	txHash, err := s.trader.Buy(r.Context(), body.fulfillment())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeResult(w, r, txHash)
}

// writeError answers unauthorised requests and exhausted sell retries with a
// 200 result body, everything else with a 400 carrying the error text.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var exhausted *trade.RetriesExhaustedError

	switch {
	case errors.Is(err, trade.ErrUnauthorized):
		log.FromContext(r.Context()).Warn("Unauthorised request")
		writeResult(w, r, trade.ErrUnauthorized.Error())
	case errors.As(err, &exhausted):
		writeResult(w, r, exhausted.Error())
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

func writeResult(w http.ResponseWriter, r *http.Request, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(map[string]interface{}{"result": result}); err != nil {
		log.FromContext(r.Context()).With(zap.Error(err)).Error("Failed to write response")
	}
}

func notFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
		_, _ = fmt.Fprintf(w, "Page not found")
	})
}
