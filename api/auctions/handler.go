// Package auctions exposes the auction service over HTTP.
package auctions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/trackauction/app"
	"github.com/kilianp07/trackauction/core/auction"
	"github.com/kilianp07/trackauction/core/auction/ledger"
	"github.com/kilianp07/trackauction/core/model"
	"github.com/kilianp07/trackauction/pkg/export"
)

// maxBodyBytes bounds the size of a submitted bid batch.
const maxBodyBytes = 8 << 20

// Auctioneer runs one auction over a batch of bids.
type Auctioneer interface {
	Auction(ctx context.Context, bids []model.Bid) (*app.Outcome, error)
}

// HistoryFunc lists ledger records matching a query.
type HistoryFunc func(ctx context.Context, q ledger.Query) ([]ledger.Record, error)

// ResolveRequest is the body of POST /api/auctions.
type ResolveRequest struct {
	Bids []model.Bid `json:"bids"`
}

func authorized(w http.ResponseWriter, r *http.Request, token string) bool {
	if token == "" || r.Header.Get("Authorization") == "Bearer "+token {
		return true
	}
	http.Error(w, "unauthorized", http.StatusUnauthorized)
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// NewHistoryHandler returns an HTTP handler exposing ledger records via
// GET /api/auctions. Requests must include an Authorization header with
// "Bearer <token>" when token is non-empty.
func NewHistoryHandler(history HistoryFunc, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !authorized(w, r, token) {
			return
		}
		q := ledger.Query{}
		if s := r.URL.Query().Get("start"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.Start = t
			}
		}
		if s := r.URL.Query().Get("end"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.End = t
			}
		}
		q.Company = r.URL.Query().Get("company")
		q.ExactOnly = r.URL.Query().Get("exact") == "true"
		records, err := history(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []ledger.Record{}
		}
		writeJSON(w, http.StatusOK, records)
	})
}

// NewResolveHandler returns an HTTP handler running an auction for the bids
// posted to /api/auctions and answering with its summary.
func NewResolveHandler(svc Auctioneer, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !authorized(w, r, token) {
			return
		}
		var req ResolveRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
			return
		}
		out, err := svc.Auction(r.Context(), req.Bids)
		switch {
		case errors.Is(err, auction.ErrInvalidBid):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, export.NewSummary(out.ID, out.Strategy, out.Bids, out.Result))
	})
}

// NewMux routes /api/auctions and /metrics.
func NewMux(svc Auctioneer, history HistoryFunc, token string) *http.ServeMux {
	list := NewHistoryHandler(history, token)
	resolve := NewResolveHandler(svc, token)
	mux := http.NewServeMux()
	mux.Handle("/api/auctions", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			resolve.ServeHTTP(w, r)
			return
		}
		list.ServeHTTP(w, r)
	}))
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
