package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/navwatch/kit"
)

// Handler returns the chi router:
//
//	GET  /location  current snapshot
//	POST /push      {"path": "/x?y=1", "state": ...} → 204
//	GET  /stats     observer counters
//	GET  /history   recent events (?limit=N), only with WithHistory
//	GET  /healthz   ok
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestContext)
	r.Use(headToGet)
	r.Use(noStore)
	r.Use(maxBody(MaxPushBody))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	r.Get("/location", func(w http.ResponseWriter, r *http.Request) {
		resp, err := s.location(r.Context(), nil)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})

	r.Post("/push", func(w http.ResponseWriter, r *http.Request) {
		var req PushRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
			return
		}
		if _, err := s.push(r.Context(), req); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		resp, err := s.stats(r.Context(), nil)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})

	if s.recent != nil {
		r.Get("/history", func(w http.ResponseWriter, r *http.Request) {
			req := HistoryRequest{}
			if v := r.URL.Query().Get("limit"); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil {
					writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
					return
				}
				req.Limit = n
			}
			resp, err := s.recent(r.Context(), req)
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, http.StatusOK, resp)
		})
	}

	return r
}

// requestContext copies chi's request id into the kit context.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := kit.WithTransport(r.Context(), "http")
		ctx = kit.WithRequestID(ctx, middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusFor maps endpoint errors: rejected input is the caller's fault,
// anything else came from the host.
func statusFor(err error) int {
	if errors.Is(err, ErrInvalidRequest) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
