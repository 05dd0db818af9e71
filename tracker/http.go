package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/jobtrack/connectivity"
	"github.com/hazyhaar/jobtrack/detect"
	"github.com/hazyhaar/jobtrack/dispatch"
	"github.com/hazyhaar/jobtrack/domain"
	"github.com/hazyhaar/jobtrack/horosafe"
	"github.com/hazyhaar/jobtrack/shield"
)

var errUnauthorized = errors.New("unauthorized")

// Handler returns the HTTP API. Messages posted to /api/v1/messages and
// detection passes run from /api/v1/snapshots go through router, which must
// have the tracker's connectivity handlers registered.
func (t *Tracker) Handler(router *connectivity.Router) http.Handler {
	det := detect.NewDetector(t, dispatch.New(router, dispatch.WithLogger(t.logger)),
		detect.WithLogger(t.logger))

	r := chi.NewRouter()
	for _, mw := range shield.DefaultAPIStack(shield.CORSConfig{AllowedOrigins: t.config.API.CORSOrigins}) {
		r.Use(mw)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(bearerAuth(t.config.API.TokenHash))

		r.Post("/api/v1/messages", t.serveMessage(router))

		r.Post("/api/v1/snapshots", func(w http.ResponseWriter, r *http.Request) {
			var p detect.Page
			if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
				writeError(w, http.StatusBadRequest, fmt.Errorf("decode: %w", err))
				return
			}
			writeJSON(w, http.StatusOK, det.Run(r.Context(), p))
		})

		r.Route("/api/v1/applications", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				apps, err := t.List(r.Context(), Filter{Query: q.Get("q"), Status: q.Get("status"), Sort: q.Get("sort")})
				if err != nil {
					writeError(w, statusFor(err), err)
					return
				}
				writeJSON(w, http.StatusOK, apps)
			})
			r.Get("/recent", func(w http.ResponseWriter, r *http.Request) {
				apps, err := t.Recent(r.Context(), queryInt(r, "n", 5))
				if err != nil {
					writeError(w, statusFor(err), err)
					return
				}
				writeJSON(w, http.StatusOK, apps)
			})
			r.Post("/", func(w http.ResponseWriter, r *http.Request) {
				var a domain.Application
				if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
					writeError(w, http.StatusBadRequest, fmt.Errorf("decode: %w", err))
					return
				}
				app, err := t.Add(r.Context(), a)
				if err != nil {
					writeError(w, statusFor(err), err)
					return
				}
				writeJSON(w, http.StatusCreated, app)
			})
			r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("confirm") != "true" {
					writeError(w, http.StatusBadRequest, errors.New("clearing all applications requires confirm=true"))
					return
				}
				if err := t.Clear(r.Context()); err != nil {
					writeError(w, statusFor(err), err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})
			r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
				id, ok := pathID(w, r)
				if !ok {
					return
				}
				app, err := t.Get(r.Context(), id)
				if err != nil {
					writeError(w, statusFor(err), err)
					return
				}
				writeJSON(w, http.StatusOK, app)
			})
			r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
				id, ok := pathID(w, r)
				if !ok {
					return
				}
				var a domain.Application
				if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
					writeError(w, http.StatusBadRequest, fmt.Errorf("decode: %w", err))
					return
				}
				a.ID = id
				app, err := t.Update(r.Context(), a)
				if err != nil {
					writeError(w, statusFor(err), err)
					return
				}
				writeJSON(w, http.StatusOK, app)
			})
			r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
				id, ok := pathID(w, r)
				if !ok {
					return
				}
				if err := t.Delete(r.Context(), id); err != nil {
					writeError(w, statusFor(err), err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})
		})

		r.Route("/api/v1/pending", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				rec, err := t.Pending(r.Context())
				if err != nil {
					writeError(w, statusFor(err), err)
					return
				}
				writeJSON(w, http.StatusOK, rec)
			})
			r.Post("/accept", func(w http.ResponseWriter, r *http.Request) {
				app, err := t.AcceptPending(r.Context())
				if err != nil {
					writeError(w, statusFor(err), err)
					return
				}
				writeJSON(w, http.StatusCreated, app)
			})
			r.Post("/dismiss", func(w http.ResponseWriter, r *http.Request) {
				if err := t.DismissPending(r.Context()); err != nil {
					writeError(w, statusFor(err), err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})
			r.Post("/draft", func(w http.ResponseWriter, r *http.Request) {
				app, err := t.DraftFromPending(r.Context())
				if err != nil {
					writeError(w, statusFor(err), err)
					return
				}
				writeJSON(w, http.StatusOK, app)
			})
		})

		r.Get("/api/v1/settings", func(w http.ResponseWriter, r *http.Request) {
			set, err := t.Settings(r.Context())
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, http.StatusOK, set)
		})
		r.Put("/api/v1/settings", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				domain.Settings
				// CustomJobSitesText is the newline-separated form field;
				// when present it replaces customJobSites.
				CustomJobSitesText *string `json:"customJobSitesText,omitempty"`
			}
			req.Settings = domain.DefaultSettings()
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, fmt.Errorf("decode: %w", err))
				return
			}
			if req.CustomJobSitesText != nil {
				req.Settings.CustomJobSites = domain.SplitSites(*req.CustomJobSitesText)
			}
			set, err := t.SaveSettings(r.Context(), req.Settings)
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, http.StatusOK, set)
		})

		r.Get("/api/v1/follow-ups", func(w http.ResponseWriter, r *http.Request) {
			apps, err := t.FollowUps(r.Context(), t.clock.Now())
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, http.StatusOK, apps)
		})

		r.Get("/api/v1/export", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Content-Disposition", `attachment; filename="`+ExportFilename(t.clock.Now().In(t.loc))+`"`)
			if err := t.Export(r.Context(), w); err != nil {
				shield.GetLogger(r.Context()).Error("export failed", "error", err)
			}
		})
		r.Post("/api/v1/import", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("confirm") != "true" {
				writeError(w, http.StatusBadRequest, errors.New("import replaces all data and requires confirm=true"))
				return
			}
			n, err := t.Import(r.Context(), r.Body)
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]int{"imported": n})
		})
	})

	return r
}

// serveMessage accepts a message envelope and routes it by action, the way
// an in-process sender would.
func (t *Tracker) serveMessage(router *connectivity.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := horosafe.LimitedReadAll(r.Body, shield.DefaultMaxBody)
		if err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		msg, err := dispatch.DecodeMessage(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		resp, err := router.Call(r.Context(), msg.Action, body)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if len(resp) == 0 {
			resp = []byte("null")
		}
		w.Write(resp)
	}
}

func statusFor(err error) int {
	var notFound *connectivity.ErrServiceNotFound
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoPending), errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid id: %w", err))
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
