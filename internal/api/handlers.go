package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/abhisek/drillz/internal/topics"
	"github.com/abhisek/drillz/internal/workout"
)

type selectRequest struct {
	AnswerID string `json:"answerId" validate:"required,max=200,excludesall=0x2C"`
}

type confirmResponse struct {
	workout.View
	Correct bool `json:"correct"`
}

func (s *Server) listTopics(w http.ResponseWriter, r *http.Request) {
	list, err := s.topics.Topics(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if list == nil {
		list = []topics.Topic{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f workout.HistoryFilter
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		f.Limit = n
	}
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, p.name+" must be an RFC 3339 timestamp")
			return
		}
		*p.dst = t
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		writeError(w, http.StatusBadRequest, "to must not be before from")
		return
	}

	records, err := s.svc.History(r.Context(), chi.URLParam(r, "topicID"), f)
	if err != nil {
		s.fail(w, err)
		return
	}
	if records == nil {
		records = []workout.HistoryRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) show(w http.ResponseWriter, r *http.Request) {
	s.withHandle(w, r, func(h *workout.Handle) (any, error) {
		return h.View(), nil
	})
}

func (s *Server) start(w http.ResponseWriter, r *http.Request) {
	s.withHandle(w, r, func(h *workout.Handle) (any, error) {
		if err := h.Start(); err != nil {
			return nil, err
		}
		return h.View(), nil
	})
}

func (s *Server) selectAnswer(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.withHandle(w, r, func(h *workout.Handle) (any, error) {
		if err := h.SelectAnswer(req.AnswerID); err != nil {
			return nil, err
		}
		return h.View(), nil
	})
}

func (s *Server) confirm(w http.ResponseWriter, r *http.Request) {
	s.withHandle(w, r, func(h *workout.Handle) (any, error) {
		correct, err := h.ConfirmAnswer()
		if err != nil {
			return nil, err
		}
		return confirmResponse{View: h.View(), Correct: correct}, nil
	})
}

func (s *Server) finish(w http.ResponseWriter, r *http.Request) {
	s.withHandle(w, r, func(h *workout.Handle) (any, error) {
		if err := h.Finish(); err != nil {
			return nil, err
		}
		return h.View(), nil
	})
}

func (s *Server) restart(w http.ResponseWriter, r *http.Request) {
	s.withHandle(w, r, func(h *workout.Handle) (any, error) {
		if err := h.Restart(); err != nil {
			return nil, err
		}
		return h.View(), nil
	})
}

// withHandle opens the caller's workout, runs fn, and closes the handle
// before responding so the response reflects whether the state was saved.
func (s *Server) withHandle(w http.ResponseWriter, r *http.Request, fn func(h *workout.Handle) (any, error)) {
	h, err := s.svc.Open(r.Context(), chi.URLParam(r, "topicID"))
	if err != nil {
		s.fail(w, err)
		return
	}

	body, cmdErr := fn(h)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.saveTimeout)
	defer cancel()
	if err := h.Close(ctx); err != nil {
		s.logger.Warn("workout not saved", zap.Error(err))
		if v, ok := body.(workout.View); ok {
			v.Unsaved = true
			body = v
		}
		if c, ok := body.(confirmResponse); ok {
			c.Unsaved = true
			body = c
		}
	}

	if cmdErr != nil {
		s.fail(w, cmdErr)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// fail maps engine errors to HTTP statuses.
func (s *Server) fail(w http.ResponseWriter, err error) {
	var (
		ve *workout.ValidationError
		te *workout.TransitionError
	)
	switch {
	case errors.Is(err, workout.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &te), errors.Is(err, workout.ErrNoSelection):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, topics.ErrTopicNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
