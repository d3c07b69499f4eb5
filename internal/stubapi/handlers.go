package stubapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/leapstack-labs/xenocrm/internal/stubapi/store"
	"github.com/leapstack-labs/xenocrm/pkg/rules"
)

// customerPayload is the public customer shape.
type customerPayload struct {
	ID       string          `json:"customerId"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Metadata customerMetrics `json:"metadata"`
}

type customerMetrics struct {
	TotalSpend float64 `json:"total_spend"`
	VisitCount int     `json:"visit_count"`
}

type createCampaignRequest struct {
	Name  string       `json:"name"`
	Rules *rules.Group `json:"rules"`
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if !s.loggedIn(r) {
		_, _ = fmt.Fprintf(w, "xenocrm stub API\n\nNot logged in. Visit /auth/google to log in.\n")
		return
	}
	_, _ = fmt.Fprintf(w, "xenocrm stub API\n\nLogged in as %s.\n", s.demoUser)
	if ck, err := r.Cookie(s.cookieName); err == nil {
		_, _ = fmt.Fprintf(w, "\nTo use this session from the CLI:\n\n  export XENOCRM_SESSION_COOKIE='%s'\n", ck.Value)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIsLoggedIn(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]bool{"success": s.loggedIn(r)})
}

func (s *Server) handleCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := s.store.ListCustomers(r.Context())
	if err != nil {
		internalError(w, s.logger, err)
		return
	}
	out := make([]customerPayload, 0, len(customers))
	for _, c := range customers {
		out = append(out, customerPayload{
			ID:    c.ID,
			Name:  c.Name,
			Email: c.Email,
			Metadata: customerMetrics{
				TotalSpend: c.TotalSpend,
				VisitCount: c.VisitCount,
			},
		})
	}
	writeJSON(w, s.logger, http.StatusOK, map[string]any{"customers": out})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var tree rules.Group
	if !decode(w, r, s.logger, &tree) {
		return
	}
	if err := rules.Validate(tree); err != nil {
		writeJSON(w, s.logger, http.StatusBadRequest, errorResponse{Error: "invalid rules", Details: splitErrors(err)})
		return
	}

	n, err := s.count(r, tree)
	if err != nil {
		internalError(w, s.logger, err)
		return
	}
	s.logger.Debug("audience previewed", "rules", rules.Format(tree), "count", n)
	writeJSON(w, s.logger, http.StatusOK, map[string]int{"count": n})
}

func (s *Server) handleTextToRules(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if !decode(w, r, s.logger, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, s.logger, http.StatusBadRequest, "prompt is required")
		return
	}

	tree, err := TextToRules(req.Prompt)
	if errors.Is(err, ErrNoRules) {
		writeError(w, s.logger, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		internalError(w, s.logger, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, tree)
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if !decode(w, r, s.logger, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, s.logger, http.StatusBadRequest, "name is required")
		return
	}
	if req.Rules == nil {
		writeError(w, s.logger, http.StatusBadRequest, "rules are required")
		return
	}
	if err := rules.Validate(*req.Rules); err != nil {
		writeJSON(w, s.logger, http.StatusBadRequest, errorResponse{Error: "invalid rules", Details: splitErrors(err)})
		return
	}

	n, err := s.count(r, *req.Rules)
	if err != nil {
		internalError(w, s.logger, err)
		return
	}

	c := store.Campaign{
		ID:           uuid.NewString(),
		Name:         name,
		Rules:        *req.Rules,
		AudienceSize: n,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.CreateCampaign(r.Context(), c); err != nil {
		internalError(w, s.logger, err)
		return
	}
	s.logger.Info("campaign created", "id", c.ID, "name", c.Name, "audience_size", n)
	writeJSON(w, s.logger, http.StatusCreated, c)
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := s.store.ListCampaigns(r.Context())
	if err != nil {
		internalError(w, s.logger, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, map[string]any{"campaigns": campaigns})
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetCampaign(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, s.logger, http.StatusNotFound, "campaign not found")
		return
	}
	if err != nil {
		internalError(w, s.logger, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, c)
}

// count returns how many stored customers match tree.
func (s *Server) count(r *http.Request, tree rules.Group) (int, error) {
	customers, err := s.store.ListCustomers(r.Context())
	if err != nil {
		return 0, err
	}
	n := 0
	for _, c := range customers {
		if rules.Match(tree, c.Record()) {
			n++
		}
	}
	return n, nil
}

// splitErrors flattens an errors.Join result into messages.
func splitErrors(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		out := make([]string, 0, len(joined.Unwrap()))
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}
