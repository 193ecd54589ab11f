package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/splitlyhq/splitly/internal/calculator"
	"github.com/splitlyhq/splitly/internal/metrics"
	"github.com/splitlyhq/splitly/internal/middleware"
	"github.com/splitlyhq/splitly/internal/models"
	"github.com/splitlyhq/splitly/internal/money"
	"github.com/splitlyhq/splitly/internal/storage"
)

// SessionService exposes splitting sessions: CRUD, recorded payments,
// and the computed shares, balances and transfers derived from them.
type SessionService struct {
	store   storage.Store
	metrics *metrics.Metrics
}

// NewSessionService creates a new SessionService with the given storage
// backend.
func NewSessionService(store storage.Store, m *metrics.Metrics) *SessionService {
	return &SessionService{store: store, metrics: m}
}

// Routes mounts the session endpoints.
func (s *SessionService) Routes(r chi.Router) {
	r.Post("/", s.create)
	r.Get("/{sessionID}", s.get)
	r.Put("/{sessionID}", s.update)
	r.Delete("/{sessionID}", s.delete)
	r.Post("/{sessionID}/payments", s.addPayment)
	r.Get("/{sessionID}/shares", s.shares)
	r.Get("/{sessionID}/balances", s.balances)
	r.Get("/{sessionID}/transfers", s.transfers)
}

// isParticipant checks if the user is in the participants list.
func isParticipant(userID string, participants []string) bool {
	for _, p := range participants {
		if p == userID {
			return true
		}
	}
	return false
}

// findNewParticipants returns participants that are not already in
// existingMembers.
func findNewParticipants(participants, existingMembers []string) []string {
	memberSet := make(map[string]bool, len(existingMembers))
	for _, m := range existingMembers {
		memberSet[m] = true
	}
	var newOnes []string
	for _, p := range participants {
		if !memberSet[p] {
			newOnes = append(newOnes, p)
		}
	}
	return newOnes
}

// autoAddParticipantsToGroup adds any session participants not already
// in the owning group.
func (s *SessionService) autoAddParticipantsToGroup(ctx context.Context, groupID string, participants []string) {
	if groupID == "" {
		return
	}
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		slog.Warn("autoAddParticipantsToGroup: failed to get group", "group_id", groupID, "error", err)
		return
	}

	newMembers := findNewParticipants(participants, group.Members)
	if len(newMembers) == 0 {
		return
	}

	if err := s.store.AddGroupMembers(ctx, groupID, newMembers); err != nil {
		slog.Error("autoAddParticipantsToGroup: failed to add members", "group_id", groupID, "error", err)
		return
	}
	slog.Info("auto-added participants to group", "group_id", groupID, "new_members", newMembers)
}

type createSessionRequest struct {
	Title        string        `json:"title,omitempty"`
	GroupID      string        `json:"group_id,omitempty"`
	Participants []string      `json:"participants"`
	Items        []itemRequest `json:"items"`
}

func (r createSessionRequest) toModel() (*models.Session, error) {
	session := &models.Session{
		Title:        r.Title,
		GroupID:      r.GroupID,
		Participants: r.Participants,
	}
	for _, item := range r.Items {
		m, err := item.toModel()
		if err != nil {
			return nil, err
		}
		session.Items = append(session.Items, m)
	}
	return session, nil
}

// validateSession checks the parts of a session the engine cannot:
// session-level participant consistency.
func validateSession(session *models.Session) error {
	if len(session.Participants) == 0 {
		return fmt.Errorf("session needs at least one participant")
	}
	for _, item := range session.Items {
		for _, p := range item.Participants {
			if !isParticipant(p, session.Participants) {
				return fmt.Errorf("item %q includes %q who is not a session participant", item.Description, p)
			}
		}
	}
	return nil
}

// dryRunAllocate runs the allocator over a session before persisting it,
// so malformed splits are rejected instead of stored.
func (s *SessionService) dryRunAllocate(session *models.Session) error {
	_, err := allocateSession(session)
	return err
}

func (s *SessionService) create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}

	session, err := req.toModel()
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	if !isParticipant(userID, session.Participants) {
		writeForbidden(w, "you must be a participant to create this session")
		return
	}
	if err := validateSession(session); err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := s.dryRunAllocate(session); err != nil {
		slog.Error("create session: allocation rejected", "error", err)
		writeError(w, err)
		return
	}

	if err := s.store.CreateSession(r.Context(), session); err != nil {
		slog.Error("create session failed", "error", err)
		writeError(w, err)
		return
	}

	s.autoAddParticipantsToGroup(r.Context(), session.GroupID, session.Participants)

	slog.Info("session created", "session_id", session.ID, "items", len(session.Items))
	writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

// loadSessionForUser fetches a session and checks the caller is a
// participant.
func (s *SessionService) loadSessionForUser(w http.ResponseWriter, r *http.Request) (*models.Session, bool) {
	sessionID := chi.URLParam(r, "sessionID")
	session, err := s.store.GetSession(r.Context(), sessionID)
	if err != nil {
		writeNotFound(w, err)
		return nil, false
	}

	if userID := middleware.GetUserID(r.Context()); !isParticipant(userID, session.Participants) {
		writeForbidden(w, "you must be a participant to access this session")
		return nil, false
	}
	return session, true
}

func (s *SessionService) get(w http.ResponseWriter, r *http.Request) {
	session, ok := s.loadSessionForUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (s *SessionService) update(w http.ResponseWriter, r *http.Request) {
	existing, ok := s.loadSessionForUser(w, r)
	if !ok {
		return
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}

	session, err := req.toModel()
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	session.ID = existing.ID
	if session.Title == "" {
		session.Title = existing.Title
	}

	if err := validateSession(session); err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := s.dryRunAllocate(session); err != nil {
		slog.Error("update session: allocation rejected", "error", err)
		writeError(w, err)
		return
	}

	if err := s.store.UpdateSession(r.Context(), session); err != nil {
		slog.Error("update session failed", "session_id", session.ID, "error", err)
		writeError(w, err)
		return
	}

	s.autoAddParticipantsToGroup(r.Context(), session.GroupID, session.Participants)

	updated, err := s.store.GetSession(r.Context(), session.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(updated))
}

func (s *SessionService) delete(w http.ResponseWriter, r *http.Request) {
	session, ok := s.loadSessionForUser(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteSession(r.Context(), session.ID); err != nil {
		slog.Error("delete session failed", "session_id", session.ID, "error", err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type paymentRequest struct {
	Participant string `json:"participant"`
	Amount      string `json:"amount"`
}

func (s *SessionService) addPayment(w http.ResponseWriter, r *http.Request) {
	session, ok := s.loadSessionForUser(w, r)
	if !ok {
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	if amount <= 0 {
		writeBadRequest(w, fmt.Errorf("payment amount must be positive"))
		return
	}
	if !isParticipant(req.Participant, session.Participants) {
		writeBadRequest(w, fmt.Errorf("payer %q is not a session participant", req.Participant))
		return
	}

	payment := &models.Payment{Participant: req.Participant, Amount: amount}
	if err := s.store.AddPayment(r.Context(), session.ID, payment); err != nil {
		slog.Error("add payment failed", "session_id", session.ID, "error", err)
		writeError(w, err)
		return
	}

	slog.Info("payment recorded", "session_id", session.ID, "participant", req.Participant)
	writeJSON(w, http.StatusCreated, paymentResponse{
		ID:          payment.ID,
		Participant: payment.Participant,
		Amount:      money.Format(payment.Amount),
		PaidAt:      payment.PaidAt,
	})
}

type shareResponse struct {
	Participant string `json:"participant"`
	Amount      string `json:"amount"`
}

type itemSharesResponse struct {
	ItemID      string          `json:"item_id"`
	Description string          `json:"description"`
	Total       string          `json:"total"`
	Shares      []shareResponse `json:"shares"`
}

type sessionSharesResponse struct {
	Items  []itemSharesResponse `json:"items"`
	Totals map[string]string    `json:"totals"`
}

func (s *SessionService) shares(w http.ResponseWriter, r *http.Request) {
	session, ok := s.loadSessionForUser(w, r)
	if !ok {
		return
	}

	resp := sessionSharesResponse{Items: []itemSharesResponse{}}
	owed := make(map[string]money.Amount)

	for _, item := range session.Items {
		calcItem, assignments := toCalculatorItem(item)
		itemShares, err := calculator.Allocate(calcItem, assignments)
		if err != nil {
			slog.Error("allocation failed", "session_id", session.ID, "item_id", item.ID, "error", err)
			writeError(w, err)
			return
		}
		s.metrics.ObserveAllocation(item.Policy)

		ir := itemSharesResponse{
			ItemID:      item.ID,
			Description: item.Description,
			Total:       money.Format(calcItem.Total()),
		}
		for _, share := range itemShares {
			ir.Shares = append(ir.Shares, shareResponse{
				Participant: string(share.Participant),
				Amount:      money.Format(share.Amount),
			})
			owed[string(share.Participant)] += share.Amount
		}
		resp.Items = append(resp.Items, ir)
	}

	resp.Totals = make(map[string]string, len(owed))
	for participant, amount := range owed {
		resp.Totals[participant] = money.Format(amount)
	}

	writeJSON(w, http.StatusOK, resp)
}

type balancesResponse struct {
	Positions map[string]string `json:"positions"`
}

func (s *SessionService) balances(w http.ResponseWriter, r *http.Request) {
	session, ok := s.loadSessionForUser(w, r)
	if !ok {
		return
	}

	positions, err := sessionPositions(session)
	if err != nil {
		slog.Error("balance computation failed", "session_id", session.ID, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, balancesResponse{Positions: formatPositions(positions)})
}

type transfersResponse struct {
	Transfers []transferResponse `json:"transfers"`
}

func (s *SessionService) transfers(w http.ResponseWriter, r *http.Request) {
	session, ok := s.loadSessionForUser(w, r)
	if !ok {
		return
	}

	positions, err := sessionPositions(session)
	if err != nil {
		slog.Error("balance computation failed", "session_id", session.ID, "error", err)
		writeError(w, err)
		return
	}

	transfers, err := calculator.Simplify(positions)
	if err != nil {
		// Positions that do not sum to zero mean the session is not
		// fully paid up; the caller decides what to do with that.
		slog.Warn("settlement rejected", "session_id", session.ID, "error", err)
		writeError(w, err)
		return
	}
	s.metrics.ObserveSettlement(len(transfers))

	writeJSON(w, http.StatusOK, transfersResponse{Transfers: toTransferResponses(transfers)})
}
