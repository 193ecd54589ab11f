package service

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/splitlyhq/splitly/internal/calculator"
	"github.com/splitlyhq/splitly/internal/metrics"
	"github.com/splitlyhq/splitly/internal/middleware"
	"github.com/splitlyhq/splitly/internal/models"
	"github.com/splitlyhq/splitly/internal/money"
	"github.com/splitlyhq/splitly/internal/storage"
)

// GroupService exposes groups and the balances aggregated across every
// session recorded under them.
type GroupService struct {
	store   storage.Store
	metrics *metrics.Metrics
}

// NewGroupService creates a new GroupService with the given storage
// backend.
func NewGroupService(store storage.Store, m *metrics.Metrics) *GroupService {
	return &GroupService{store: store, metrics: m}
}

// Routes mounts the group endpoints.
func (s *GroupService) Routes(r chi.Router) {
	r.Post("/", s.create)
	r.Get("/", s.list)
	r.Get("/{groupID}", s.get)
	r.Put("/{groupID}", s.update)
	r.Delete("/{groupID}", s.delete)
	r.Get("/{groupID}/sessions", s.sessions)
	r.Get("/{groupID}/balances", s.balances)
	r.Get("/{groupID}/transfers", s.transfers)
	r.Post("/{groupID}/settlements", s.createSettlement)
	r.Get("/{groupID}/settlements", s.listSettlements)
}

type groupRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type groupResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Members   []string `json:"members"`
	CreatedAt int64    `json:"created_at"`
}

func toGroupResponse(group *models.Group) groupResponse {
	return groupResponse{
		ID:        group.ID,
		Name:      group.Name,
		Members:   group.Members,
		CreatedAt: group.CreatedAt,
	}
}

func (s *GroupService) create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}
	if req.Name == "" {
		writeBadRequest(w, fmt.Errorf("group name is required"))
		return
	}

	// The creator is always a member.
	members := req.Members
	if !isParticipant(userID, members) {
		members = append(members, userID)
	}

	group := &models.Group{Name: req.Name, Members: members}
	if err := s.store.CreateGroup(r.Context(), group); err != nil {
		slog.Error("create group failed", "error", err)
		writeError(w, err)
		return
	}

	slog.Info("group created", "group_id", group.ID, "members", len(group.Members))
	writeJSON(w, http.StatusCreated, toGroupResponse(group))
}

func (s *GroupService) list(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	groups, err := s.store.ListGroups(r.Context(), userID)
	if err != nil {
		slog.Error("list groups failed", "error", err)
		writeError(w, err)
		return
	}

	resp := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		resp = append(resp, toGroupResponse(g))
	}
	writeJSON(w, http.StatusOK, resp)
}

// loadGroupForUser fetches a group and checks the caller is a member.
func (s *GroupService) loadGroupForUser(w http.ResponseWriter, r *http.Request) (*models.Group, bool) {
	groupID := chi.URLParam(r, "groupID")
	group, err := s.store.GetGroup(r.Context(), groupID)
	if err != nil {
		writeNotFound(w, err)
		return nil, false
	}

	if userID := middleware.GetUserID(r.Context()); !isParticipant(userID, group.Members) {
		writeForbidden(w, "you must be a group member to access this group")
		return nil, false
	}
	return group, true
}

func (s *GroupService) get(w http.ResponseWriter, r *http.Request) {
	group, ok := s.loadGroupForUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(group))
}

func (s *GroupService) update(w http.ResponseWriter, r *http.Request) {
	group, ok := s.loadGroupForUser(w, r)
	if !ok {
		return
	}

	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}
	if req.Name != "" {
		group.Name = req.Name
	}
	if len(req.Members) > 0 {
		group.Members = req.Members
	}

	if err := s.store.UpdateGroup(r.Context(), group); err != nil {
		slog.Error("update group failed", "group_id", group.ID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(group))
}

func (s *GroupService) delete(w http.ResponseWriter, r *http.Request) {
	group, ok := s.loadGroupForUser(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteGroup(r.Context(), group.ID); err != nil {
		slog.Error("delete group failed", "group_id", group.ID, "error", err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *GroupService) sessions(w http.ResponseWriter, r *http.Request) {
	group, ok := s.loadGroupForUser(w, r)
	if !ok {
		return
	}

	sessions, err := s.store.ListSessionsByGroup(r.Context(), group.ID)
	if err != nil {
		slog.Error("list group sessions failed", "group_id", group.ID, "error", err)
		writeError(w, err)
		return
	}

	resp := make([]sessionResponse, 0, len(sessions))
	for _, session := range sessions {
		resp = append(resp, toSessionResponse(session))
	}
	writeJSON(w, http.StatusOK, resp)
}

// groupLedger is the aggregate of every session and settlement in a
// group: what each member has paid, what they owe, and the resulting net
// position.
type groupLedger struct {
	paid map[calculator.ParticipantID]money.Amount
	owed map[calculator.ParticipantID]money.Amount
	net  map[calculator.ParticipantID]calculator.NetPosition
}

// buildLedger folds every group session and recorded settlement into a
// single ledger keyed by member.
func (s *GroupService) buildLedger(r *http.Request, group *models.Group) (*groupLedger, error) {
	sessions, err := s.store.ListSessionsByGroup(r.Context(), group.ID)
	if err != nil {
		return nil, err
	}
	settlements, err := s.store.ListSettlementsByGroup(r.Context(), group.ID)
	if err != nil {
		return nil, err
	}

	ledger := &groupLedger{
		paid: make(map[calculator.ParticipantID]money.Amount, len(group.Members)),
		owed: make(map[calculator.ParticipantID]money.Amount, len(group.Members)),
		net:  make(map[calculator.ParticipantID]calculator.NetPosition, len(group.Members)),
	}

	participants := make([]calculator.Participant, len(group.Members))
	for i, m := range group.Members {
		id := calculator.ParticipantID(m)
		participants[i] = calculator.Participant{ID: id}
		ledger.paid[id] = 0
		ledger.owed[id] = 0
	}

	var allShares []calculator.ParticipantShare
	var allPayments []calculator.Payment
	for _, session := range sessions {
		shares, err := allocateSession(session)
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", session.ID, err)
		}
		allShares = append(allShares, shares...)
		for _, p := range session.Payments {
			allPayments = append(allPayments, calculator.Payment{
				Participant: calculator.ParticipantID(p.Participant),
				Amount:      p.Amount,
				PaidAt:      p.PaidAt,
			})
		}
	}

	net, err := calculator.ComputeNetPositions(participants, allShares, allPayments)
	if err != nil {
		return nil, err
	}

	for _, share := range allShares {
		ledger.owed[share.Participant] += share.Amount
	}
	for _, payment := range allPayments {
		ledger.paid[payment.Participant] += payment.Amount
	}

	// A recorded settlement moves money from debtor to creditor outside
	// any session, so it shifts both net positions toward zero.
	for _, st := range settlements {
		from := calculator.ParticipantID(st.From)
		to := calculator.ParticipantID(st.To)
		if _, ok := net[from]; !ok {
			return nil, &calculator.UnknownParticipantError{Participant: from, Source: "settlement"}
		}
		if _, ok := net[to]; !ok {
			return nil, &calculator.UnknownParticipantError{Participant: to, Source: "settlement"}
		}
		net[from] += st.Amount
		net[to] -= st.Amount
		ledger.paid[from] += st.Amount
	}

	ledger.net = net
	return ledger, nil
}

type memberBalance struct {
	Member string `json:"member"`
	Paid   string `json:"paid"`
	Owed   string `json:"owed"`
	Net    string `json:"net"`
}

func (s *GroupService) balances(w http.ResponseWriter, r *http.Request) {
	group, ok := s.loadGroupForUser(w, r)
	if !ok {
		return
	}

	ledger, err := s.buildLedger(r, group)
	if err != nil {
		slog.Error("group balance computation failed", "group_id", group.ID, "error", err)
		writeError(w, err)
		return
	}

	members := make([]string, len(group.Members))
	copy(members, group.Members)
	sort.Strings(members)

	resp := make([]memberBalance, 0, len(members))
	for _, m := range members {
		id := calculator.ParticipantID(m)
		resp = append(resp, memberBalance{
			Member: m,
			Paid:   money.Format(ledger.paid[id]),
			Owed:   money.Format(ledger.owed[id]),
			Net:    money.Format(ledger.net[id]),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *GroupService) transfers(w http.ResponseWriter, r *http.Request) {
	group, ok := s.loadGroupForUser(w, r)
	if !ok {
		return
	}

	ledger, err := s.buildLedger(r, group)
	if err != nil {
		slog.Error("group balance computation failed", "group_id", group.ID, "error", err)
		writeError(w, err)
		return
	}

	transfers, err := calculator.Simplify(ledger.net)
	if err != nil {
		// Sessions with unpaid totals leave the group ledger unbalanced.
		slog.Warn("group settlement rejected", "group_id", group.ID, "error", err)
		writeError(w, err)
		return
	}
	s.metrics.ObserveSettlement(len(transfers))

	writeJSON(w, http.StatusOK, transfersResponse{Transfers: toTransferResponses(transfers)})
}

type settlementRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
	Note   string `json:"note,omitempty"`
}

type settlementResponse struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    string `json:"amount"`
	Note      string `json:"note,omitempty"`
	CreatedAt int64  `json:"created_at"`
	CreatedBy string `json:"created_by"`
}

func toSettlementResponse(st *models.Settlement) settlementResponse {
	return settlementResponse{
		ID:        st.ID,
		From:      st.From,
		To:        st.To,
		Amount:    money.Format(st.Amount),
		Note:      st.Note,
		CreatedAt: st.CreatedAt,
		CreatedBy: st.CreatedBy,
	}
}

func (s *GroupService) createSettlement(w http.ResponseWriter, r *http.Request) {
	group, ok := s.loadGroupForUser(w, r)
	if !ok {
		return
	}

	var req settlementRequest
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
		writeBadRequest(w, fmt.Errorf("settlement amount must be positive"))
		return
	}
	if req.From == req.To {
		writeBadRequest(w, fmt.Errorf("settlement needs two distinct members"))
		return
	}
	for _, member := range []string{req.From, req.To} {
		if !isParticipant(member, group.Members) {
			writeBadRequest(w, fmt.Errorf("%q is not a member of this group", member))
			return
		}
	}

	settlement := &models.Settlement{
		GroupID:   group.ID,
		From:      req.From,
		To:        req.To,
		Amount:    amount,
		Note:      req.Note,
		CreatedBy: middleware.GetUserID(r.Context()),
	}
	if err := s.store.CreateSettlement(r.Context(), settlement); err != nil {
		slog.Error("create settlement failed", "group_id", group.ID, "error", err)
		writeError(w, err)
		return
	}

	slog.Info("settlement recorded", "group_id", group.ID, "from", req.From, "to", req.To)
	writeJSON(w, http.StatusCreated, toSettlementResponse(settlement))
}

func (s *GroupService) listSettlements(w http.ResponseWriter, r *http.Request) {
	group, ok := s.loadGroupForUser(w, r)
	if !ok {
		return
	}

	settlements, err := s.store.ListSettlementsByGroup(r.Context(), group.ID)
	if err != nil {
		slog.Error("list settlements failed", "group_id", group.ID, "error", err)
		writeError(w, err)
		return
	}

	resp := make([]settlementResponse, 0, len(settlements))
	for _, st := range settlements {
		resp = append(resp, toSettlementResponse(st))
	}
	writeJSON(w, http.StatusOK, resp)
}
