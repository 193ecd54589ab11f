package service

import (
	"fmt"

	"github.com/splitlyhq/splitly/internal/calculator"
	"github.com/splitlyhq/splitly/internal/models"
	"github.com/splitlyhq/splitly/internal/money"
)

// itemRequest is the wire form of a line item. Monetary values cross the
// API as decimal strings and are parsed into minor units at this boundary.
type itemRequest struct {
	Description  string              `json:"description"`
	Price        string              `json:"price"`
	Quantity     int64               `json:"quantity,omitempty"`
	Policy       string              `json:"policy"`
	Participants []string            `json:"participants"`
	Assignments  []assignmentRequest `json:"assignments,omitempty"`
}

type assignmentRequest struct {
	Participant string `json:"participant"`
	Weight      int64  `json:"weight,omitempty"`
	Amount      string `json:"amount,omitempty"`
}

func (r itemRequest) toModel() (models.LineItem, error) {
	price, err := money.Parse(r.Price)
	if err != nil {
		return models.LineItem{}, fmt.Errorf("item %q: %w", r.Description, err)
	}

	quantity := r.Quantity
	if quantity == 0 {
		quantity = 1
	}

	item := models.LineItem{
		Description:  r.Description,
		Price:        price,
		Quantity:     quantity,
		Policy:       r.Policy,
		Participants: r.Participants,
	}
	for _, a := range r.Assignments {
		amount := int64(0)
		if a.Amount != "" {
			if amount, err = money.Parse(a.Amount); err != nil {
				return models.LineItem{}, fmt.Errorf("assignment for %q: %w", a.Participant, err)
			}
		}
		item.Assignments = append(item.Assignments, models.ShareAssignment{
			Participant: a.Participant,
			Weight:      a.Weight,
			Amount:      amount,
		})
	}
	return item, nil
}

type assignmentResponse struct {
	Participant string `json:"participant"`
	Weight      int64  `json:"weight,omitempty"`
	Amount      string `json:"amount,omitempty"`
}

type itemResponse struct {
	ID           string               `json:"id"`
	Description  string               `json:"description"`
	Price        string               `json:"price"`
	Quantity     int64                `json:"quantity"`
	Policy       string               `json:"policy"`
	Participants []string             `json:"participants"`
	Assignments  []assignmentResponse `json:"assignments,omitempty"`
}

func toItemResponse(item models.LineItem) itemResponse {
	resp := itemResponse{
		ID:           item.ID,
		Description:  item.Description,
		Price:        money.Format(item.Price),
		Quantity:     item.Quantity,
		Policy:       item.Policy,
		Participants: item.Participants,
	}
	for _, a := range item.Assignments {
		ar := assignmentResponse{Participant: a.Participant, Weight: a.Weight}
		if a.Amount != 0 {
			ar.Amount = money.Format(a.Amount)
		}
		resp.Assignments = append(resp.Assignments, ar)
	}
	return resp
}

type paymentResponse struct {
	ID          string `json:"id"`
	Participant string `json:"participant"`
	Amount      string `json:"amount"`
	PaidAt      int64  `json:"paid_at"`
}

type sessionResponse struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	GroupID      string            `json:"group_id,omitempty"`
	Participants []string          `json:"participants"`
	Items        []itemResponse    `json:"items"`
	Payments     []paymentResponse `json:"payments"`
	CreatedAt    int64             `json:"created_at"`
}

func toSessionResponse(session *models.Session) sessionResponse {
	resp := sessionResponse{
		ID:           session.ID,
		Title:        session.Title,
		GroupID:      session.GroupID,
		Participants: session.Participants,
		Items:        []itemResponse{},
		Payments:     []paymentResponse{},
		CreatedAt:    session.CreatedAt,
	}
	for _, item := range session.Items {
		resp.Items = append(resp.Items, toItemResponse(item))
	}
	for _, p := range session.Payments {
		resp.Payments = append(resp.Payments, paymentResponse{
			ID:          p.ID,
			Participant: p.Participant,
			Amount:      money.Format(p.Amount),
			PaidAt:      p.PaidAt,
		})
	}
	return resp
}

// toCalculatorItem converts a persisted line item into the engine's
// value type.
func toCalculatorItem(item models.LineItem) (calculator.LineItem, []calculator.ShareAssignment) {
	participants := make([]calculator.ParticipantID, len(item.Participants))
	for i, p := range item.Participants {
		participants[i] = calculator.ParticipantID(p)
	}

	assignments := make([]calculator.ShareAssignment, len(item.Assignments))
	for i, a := range item.Assignments {
		assignments[i] = calculator.ShareAssignment{
			Participant: calculator.ParticipantID(a.Participant),
			Weight:      a.Weight,
			Amount:      a.Amount,
		}
	}

	return calculator.LineItem{
		ID:           item.ID,
		Price:        item.Price,
		Quantity:     item.Quantity,
		Policy:       calculator.SplitPolicy(item.Policy),
		Participants: participants,
	}, assignments
}

// allocateSession resolves every item of a session into shares.
func allocateSession(session *models.Session) ([]calculator.ParticipantShare, error) {
	var shares []calculator.ParticipantShare
	for _, item := range session.Items {
		calcItem, assignments := toCalculatorItem(item)
		itemShares, err := calculator.Allocate(calcItem, assignments)
		if err != nil {
			return nil, err
		}
		shares = append(shares, itemShares...)
	}
	return shares, nil
}

// sessionPositions computes per-participant net positions for a session.
func sessionPositions(session *models.Session) (map[calculator.ParticipantID]calculator.NetPosition, error) {
	shares, err := allocateSession(session)
	if err != nil {
		return nil, err
	}

	participants := make([]calculator.Participant, len(session.Participants))
	for i, p := range session.Participants {
		participants[i] = calculator.Participant{ID: calculator.ParticipantID(p)}
	}

	payments := make([]calculator.Payment, len(session.Payments))
	for i, p := range session.Payments {
		payments[i] = calculator.Payment{
			Participant: calculator.ParticipantID(p.Participant),
			Amount:      p.Amount,
			PaidAt:      p.PaidAt,
		}
	}

	return calculator.ComputeNetPositions(participants, shares, payments)
}

type transferResponse struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func toTransferResponses(transfers []calculator.Transfer) []transferResponse {
	resp := make([]transferResponse, len(transfers))
	for i, t := range transfers {
		resp[i] = transferResponse{
			From:   string(t.From),
			To:     string(t.To),
			Amount: money.Format(t.Amount),
		}
	}
	return resp
}

func formatPositions(positions map[calculator.ParticipantID]calculator.NetPosition) map[string]string {
	out := make(map[string]string, len(positions))
	for id, pos := range positions {
		out[string(id)] = money.Format(pos)
	}
	return out
}
