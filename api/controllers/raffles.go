package controllers

import (
	"net/http"

	"github.com/streampoints/raffle-backend/api/responses"
	"github.com/streampoints/raffle-backend/api/validators"
	"github.com/streampoints/raffle-backend/internal/draw"
	"github.com/streampoints/raffle-backend/internal/grants"
	"github.com/streampoints/raffle-backend/internal/purchase"
	"github.com/streampoints/raffle-backend/internal/raffles"
	pkgerrors "github.com/streampoints/raffle-backend/pkg/errors"
	"github.com/streampoints/raffle-backend/pkg/logger"
)

type purchaseRequest struct {
	UserID   int64 `json:"user_id" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"required,gt=0"`
}

type drawRequest struct {
	NumberOfWinners int     `json:"number_of_winners" validate:"required,gt=0"`
	RiggedEntryIDs  []int64 `json:"rigged_entry_ids" validate:"omitempty,dive,gt=0"`
}

type grantRequest struct {
	UserID   int64  `json:"user_id" validate:"omitempty,gt=0"`
	Username string `json:"username" validate:"required_without=UserID"`
	Tickets  int    `json:"tickets" validate:"required,gt=0"`
}

// RaffleList returns the publicly visible raffles.
func RaffleList(svc raffles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "raffle service unavailable"))
			return
		}

		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// RaffleDetail returns one raffle with entry aggregates and, once drawn,
// its winners.
func RaffleDetail(svc raffles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "raffle service unavailable"))
			return
		}

		raffleID, err := validators.ParseIDParam(r, "raffleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Get(r.Context(), raffleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// RafflePurchase exchanges the caller's points for tickets.
func RafflePurchase(svc purchase.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase service unavailable"))
			return
		}

		raffleID, err := validators.ParseIDParam(r, "raffleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req purchaseRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Purchase(r.Context(), purchase.PurchaseInput{
			UserID:   req.UserID,
			RaffleID: raffleID,
			Quantity: req.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// RaffleDraw runs the seeded winner draw for a raffle.
func RaffleDraw(svc draw.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "draw service unavailable"))
			return
		}

		raffleID, err := validators.ParseIDParam(r, "raffleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req drawRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Draw(r.Context(), draw.DrawInput{
			RaffleID:        raffleID,
			NumberOfWinners: req.NumberOfWinners,
			RiggedEntryIDs:  req.RiggedEntryIDs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// RaffleGrant hands out tickets to a user without debiting points.
func RaffleGrant(svc grants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "grant service unavailable"))
			return
		}

		raffleID, err := validators.ParseIDParam(r, "raffleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req grantRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.Grant(r.Context(), grants.GrantInput{
			RaffleID: raffleID,
			UserID:   req.UserID,
			Username: req.Username,
			Tickets:  req.Tickets,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}
