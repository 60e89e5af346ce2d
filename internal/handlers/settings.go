package handlers

import (
	"net/http"
	"strings"

	"rational-assistant/internal/models"

	"github.com/shopspring/decimal"
)

// ListPriceRanges returns the user's price ranges.
func (h *Handlers) ListPriceRanges(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	ranges, err := h.db.ListPriceRanges(r.Context(), user.ID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ranges)
}

type priceRangeRequest struct {
	MinPrice    decimal.Decimal  `json:"min_price"`
	MaxPrice    *decimal.Decimal `json:"max_price"`
	CoolingDays int              `json:"cooling_days"`
}

// CreatePriceRange adds a price range. A missing max_price leaves it open ended.
func (h *Handlers) CreatePriceRange(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	var req priceRangeRequest
	if !decode(w, r, &req) {
		return
	}
	switch {
	case req.MinPrice.IsNegative():
		writeError(w, http.StatusBadRequest, "min_price must not be negative")
		return
	case req.MaxPrice != nil && req.MaxPrice.LessThan(req.MinPrice):
		writeError(w, http.StatusBadRequest, "max_price must not be below min_price")
		return
	case req.CoolingDays < 0:
		writeError(w, http.StatusBadRequest, "cooling_days must not be negative")
		return
	}

	pr := &models.PriceRange{
		UserID:      user.ID,
		MinPrice:    req.MinPrice,
		MaxPrice:    req.MaxPrice,
		CoolingDays: req.CoolingDays,
	}
	if err := h.db.CreatePriceRange(r.Context(), pr); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, pr)
}

// DeletePriceRange removes a price range.
func (h *Handlers) DeletePriceRange(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.db.DeletePriceRange(r.Context(), user.ID, id); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Price range deleted"})
}

// ListBlacklist returns the user's blacklisted categories.
func (h *Handlers) ListBlacklist(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	entries, err := h.db.ListBlacklist(r.Context(), user.ID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type blacklistRequest struct {
	Category string `json:"category"`
}

// AddBlacklist puts a category on the blacklist.
func (h *Handlers) AddBlacklist(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	var req blacklistRequest
	if !decode(w, r, &req) {
		return
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		writeError(w, http.StatusBadRequest, "Category is required")
		return
	}
	entry, err := h.db.AddBlacklist(r.Context(), user.ID, category)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// RemoveBlacklist takes a category off the blacklist.
func (h *Handlers) RemoveBlacklist(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.db.RemoveBlacklist(r.Context(), user.ID, id); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Category removed"})
}
