package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"rational-assistant/internal/analyzer"
	"rational-assistant/internal/categories"
	"rational-assistant/internal/models"
	"rational-assistant/internal/parser"
	"rational-assistant/internal/purchases"

	"github.com/shopspring/decimal"
)

type analyzeRequest struct {
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
}

// Analyze runs the impulse analysis without saving a purchase.
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	var req analyzeRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := h.purchases.Analyze(r.Context(), user.ID, req.Price, req.Category)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type createPurchaseRequest struct {
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Category   string          `json:"category"`
	Notes      string          `json:"notes"`
	ProductURL *string         `json:"product_url"`
	ImageURL   *string         `json:"image_url"`
}

type createPurchaseResponse struct {
	ID              int64              `json:"id"`
	Purchase        *models.Purchase   `json:"purchase"`
	Analysis        analyzer.Analysis  `json:"analysis"`
	CategoryMatches *categories.Result `json:"category_matches"`
}

// CreatePurchase analyzes and stores a purchase for the authenticated user.
func (h *Handlers) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	var req createPurchaseRequest
	if !decode(w, r, &req) {
		return
	}
	p, a, err := h.purchases.Create(r.Context(), purchases.NewPurchase{
		UserID:     user.ID,
		Name:       req.Name,
		Price:      req.Price,
		Category:   req.Category,
		Notes:      req.Notes,
		ProductURL: req.ProductURL,
		ImageURL:   req.ImageURL,
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	// The purchase is stored by now, so a failed match lookup only drops
	// category_matches from the response.
	resp := createPurchaseResponse{ID: p.ID, Purchase: p, Analysis: a}
	if p.Category != "" {
		blacklist, err := h.blacklistNames(r, user.ID)
		if err != nil {
			slog.Error("list blacklist for category matches",
				"error", err, "purchase_id", p.ID, "request_id", RequestID(r.Context()))
		} else {
			matches := categories.MatchAll(p.Category, blacklist)
			resp.CategoryMatches = &matches
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ListPurchases lists the user's purchases, optionally filtered by ?status=.
func (h *Handlers) ListPurchases(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	status := r.URL.Query().Get("status")
	if status != "" && !models.ValidStatus(status) {
		writeError(w, http.StatusBadRequest, "Unknown status")
		return
	}
	list, err := h.db.ListPurchases(r.Context(), user.ID, status)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type updatePurchaseRequest struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

type updatePurchaseResponse struct {
	Message  string           `json:"message"`
	Purchase *models.Purchase `json:"purchase"`
}

// UpdatePurchase changes the status or notes of a purchase.
func (h *Handlers) UpdatePurchase(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updatePurchaseRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.purchases.Update(r.Context(), user.ID, id, purchases.Changes{Status: req.Status, Notes: req.Notes})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updatePurchaseResponse{Message: "Purchase updated", Purchase: p})
}

// DeletePurchase removes a purchase.
func (h *Handlers) DeletePurchase(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.db.DeletePurchase(r.Context(), user.ID, id); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Purchase deleted"})
}

type parseProductRequest struct {
	URL string `json:"url"`
}

// ParseProduct fetches name, price and category of a marketplace product.
func (h *Handlers) ParseProduct(w http.ResponseWriter, r *http.Request) {
	var req parseProductRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}
	product, err := h.parser.Parse(r.Context(), req.URL)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, product)
	case errors.Is(err, parser.ErrInvalidURL), errors.Is(err, parser.ErrUnsupported), errors.Is(err, parser.ErrNotFound):
		fail(w, r, err)
	default:
		// The marketplace is down or changed its format.
		writeError(w, http.StatusBadGateway, "Could not fetch the product")
	}
}

type matchCategoriesRequest struct {
	ProductCategory       string   `json:"productCategory"`
	BlacklistedCategories []string `json:"blacklistedCategories"`
}

// MatchCategories scores a product category against a blacklist. Without
// an explicit list the user's own blacklist is used.
func (h *Handlers) MatchCategories(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	var req matchCategoriesRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ProductCategory) == "" {
		writeError(w, http.StatusBadRequest, "productCategory is required")
		return
	}

	blacklist := req.BlacklistedCategories
	if blacklist == nil {
		var err error
		if blacklist, err = h.blacklistNames(r, user.ID); err != nil {
			fail(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, categories.MatchAll(req.ProductCategory, blacklist))
}

func (h *Handlers) blacklistNames(r *http.Request, userID int64) ([]string, error) {
	entries, err := h.blacklists.ListBlacklist(r.Context(), userID)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Category
	}
	return names, nil
}
