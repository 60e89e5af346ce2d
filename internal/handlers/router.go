package handlers

import "net/http"

// NewRouter registers every API route on a fresh mux.
func NewRouter(h *Handlers) http.Handler {
	mux := http.NewServeMux()
	protected := func(fn http.HandlerFunc) http.Handler {
		return h.AuthMiddleware(fn)
	}

	mux.HandleFunc("GET /health", h.Health)

	mux.HandleFunc("POST /api/auth/register", h.Register)
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/logout", h.Logout)

	mux.Handle("GET /api/me", protected(h.Me))
	mux.Handle("PUT /api/me", protected(h.UpdateMe))
	mux.Handle("POST /api/telegram/link-code", protected(h.TelegramLinkCode))

	mux.Handle("POST /api/parse-product", protected(h.ParseProduct))
	mux.Handle("POST /api/match-categories", protected(h.MatchCategories))
	mux.Handle("POST /api/analyze", protected(h.Analyze))

	mux.Handle("GET /api/purchases", protected(h.ListPurchases))
	mux.Handle("POST /api/purchases", protected(h.CreatePurchase))
	mux.Handle("PUT /api/purchases/{id}", protected(h.UpdatePurchase))
	mux.Handle("DELETE /api/purchases/{id}", protected(h.DeletePurchase))

	mux.Handle("GET /api/price-ranges", protected(h.ListPriceRanges))
	mux.Handle("POST /api/price-ranges", protected(h.CreatePriceRange))
	mux.Handle("DELETE /api/price-ranges/{id}", protected(h.DeletePriceRange))

	mux.Handle("GET /api/blacklist", protected(h.ListBlacklist))
	mux.Handle("POST /api/blacklist", protected(h.AddBlacklist))
	mux.Handle("DELETE /api/blacklist/{id}", protected(h.RemoveBlacklist))

	mux.Handle("GET /api/statistics", protected(h.Statistics))

	return RequestIDMiddleware(mux)
}
