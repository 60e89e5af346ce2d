package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"rational-assistant/internal/auth"
	"rational-assistant/internal/models"
	"rational-assistant/internal/storage"

	"github.com/shopspring/decimal"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// Defaults for profile fields omitted at registration.
var (
	defaultSalary         = decimal.NewFromInt(100000)
	defaultMonthlySavings = decimal.NewFromInt(20000)
)

type credentials struct {
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

type profileRequest struct {
	Salary                *decimal.Decimal `json:"salary"`
	MonthlySavings        *decimal.Decimal `json:"monthly_savings"`
	CurrentSavings        *decimal.Decimal `json:"current_savings"`
	UseSavingsCalculation *bool            `json:"use_savings_calculation"`
}

// apply overlays the supplied fields on p.
func (req profileRequest) apply(p storage.Profile) (storage.Profile, error) {
	for _, v := range []*decimal.Decimal{req.Salary, req.MonthlySavings, req.CurrentSavings} {
		if v != nil && v.IsNegative() {
			return p, errors.New("amounts must not be negative")
		}
	}
	if req.Salary != nil {
		p.Salary = *req.Salary
	}
	if req.MonthlySavings != nil {
		p.MonthlySavings = *req.MonthlySavings
	}
	if req.CurrentSavings != nil {
		p.CurrentSavings = *req.CurrentSavings
	}
	if req.UseSavingsCalculation != nil {
		p.UseSavingsCalculation = *req.UseSavingsCalculation
	}
	return p, nil
}

type registerRequest struct {
	credentials
	profileRequest
}

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Register creates an account with the default price ranges and logs it in.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}
	nickname := strings.TrimSpace(req.Nickname)
	if nickname == "" {
		writeError(w, http.StatusBadRequest, "Nickname is required")
		return
	}
	if len(req.Password) < MinPasswordLength {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	profile, err := req.profileRequest.apply(storage.Profile{
		Salary:                defaultSalary,
		MonthlySavings:        defaultMonthlySavings,
		CurrentSavings:        decimal.Zero,
		UseSavingsCalculation: true,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		fail(w, r, err)
		return
	}
	user, err := h.db.CreateUser(r.Context(), storage.NewUser{
		Nickname:              nickname,
		PasswordHash:          hash,
		Salary:                profile.Salary,
		MonthlySavings:        profile.MonthlySavings,
		CurrentSavings:        profile.CurrentSavings,
		UseSavingsCalculation: profile.UseSavingsCalculation,
	})
	if errors.Is(err, storage.ErrDuplicate) {
		writeError(w, http.StatusBadRequest, "Nickname is already taken")
		return
	}
	if err != nil {
		fail(w, r, err)
		return
	}

	slog.Info("user registered", "request_id", RequestID(r.Context()), "user_id", user.ID)
	h.startSession(w, r, user, http.StatusCreated)
}

// Login checks the credentials and starts a session.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decode(w, r, &req) {
		return
	}
	nickname := strings.TrimSpace(req.Nickname)
	if nickname == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Nickname and password are required")
		return
	}

	user, err := h.db.GetUserByNickname(r.Context(), nickname)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		fail(w, r, err)
		return
	}
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid nickname or password")
		return
	}

	if err := h.db.TouchLogin(r.Context(), user.ID); err != nil {
		slog.Warn("touch login", "request_id", RequestID(r.Context()), "user_id", user.ID, "error", err)
	}
	h.startSession(w, r, user, http.StatusOK)
}

func (h *Handlers) startSession(w http.ResponseWriter, r *http.Request, user *models.User, status int) {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		fail(w, r, err)
		return
	}
	expiresAt := time.Now().Add(SessionDuration)
	if err := h.db.CreateSession(r.Context(), token, user.ID, expiresAt); err != nil {
		fail(w, r, err)
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, status, sessionResponse{Token: token, ExpiresAt: expiresAt, User: user})
}

// Logout ends the current session.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		if err := h.db.DeleteSession(r.Context(), token); err != nil {
			slog.Error("delete session", "request_id", RequestID(r.Context()), "error", err)
		}
	}
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out"})
}

// Me returns the authenticated user.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, GetUserFromContext(r))
}

// UpdateMe changes the financial profile of the authenticated user.
func (h *Handlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	var req profileRequest
	if !decode(w, r, &req) {
		return
	}
	profile, err := req.apply(storage.Profile{
		Salary:                user.Salary,
		MonthlySavings:        user.MonthlySavings,
		CurrentSavings:        user.CurrentSavings,
		UseSavingsCalculation: user.UseSavingsCalculation,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.db.UpdateProfile(r.Context(), user.ID, profile)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type linkCodeResponse struct {
	Code      string    `json:"code"`
	Command   string    `json:"command"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TelegramLinkCode issues a one-time code the user sends to the bot with /link.
func (h *Handlers) TelegramLinkCode(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	code, expires, err := h.linkCodes.Issue(r.Context(), user.ID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, linkCodeResponse{Code: code, Command: "/link " + code, ExpiresAt: expires})
}
