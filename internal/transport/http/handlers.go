package httptransport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sentinelguard/internal/authtoken"
	"sentinelguard/internal/forensic"
	"sentinelguard/internal/ledger"
	"sentinelguard/internal/policy"
	"sentinelguard/internal/roles"
	"sentinelguard/internal/upgrade"
	"sentinelguard/pkg/domain"
	dErrors "sentinelguard/pkg/domainerrors"
)

// Handler carries the domain services behind the HTTP surface.
type Handler struct {
	logger    *slog.Logger
	ledger    *ledger.Service
	roles     *roles.Service
	hub       *forensic.Hub
	upgrades  *upgrade.Manager
	approvals *upgrade.MultiApprovalAuthorizer
	validator TokenValidator

	// Token issuing is enabled only when both the issuer and the bcrypt hash
	// of the issuing secret are configured.
	issuer          TokenIssuer
	issueSecretHash string
	tokenTTL        time.Duration

	// policies names the transfer policies an admin may bind at runtime.
	policies map[string]policy.TransferPolicy
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithApprovals exposes the multi-approval proposal endpoints.
func WithApprovals(a *upgrade.MultiApprovalAuthorizer) Option {
	return func(h *Handler) { h.approvals = a }
}

// WithPolicies registers the transfer policies available for binding.
func WithPolicies(policies map[string]policy.TransferPolicy) Option {
	return func(h *Handler) { h.policies = policies }
}

// WithTokenIssuing enables POST /v1/token. Callers presenting the issuing
// secret, verified against its bcrypt hash, receive an access token for the
// actor they name. The token only authenticates; role checks stay in the
// core.
func WithTokenIssuing(issuer TokenIssuer, secretHash string, ttl time.Duration) Option {
	return func(h *Handler) {
		h.issuer = issuer
		h.issueSecretHash = secretHash
		h.tokenTTL = ttl
	}
}

func NewHandler(
	ledgerSvc *ledger.Service,
	roleSvc *roles.Service,
	hub *forensic.Hub,
	upgrades *upgrade.Manager,
	validator TokenValidator,
	opts ...Option,
) *Handler {
	h := &Handler{
		ledger:    ledgerSvc,
		roles:     roleSvc,
		hub:       hub,
		upgrades:  upgrades,
		validator: validator,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router wires the public read surface and the token-gated write surface.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/token", h.handleToken)
		r.Get("/state", h.handleState)
		r.Get("/roles", h.handleRoles)
		r.Get("/balances/{account}", h.handleBalance)
		r.Get("/audit/records", h.handleAuditList)
		r.Get("/audit/records/{seq}", h.handleAuditGet)
		r.Get("/audit/count", h.handleAuditCount)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(h.validator))
			r.Post("/mint", h.handleMint)
			r.Post("/burn", h.handleBurn)
			r.Post("/transfer", h.handleTransfer)

			r.Route("/admin", func(r chi.Router) {
				r.Post("/halt", h.handleHalt)
				r.Post("/enforcement", h.handleEnforcement)
				r.Post("/policy", h.handlePolicy)
				r.Post("/cap", h.handleSupplyCap)
				r.Post("/exemptions", h.handleExemption)
				r.Post("/roles/grant", h.handleRoleGrant)
				r.Post("/roles/revoke", h.handleRoleRevoke)
				r.Post("/monitoring", h.handleMonitoring)
				r.Post("/upgrade/propose", h.handleUpgradePropose)
				r.Post("/upgrade/approve", h.handleUpgradeApprove)
				r.Post("/upgrade/execute", h.handleUpgradeExecute)
			})
		})
	})
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	state := h.ledger.State(r.Context())
	state.CurrentLogic = h.upgrades.Current()
	WriteJSON(w, http.StatusOK, state)
}

func (h *Handler) handleRoles(w http.ResponseWriter, r *http.Request) {
	grants, err := h.roles.List(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, grants)
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	account := domain.Address(chi.URLParam(r, "account"))
	balance, err := h.ledger.Balance(r.Context(), account)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"account": account,
		"balance": balance,
	})
}

func (h *Handler) handleAuditList(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	records, err := h.hub.ListRecent(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}
	if records == nil {
		records = []forensic.Record{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (h *Handler) handleAuditGet(w http.ResponseWriter, r *http.Request) {
	seq, err := strconv.ParseUint(chi.URLParam(r, "seq"), 10, 64)
	if err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "sequence id must be an unsigned integer"))
		return
	}
	record, err := h.hub.GetRecord(r.Context(), seq)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleAuditCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.hub.RecordCount(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]uint64{"count": count})
}

// handleToken exchanges the issuing secret for an actor access token. With
// no issuing secret configured the endpoint fails closed.
func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	if h.issuer == nil || h.issueSecretHash == "" {
		WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "token issuing is not configured"))
		return
	}
	var req struct {
		Actor  domain.Address `json:"actor"`
		Secret string         `json:"secret"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Actor.IsZero() {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "actor is required"))
		return
	}
	if err := authtoken.VerifySecret(req.Secret, h.issueSecretHash); err != nil {
		WriteError(w, err)
		return
	}
	ttl := h.tokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	token, err := h.issuer.Issue(req.Actor, ttl)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"token": token})
}

type moveRequest struct {
	From   domain.Address `json:"from"`
	To     domain.Address `json:"to"`
	Amount domain.Amount  `json:"amount"`
}

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.ledger.Mint(r.Context(), ActorFrom(r.Context()), req.To, req.Amount); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleBurn(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.ledger.Burn(r.Context(), ActorFrom(r.Context()), req.From, req.Amount); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.ledger.Transfer(r.Context(), ActorFrom(r.Context()), req.From, req.To, req.Amount); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleHalt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Halted bool `json:"halted"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.ledger.SetHalt(r.Context(), ActorFrom(r.Context()), req.Halted); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleEnforcement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Active bool `json:"active"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.ledger.SetEnforcement(r.Context(), ActorFrom(r.Context()), req.Active); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePolicy binds one of the registered policies by name. An empty
// address unbinds the current policy.
func (h *Handler) handlePolicy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address domain.Address `json:"address"`
	}
	if !decode(w, r, &req) {
		return
	}
	var bound policy.TransferPolicy
	if !req.Address.IsZero() {
		p, ok := h.policies[string(req.Address)]
		if !ok {
			WriteError(w, dErrors.Newf(dErrors.CodeBadRequest, "unknown policy %q", req.Address))
			return
		}
		bound = p
	}
	if err := h.ledger.SetPolicy(r.Context(), ActorFrom(r.Context()), req.Address, bound); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSupplyCap(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Cap domain.Amount `json:"cap"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.ledger.SetSupplyCap(r.Context(), ActorFrom(r.Context()), req.Cap); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleExemption(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Account domain.Address `json:"account"`
		Exempt  bool           `json:"exempt"`
	}
	if !decode(w, r, &req) {
		return
	}
	var err error
	if req.Exempt {
		err = h.ledger.AddExemption(r.Context(), ActorFrom(r.Context()), req.Account)
	} else {
		err = h.ledger.RemoveExemption(r.Context(), ActorFrom(r.Context()), req.Account)
	}
	if err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type roleRequest struct {
	Role    domain.RoleID  `json:"role"`
	Account domain.Address `json:"account"`
}

func (h *Handler) handleRoleGrant(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.roles.Grant(r.Context(), ActorFrom(r.Context()), req.Role, req.Account); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRoleRevoke(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.roles.Revoke(r.Context(), ActorFrom(r.Context()), req.Role, req.Account); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMonitoring pauses or resumes the forensic hub. Admin only.
func (h *Handler) handleMonitoring(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Active bool `json:"active"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.roles.RequireRole(r.Context(), domain.RoleAdmin, ActorFrom(r.Context())); err != nil {
		WriteError(w, err)
		return
	}
	h.hub.SetActive(req.Active)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUpgradePropose(w http.ResponseWriter, r *http.Request) {
	if h.approvals == nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "no multi-approval authorizer configured"))
		return
	}
	var req struct {
		Implementation domain.Address `json:"implementation"`
	}
	if !decode(w, r, &req) {
		return
	}
	nonce, err := h.approvals.Propose(r.Context(), ActorFrom(r.Context()), req.Implementation)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]uint64{"nonce": nonce})
}

func (h *Handler) handleUpgradeApprove(w http.ResponseWriter, r *http.Request) {
	if h.approvals == nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "no multi-approval authorizer configured"))
		return
	}
	var req struct {
		Nonce uint64 `json:"nonce"`
	}
	if !decode(w, r, &req) {
		return
	}
	count, err := h.approvals.Approve(r.Context(), ActorFrom(r.Context()), req.Nonce)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"approvals": count})
}

func (h *Handler) handleUpgradeExecute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Implementation domain.Address `json:"implementation"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.upgrades.Execute(r.Context(), ActorFrom(r.Context()), req.Implementation); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]domain.Address{"current": h.upgrades.Current()})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var unmarshalErr *json.UnmarshalTypeError
		if errors.As(err, &unmarshalErr) {
			WriteError(w, dErrors.Newf(dErrors.CodeBadRequest, "invalid field %q", unmarshalErr.Field))
			return false
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return false
	}
	return true
}
