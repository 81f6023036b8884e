package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"voxscribe/internal/domain"
	"voxscribe/internal/middleware"
)

const maxWebhookBytes = 64 << 10

type tokenPackageDTO struct {
	Tokens      int64  `json:"tokens"`
	Label       string `json:"label"`
	Price       string `json:"price"`
	AmountCents int64  `json:"amount_cents"`
	Bonus       string `json:"bonus,omitempty"`
	Popular     bool   `json:"popular"`
}

type purchaseRequest struct {
	Tokens int64 `json:"tokens"`
}

type creditRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

type purchaseDTO struct {
	PaymentIntentID string     `json:"payment_intent_id"`
	Tokens          int64      `json:"tokens"`
	AmountCents     int64      `json:"amount_cents"`
	Currency        string     `json:"currency"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	CreditedAt      *time.Time `json:"credited_at,omitempty"`
}

type creditDTO struct {
	PaymentIntentID string `json:"payment_intent_id"`
	TokensAdded     int64  `json:"tokens_added"`
	Balance         int64  `json:"balance"`
	AlreadyApplied  bool   `json:"already_applied"`
}

func newCreditDTO(res *domain.CreditResult) creditDTO {
	return creditDTO{
		PaymentIntentID: res.PaymentIntentID,
		TokensAdded:     res.TokensAdded,
		Balance:         res.Balance,
		AlreadyApplied:  res.AlreadyApplied,
	}
}

// BillingPackages lists the catalogue with labels in the caller's locale.
func (a *App) BillingPackages(w http.ResponseWriter, r *http.Request) {
	tag := middleware.LanguageFromContext(r.Context())
	pkgs := a.Billing.Packages()
	out := make([]tokenPackageDTO, 0, len(pkgs))
	for _, p := range pkgs {
		out = append(out, tokenPackageDTO{
			Tokens:      p.Tokens,
			Label:       p.Label(tag),
			Price:       p.Price.StringFixed(2),
			AmountCents: p.AmountCents(),
			Bonus:       p.Bonus,
			Popular:     p.Popular,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": out})
}

func (a *App) BillingPaymentIntent(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var req purchaseRequest
	if !a.decode(w, r, &req) {
		return
	}
	pi, err := a.Billing.StartPurchase(r.Context(), sess, req.Tokens)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]any{
		"id":            pi.ID,
		"client_secret": pi.ClientSecret,
		"tokens":        pi.Tokens,
		"amount_cents":  pi.AmountCents,
		"currency":      pi.Currency,
	})
}

func (a *App) BillingCheckout(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var req purchaseRequest
	if !a.decode(w, r, &req) {
		return
	}
	cs, err := a.Billing.StartCheckout(r.Context(), sess, req.Tokens)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]string{"id": cs.ID, "url": cs.URL})
}

// BillingCredit applies a confirmed payment. Repeating the call for the same
// intent reports already_applied and leaves the balance alone.
func (a *App) BillingCredit(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var req creditRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.PaymentIntentID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "payment_intent_id required")
		return
	}
	res, err := a.Billing.ConfirmPurchase(r.Context(), sess, req.PaymentIntentID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, newCreditDTO(res))
}

func (a *App) BillingPurchases(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	items, err := a.Billing.History(r.Context(), sess)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]purchaseDTO, 0, len(items))
	for _, p := range items {
		out = append(out, purchaseDTO{
			PaymentIntentID: p.PaymentIntentID,
			Tokens:          p.Tokens,
			AmountCents:     p.AmountCents,
			Currency:        p.Currency,
			Status:          string(p.Status),
			CreatedAt:       p.CreatedAt,
			CreditedAt:      p.CreditedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": out})
}

// BillingWebhook receives gateway events. Signature failures answer 400 so
// the gateway does not keep retrying a forged request.
func (a *App) BillingWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "unreadable body")
		return
	}
	res, err := a.Billing.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			a.error(w, http.StatusBadRequest, "invalid_signature", "signature verification failed")
			return
		}
		a.fail(w, r, err)
		return
	}
	resp := map[string]any{"received": true}
	if res != nil {
		resp["credit"] = newCreditDTO(res)
	}
	a.json(w, http.StatusOK, resp)
}
