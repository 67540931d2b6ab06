package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/ariefcatur/go-coffee-orders/internal/notify"
	"github.com/ariefcatur/go-coffee-orders/internal/shop"
	"github.com/go-chi/chi/v5"
)

// Inbox reads the notifications delivered to a customer.
type Inbox interface {
	Inbox(ctx context.Context, email string) ([]notify.Message, error)
}

type ShopHandler struct {
	Engine   *shop.Engine
	Sessions *Sessions
	Limiter  *RateLimiter // optional; guards sign-up, sign-in and checkout
	Inbox    Inbox        // optional; nil leaves /notifications unrouted
}

type addItemReq struct {
	ItemID         int                 `json:"id"`
	Quantity       int                 `json:"quantity"`
	Customizations *shop.Customization `json:"customizations"`
}

type quantityReq struct {
	Delta int `json:"delta"`
}

type registerReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type signInReq struct {
	Email      string          `json:"email"`
	Durability shop.Durability `json:"durability"`
}

type cartView struct {
	Lines     []shop.CartLine        `json:"items"`
	ItemCount int                    `json:"itemCount"`
	Summary   shop.Summary           `json:"summary"`
	Reward    *shop.RewardDefinition `json:"appliedReward,omitempty"`
	Customer  *shop.Customer         `json:"customer,omitempty"`
}

type rewardsView struct {
	Rewards []shop.RewardDefinition `json:"rewards"`
	Points  int                     `json:"points"`
	Applied *shop.RewardDefinition  `json:"appliedReward,omitempty"`
}

func viewCart(s *shop.Session) cartView {
	v := cartView{Lines: s.Cart.Lines(), ItemCount: s.Cart.ItemCount(), Summary: s.Summary()}
	if v.Lines == nil {
		v.Lines = []shop.CartLine{}
	}
	if c, ok := s.Customer(); ok {
		v.Customer = &c
		if r, ok := s.Ledger().Applied(); ok {
			v.Reward = &r
		}
	}
	return v
}

func (h *ShopHandler) Register(r chi.Router) {
	r.Get("/menu", h.listMenu)

	r.Get("/cart", h.getCart)
	r.Post("/cart/items", h.addItem)
	r.Post("/cart/preview", h.previewLine)
	r.Patch("/cart/lines/{index}", h.updateQuantity)
	r.Delete("/cart/lines/{index}", h.removeLine)

	limited := r.With()
	if h.Limiter != nil {
		limited = r.With(h.Limiter.Limit)
	}

	limited.Post("/customers", h.registerCustomer)
	r.Get("/session", h.getSession)
	limited.Post("/session", h.signIn)
	r.Delete("/session", h.signOut)

	r.Get("/rewards", h.listRewards)
	r.Post("/rewards/{id}/redeem", h.redeemReward)
	r.Delete("/rewards/{id}", h.removeReward)

	limited.Post("/checkout", h.checkout)
	r.Get("/orders", h.orderHistory)

	if h.Inbox != nil {
		r.Get("/notifications", h.notifications)
	}
}

func (h *ShopHandler) listMenu(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Engine.Catalog().Filter(strings.ToLower(r.URL.Query().Get("category"))))
}

// withSession runs fn on the caller's session and writes its error, if any.
func (h *ShopHandler) withSession(w http.ResponseWriter, r *http.Request, fn func(*shop.Session) error) {
	id := sessionID(w, r)
	if err := h.Sessions.Do(r.Context(), id, fn); err != nil {
		fail(w, err)
	}
}

func (h *ShopHandler) getCart(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *shop.Session) error {
		writeJSON(w, http.StatusOK, viewCart(s))
		return nil
	})
}

func (h *ShopHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemReq
	if !decode(w, r, &req) {
		return
	}
	h.withSession(w, r, func(s *shop.Session) error {
		var err error
		if req.Customizations == nil {
			_, err = h.Engine.AddQuickItem(r.Context(), s, req.ItemID, req.Quantity)
		} else {
			_, err = h.Engine.AddCustomizedItem(r.Context(), s, req.ItemID, req.Quantity, *req.Customizations)
		}
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusCreated, viewCart(s))
		return nil
	})
}

func (h *ShopHandler) previewLine(w http.ResponseWriter, r *http.Request) {
	var req addItemReq
	if !decode(w, r, &req) {
		return
	}
	var cz shop.Customization
	if req.Customizations != nil {
		cz = *req.Customizations
	}
	line, err := h.Engine.PreviewLine(req.ItemID, req.Quantity, cz)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"line": line, "lineTotal": line.LineTotal()})
}

func (h *ShopHandler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	idx, ok := intParam(w, r, "index")
	if !ok {
		return
	}
	var req quantityReq
	if !decode(w, r, &req) {
		return
	}
	h.withSession(w, r, func(s *shop.Session) error {
		if idx < 0 || idx >= s.Cart.Len() {
			return shop.ErrNotFound
		}
		h.Engine.UpdateQuantity(r.Context(), s, idx, req.Delta)
		writeJSON(w, http.StatusOK, viewCart(s))
		return nil
	})
}

func (h *ShopHandler) removeLine(w http.ResponseWriter, r *http.Request) {
	idx, ok := intParam(w, r, "index")
	if !ok {
		return
	}
	h.withSession(w, r, func(s *shop.Session) error {
		if idx < 0 || idx >= s.Cart.Len() {
			return shop.ErrNotFound
		}
		h.Engine.RemoveLine(r.Context(), s, idx)
		writeJSON(w, http.StatusOK, viewCart(s))
		return nil
	})
}

func (h *ShopHandler) registerCustomer(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if !decode(w, r, &req) {
		return
	}
	c, err := h.Engine.Register(r.Context(), req.Name, req.Email)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *ShopHandler) getSession(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *shop.Session) error {
		c, ok := s.Customer()
		if !ok {
			c = shop.Customer{Name: shop.GuestName, Email: shop.GuestEmail}
		}
		writeJSON(w, http.StatusOK, map[string]any{"signedIn": ok, "customer": c})
		return nil
	})
}

func (h *ShopHandler) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInReq
	if !decode(w, r, &req) {
		return
	}
	h.withSession(w, r, func(s *shop.Session) error {
		c, err := h.Engine.SignIn(r.Context(), s, req.Email, req.Durability)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, c)
		return nil
	})
}

func (h *ShopHandler) signOut(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *shop.Session) error {
		if err := h.Engine.SignOut(r.Context(), s); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	})
}

func (h *ShopHandler) listRewards(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *shop.Session) error {
		v := rewardsView{Rewards: h.Engine.Rewards()}
		if c, ok := s.Customer(); ok {
			v.Points = c.Points
			if a, ok := s.Ledger().Applied(); ok {
				v.Applied = &a
			}
		}
		writeJSON(w, http.StatusOK, v)
		return nil
	})
}

func (h *ShopHandler) redeemReward(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	h.withSession(w, r, func(s *shop.Session) error {
		if _, err := h.Engine.RedeemReward(r.Context(), s, id); err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, viewCart(s))
		return nil
	})
}

func (h *ShopHandler) removeReward(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	h.withSession(w, r, func(s *shop.Session) error {
		if _, err := h.Engine.RemoveReward(r.Context(), s, id); err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, viewCart(s))
		return nil
	})
}

func (h *ShopHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var p shop.Payment
	if !decode(w, r, &p) {
		return
	}
	h.withSession(w, r, func(s *shop.Session) error {
		o, err := h.Engine.Checkout(r.Context(), s, p)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusCreated, o)
		return nil
	})
}

func (h *ShopHandler) orderHistory(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *shop.Session) error {
		orders, err := h.Engine.OrderHistory(r.Context(), s)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, orders)
		return nil
	})
}

func (h *ShopHandler) notifications(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *shop.Session) error {
		c, ok := s.Customer()
		if !ok {
			return shop.ErrNotSignedIn
		}
		msgs, err := h.Inbox.Inbox(r.Context(), c.Email)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, msgs)
		return nil
	})
}
