package httpx

import (
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-coffee-orders/internal/admin"
	"github.com/go-chi/chi/v5"
)

const (
	recentOrders = 5
	topSelling   = 5
)

type AdminHandler struct {
	Admin *admin.Service
}

type editPriceReq struct {
	Price int64 `json:"price"`
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Get("/stats", h.stats)
		r.Get("/top-selling", h.topSelling)

		r.Get("/orders", h.listOrders)
		r.Get("/orders/recent", h.recentOrders)
		r.Get("/orders/{id}", h.getOrder)
		r.Post("/orders/{id}/advance", h.advanceOrder)
		r.Delete("/orders/{id}", h.deleteOrder)

		r.Get("/customers", h.listCustomers)
		r.Get("/customers/{email}", h.getCustomer)
		r.Delete("/customers/{email}", h.deleteCustomer)

		r.Get("/menu", h.listMenu)
		r.Post("/menu", h.addMenuItem)
		r.Patch("/menu/{id}", h.editMenuItem)
		r.Delete("/menu/{id}", h.deleteMenuItem)
	})
}

func (h *AdminHandler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Admin.Stats(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *AdminHandler) topSelling(w http.ResponseWriter, r *http.Request) {
	n := topSelling
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		n = v
	}
	items, err := h.Admin.TopSelling(r.Context(), n)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *AdminHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Admin.FilterOrders(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *AdminHandler) recentOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Admin.RecentOrders(r.Context(), recentOrders)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *AdminHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Admin.Order(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *AdminHandler) advanceOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Admin.AdvanceStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *AdminHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.Admin.DeleteOrder(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) listCustomers(w http.ResponseWriter, r *http.Request) {
	cs, err := h.Admin.Customers(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *AdminHandler) getCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.Admin.Customer(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *AdminHandler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.Admin.DeleteCustomer(r.Context(), chi.URLParam(r, "email")); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) listMenu(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Admin.Menu().Items())
}

func (h *AdminHandler) addMenuItem(w http.ResponseWriter, r *http.Request) {
	var req admin.NewItem
	if !decode(w, r, &req) {
		return
	}
	it, err := h.Admin.AddMenuItem(r.Context(), req)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (h *AdminHandler) editMenuItem(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var req editPriceReq
	if !decode(w, r, &req) {
		return
	}
	it, err := h.Admin.EditMenuItemPrice(r.Context(), id, req.Price)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *AdminHandler) deleteMenuItem(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	h.Admin.DeleteMenuItem(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}
