package shop

// Session is the state of one storefront visitor: their cart and, once
// signed in, their customer record and reward ledger. Guests have no
// ledger. A Session is not safe for concurrent use.
type Session struct {
	ID   string
	Cart Cart

	customer   *Customer
	ledger     *Ledger
	durability Durability
}

func NewSession(id string) *Session { return &Session{ID: id} }

func (s *Session) SignedIn() bool { return s.customer != nil }

// Customer returns the signed-in customer with the current balance.
func (s *Session) Customer() (Customer, bool) {
	if s.customer == nil {
		return Customer{}, false
	}
	c := *s.customer
	c.Points = s.ledger.Balance()
	return c, true
}

// Ledger is nil for guests.
func (s *Session) Ledger() *Ledger { return s.ledger }

func (s *Session) Durability() Durability { return s.durability }

// Summary prices the cart as it stands now.
func (s *Session) Summary() Summary { return Summarize(s.Cart.lines, s.ledger) }

func (s *Session) signIn(c Customer, d Durability) {
	s.customer = &c
	s.ledger = NewLedger(c.Points)
	s.durability = d
}

func (s *Session) signOut() {
	s.customer = nil
	s.ledger = nil
	s.durability = ""
	s.Cart.Clear()
}
