package checkout

// Session is the identity attached to a request: Authenticated or Anonymous.
type Session interface {
	isSession()
}

type Authenticated struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

type Anonymous struct{}

func (Authenticated) isSession() {}
func (Anonymous) isSession()     {}

// AsAuthenticated unwraps s. It reports false for Anonymous and nil.
func AsAuthenticated(s Session) (Authenticated, bool) {
	switch v := s.(type) {
	case Authenticated:
		return v, true
	case *Authenticated:
		if v != nil {
			return *v, true
		}
	}
	return Authenticated{}, false
}
