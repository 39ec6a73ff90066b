// Package learner identifies who is calling the gateway.
//
// Identity is owned by the upstream API: the gateway only verifies the learner's
// token and forwards it, so a Learner carries the raw token next to its claims.
package learner

// Learner the caller of a progress or navigation operation
type Learner struct {
	ID    string
	Email string
	Name  string
	Token string // raw bearer token, forwarded to the upstream API
}

// Anonymous returns the learner used for requests without a valid token
func Anonymous() *Learner {
	return &Learner{}
}

// Authenticated reports whether the learner presented a verified token
func (l *Learner) Authenticated() bool {
	return l != nil && l.ID != "" && l.Token != ""
}
