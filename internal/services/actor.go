package services

// Actor is the caller as seen by the services: the pilot linked to the
// access token, and the admin flag read from the database.
type Actor struct {
	AuthUserID string
	PilotID    string
	PilotName  string
	IsAdmin    bool
	Service    bool
}

// Privileged reports whether the actor may act on other pilots' records.
func (a Actor) Privileged() bool {
	return a.IsAdmin || a.Service
}
