package service

// Actor is the authenticated caller on whose behalf a service acts.
type Actor struct {
	UserID  uint64
	Email   string
	IsAdmin bool
}

// CanManage reports whether the actor may change a resource owned by ownerID.
func (a Actor) CanManage(ownerID uint64) bool {
	return a.IsAdmin || (a.UserID != 0 && a.UserID == ownerID)
}
