package model

import "time"

type BaseModel struct {
	ID        string    `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Actor is the already-authenticated caller of an operation. A zero Actor is an anonymous
// public reader.
type Actor struct {
	UserID  string
	IsAdmin bool
}

func (a Actor) IsAnonymous() bool {
	return a.UserID == ""
}

// CanManage reports whether the actor may mutate something owned by ownerID.
func (a Actor) CanManage(ownerID string) bool {
	return a.IsAdmin || (a.UserID != "" && a.UserID == ownerID)
}
