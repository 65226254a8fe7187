package memory

import "context"

// AllowList grants privileges to a fixed set of actor IDs in every
// conversation.
type AllowList struct {
	admins map[string]struct{}
}

func NewAllowList(ids []string) *AllowList {
	admins := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		admins[id] = struct{}{}
	}
	return &AllowList{admins: admins}
}

func (a *AllowList) IsPrivileged(_ context.Context, actorID, _ string) (bool, error) {
	_, ok := a.admins[actorID]
	return ok, nil
}
