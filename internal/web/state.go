package web

import (
	"sync"

	"user-management-app/internal/entity"
)

// UserList is the list a visitor sees. It is filled from the API on page
// load and afterwards only changed locally after successful calls, so it
// can drift from the store when other clients write.
type UserList struct {
	mu    sync.RWMutex
	users []entity.User
}

// NewUserList shows fetched users in reverse order.
func NewUserList(fetched []entity.User) *UserList {
	users := make([]entity.User, len(fetched))
	for i, u := range fetched {
		users[len(fetched)-1-i] = u
	}
	return &UserList{users: users}
}

// Users returns a copy of the current list.
func (l *UserList) Users() []entity.User {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]entity.User(nil), l.users...)
}

// Prepend puts a newly created user first.
func (l *UserList) Prepend(u entity.User) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.users = append([]entity.User{u}, l.users...)
}

// Patch overwrites name and email of the entry with id. It reports whether
// such an entry exists.
func (l *UserList) Patch(id int, name, email string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	found := false
	for i := range l.users {
		if l.users[i].ID == id {
			l.users[i].Name = name
			l.users[i].Email = email
			found = true
		}
	}
	return found
}

// Remove drops every entry with id.
func (l *UserList) Remove(id int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.users[:0]
	for _, u := range l.users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	removed := len(kept) != len(l.users)
	l.users = kept
	return removed
}
