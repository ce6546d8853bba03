package domain

import "time"

// SessionState is the lifecycle of one resolved login.
//
//	Unauthenticated -> Authenticating -> Active <-> Kicked
//	Active/Kicked -> LoggedOut (terminal, client returns to Unauthenticated)
type SessionState string

const (
	StateUnauthenticated SessionState = "unauthenticated"
	StateAuthenticating  SessionState = "authenticating"
	StateActive          SessionState = "active"
	StateKicked          SessionState = "kicked"
	StateLoggedOut       SessionState = "logged_out"
)

type SessionEventType string

const (
	EventLoginStarted SessionEventType = "login_started"
	// EventSnapshot carries the latest identity record from the directory
	// store; the transition decides Active vs Kicked from it.
	EventSnapshot   SessionEventType = "snapshot"
	EventSuperseded SessionEventType = "superseded"
	EventLogout     SessionEventType = "logout"
	EventStoreError SessionEventType = "store_error"
)

type SessionEvent struct {
	Type     SessionEventType
	Identity *Identity
	Now      time.Time
}

// Transition is the explicit state-transition function for a session.
// It is pure: no subscriptions, timers or writes happen here.
func Transition(state SessionState, ev SessionEvent) SessionState {
	switch state {
	case StateLoggedOut:
		return StateLoggedOut
	case StateUnauthenticated:
		if ev.Type == EventLoginStarted {
			return StateAuthenticating
		}
		return state
	}

	switch ev.Type {
	case EventSuperseded, EventLogout, EventStoreError:
		return StateLoggedOut
	case EventSnapshot:
		if ev.Identity == nil {
			return StateLoggedOut
		}
		if ev.Identity.Banned(ev.Now) {
			return StateKicked
		}
		return StateActive
	}
	return state
}

// RenderModel is everything a rendering collaborator needs to draw one
// session. It is derived from state, never mutated in place.
type RenderModel struct {
	State       SessionState `json:"state"`
	Key         string       `json:"key,omitempty"`
	DisplayName string       `json:"displayName,omitempty"`
	Symbols     []string     `json:"symbols,omitempty"`
	AvatarURL   string       `json:"avatarUrl,omitempty"`
	Theme       Theme        `json:"theme,omitempty"`
	Role        Role         `json:"role,omitempty"`
	UnlockAt    *time.Time   `json:"unlockAt,omitempty"`
}

// Render derives the view of a session from its state and current record.
// In the kicked state only the unlock time is exposed.
func Render(state SessionState, identity *Identity, symbols []string) RenderModel {
	switch state {
	case StateKicked:
		m := RenderModel{State: state}
		if identity != nil {
			m.UnlockAt = identity.BannedUntil
		}
		return m
	case StateActive:
		return RenderModel{
			State:       state,
			Key:         identity.Key,
			DisplayName: identity.DisplayName,
			Symbols:     symbols,
			AvatarURL:   identity.AvatarURL,
			Theme:       identity.Theme,
			Role:        identity.Role,
		}
	default:
		return RenderModel{State: state}
	}
}
