// Package dashboard holds the operator session and the read models served
// to the dashboard UI.
package dashboard

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/couchcryptid/trashrake-monitor/internal/domain"
)

// Theme is the UI colour scheme.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Page is the active dashboard tab.
type Page string

const (
	PageOverview Page = "overview"
	PageLog      Page = "log"
)

// State is the whole operator session. It is a value: transitions build a
// new State and never mutate the old one.
type State struct {
	Filter      domain.Criteria `json:"filter"`
	SelectedDay string          `json:"selected_day"`
	Audio       bool            `json:"audio_enabled"`
	Theme       Theme           `json:"theme"`
	Page        Page            `json:"page"`
}

// DefaultState is the session a freshly loaded dashboard starts with.
func DefaultState() State {
	return State{
		SelectedDay: domain.AllDays,
		Theme:       ThemeDark,
		Page:        PageOverview,
	}
}

// ActionType names a session transition.
type ActionType string

const (
	ActionSetStart       ActionType = "set_start"
	ActionSetEnd         ActionType = "set_end"
	ActionSetTrashFilter ActionType = "set_trash_filter"
	ActionSetLevelFilter ActionType = "set_level_filter"
	ActionResetFilters   ActionType = "reset_filters"
	ActionSelectDay      ActionType = "select_day"
	ActionSetAudio       ActionType = "set_audio"
	ActionToggleAudio    ActionType = "toggle_audio"
	ActionToggleTheme    ActionType = "toggle_theme"
	ActionSetPage        ActionType = "set_page"
)

// Action is one transition request from the UI.
type Action struct {
	Type  ActionType `json:"type"`
	Value string     `json:"value,omitempty"`
}

// Reduce applies a to s and returns the resulting state. An invalid action
// returns s unchanged together with an error.
func Reduce(s State, a Action) (State, error) {
	next := s
	switch a.Type {
	case ActionSetStart, ActionSetEnd, ActionSetTrashFilter, ActionSetLevelFilter:
		c, err := reduceFilter(s.Filter, a)
		if err != nil {
			return s, err
		}
		next.Filter = c
	case ActionResetFilters:
		next.Filter = domain.Criteria{}
	case ActionSelectDay:
		day, err := NormalizeDay(a.Value)
		if err != nil {
			return s, err
		}
		next.SelectedDay = day
	case ActionSetAudio:
		on, err := strconv.ParseBool(strings.TrimSpace(a.Value))
		if err != nil {
			return s, fmt.Errorf("audio value %q: %w", a.Value, err)
		}
		next.Audio = on
	case ActionToggleAudio:
		next.Audio = !s.Audio
	case ActionToggleTheme:
		if s.Theme == ThemeLight {
			next.Theme = ThemeDark
		} else {
			next.Theme = ThemeLight
		}
	case ActionSetPage:
		switch p := Page(strings.ToLower(strings.TrimSpace(a.Value))); p {
		case PageOverview, PageLog:
			next.Page = p
		default:
			return s, fmt.Errorf("unknown page %q", a.Value)
		}
	default:
		return s, fmt.Errorf("unknown action %q", a.Type)
	}
	return next, nil
}

// reduceFilter re-validates the criteria with one field replaced.
func reduceFilter(c domain.Criteria, a Action) (domain.Criteria, error) {
	start, end := c.Start, c.End
	detection, level := string(c.Detection), string(c.Level)
	switch a.Type {
	case ActionSetStart:
		start = a.Value
	case ActionSetEnd:
		end = a.Value
	case ActionSetTrashFilter:
		detection = a.Value
	case ActionSetLevelFilter:
		level = a.Value
	}
	return domain.ParseCriteria(start, end, detection, level)
}

// NormalizeDay validates a day selection: "all" (or empty), "DD-MM-YYYY"
// or "YYYY-MM-DD". Dates are returned as "YYYY-MM-DD" keys.
func NormalizeDay(v string) (string, error) {
	v = domain.NormalizeSelection(v)
	if v == domain.AllDays {
		return v, nil
	}
	key, err := domain.NormalizeDateKey(v)
	if err != nil {
		return "", fmt.Errorf("select day: %w", err)
	}
	return key, nil
}

// AudioSwitch receives audio preference changes.
type AudioSwitch interface {
	SetAudio(enabled bool)
}

// Session guards the live State and forwards audio changes to the alarm.
type Session struct {
	mu    sync.Mutex
	state State
	audio AudioSwitch
}

// NewSession creates a session starting from initial. The audio switch may
// be nil.
func NewSession(initial State, audio AudioSwitch) *Session {
	return &Session{state: initial, audio: audio}
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Apply reduces the current state with a and stores the result.
func (s *Session) Apply(a Action) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := Reduce(s.state, a)
	if err != nil {
		return s.state, err
	}
	if next.Audio != s.state.Audio && s.audio != nil {
		s.audio.SetAudio(next.Audio)
	}
	s.state = next
	return next, nil
}
