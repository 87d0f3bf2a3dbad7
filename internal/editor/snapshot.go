package editor

import (
	"time"

	"banner-creator/internal/banner"
	"banner-creator/internal/bridge"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notice is a transient message for the user. It disappears once ExpiresAt
// has passed.
type Notice struct {
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Snapshot is a read-only copy of a session.
type Snapshot struct {
	ID         string            `json:"id"`
	Config     banner.Config     `json:"config"`
	Prompt     string            `json:"prompt,omitempty"`
	Citations  []bridge.Citation `json:"citations,omitempty"`
	Generating bool              `json:"generating"`
	Exporting  bool              `json:"exporting"`
	CanUndo    bool              `json:"canUndo"`
	Notices    []Notice          `json:"notices,omitempty"`
}

func (e *Editor) snapshotLocked(st *state) Snapshot {
	now := e.now()
	live := st.notices[:0]
	for _, n := range st.notices {
		if now.Before(n.ExpiresAt) {
			live = append(live, n)
		}
	}
	st.notices = live

	snap := Snapshot{
		ID:        st.id,
		Config:    st.cfg,
		Prompt:    st.prompt,
		Citations: append([]bridge.Citation(nil), st.citations...),
		Exporting: st.exporter.Busy(),
		CanUndo:   e.history.Len(st.id) > 0,
		Notices:   append([]Notice(nil), live...),
	}
	if st.generating.TryAcquire(1) {
		st.generating.Release(1)
	} else {
		snap.Generating = true
	}
	return snap
}

func (e *Editor) noticeLocked(st *state, level Level, msg string) {
	st.notices = append(st.notices, Notice{Level: level, Message: msg, ExpiresAt: e.now().Add(e.noticeFor)})
}

// notify raises a notice on the session if it still exists.
func (e *Editor) notify(id string, level Level, msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.sessions[id]; ok {
		e.noticeLocked(st, level, msg)
	}
}
