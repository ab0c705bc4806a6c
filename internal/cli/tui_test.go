package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m LockModel, keys ...string) LockModel {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(LockModel)
	}
	return m
}

func TestLockModelNavigation(t *testing.T) {
	m := NewLockModel(chainLock())
	m.Height = 2

	m = press(m, "down", "down", "down")
	if m.Cursor != 3 || m.Offset != 2 {
		t.Errorf("cursor=%d offset=%d, want 3 and 2", m.Cursor, m.Offset)
	}
	m = press(m, "up", "up", "up", "up", "up")
	if m.Cursor != 0 || m.Offset != 0 {
		t.Errorf("cursor=%d offset=%d after scrolling back", m.Cursor, m.Offset)
	}
	m = press(m, "k")
	if m.Cursor != 0 {
		t.Error("cursor moved above the first row")
	}
}

func TestLockModelDetail(t *testing.T) {
	m := NewLockModel(chainLock())
	m = press(m, "j", "enter")
	if m.Detail == nil || m.Detail.Name != "actionpack" {
		t.Fatalf("enter should open actionpack, got %+v", m.Detail)
	}

	view := m.View()
	for _, want := range []string{"actionpack 7.1.2", "Depends on", "rack", "Required by", "rails"} {
		if !strings.Contains(view, want) {
			t.Errorf("detail view missing %q:\n%s", want, view)
		}
	}

	// Navigation keys are ignored in the detail view.
	m = press(m, "down")
	if m.Cursor != 1 {
		t.Errorf("cursor moved in detail view: %d", m.Cursor)
	}

	m = press(m, "esc")
	if m.Detail != nil {
		t.Error("esc should return to the list")
	}
	if !strings.Contains(m.View(), "Locked Gems") {
		t.Error("list view expected after esc")
	}
}

func TestLockModelQuit(t *testing.T) {
	m := NewLockModel(chainLock())
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}
