package featureflags

import "testing"

func TestEnabled_Switches(t *testing.T) {
	m := NewManager("a=on,b=off,c=TRUE,d=false,e=1,f=0")

	for _, name := range []string{"a", "c", "e"} {
		if !m.Enabled(name, 1) {
			t.Fatalf("%s should be on", name)
		}
	}
	for _, name := range []string{"b", "d", "f", "missing"} {
		if m.Enabled(name, 1) {
			t.Fatalf("%s should be off", name)
		}
	}
}

func TestEnabled_Rollout(t *testing.T) {
	m := NewManager("all=100%,none=0%,half=50%,over=250%")

	if !m.Enabled("all", 0) || !m.Enabled("over", 7) {
		t.Fatal("full rollout must be on for everyone")
	}
	if m.Enabled("none", 7) {
		t.Fatal("empty rollout must be off")
	}
	if m.Enabled("half", 0) {
		t.Fatal("partial rollout must exclude anonymous callers")
	}

	first := m.Enabled("half", 42)
	for i := 0; i < 5; i++ {
		if m.Enabled("half", 42) != first {
			t.Fatal("rollout must be stable per user")
		}
	}

	on := 0
	for id := uint(1); id <= 1000; id++ {
		if m.Enabled("half", id) {
			on++
		}
	}
	if on < 350 || on > 650 {
		t.Fatalf("50%% rollout enabled %d of 1000 users", on)
	}
}

func TestNewManager_SkipsMalformed(t *testing.T) {
	m := NewManager(" junk ,=on, x = on , y=maybe, z=abc% ,w=20%")

	snap := m.Snapshot(3)
	if len(snap) != 2 {
		t.Fatalf("expected 2 flags, got %#v", snap)
	}
	if !snap["x"] {
		t.Fatal("x should be on")
	}
}

func TestNilManager(t *testing.T) {
	var m *Manager
	if m.Enabled(TopicFeed, 1) {
		t.Fatal("nil manager enables nothing")
	}
}
