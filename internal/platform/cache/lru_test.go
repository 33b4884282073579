package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestMemo_GetSet(t *testing.T) {
	m := New(4, time.Minute)
	if _, ok := m.Get("a"); ok {
		t.Fatal("hit on empty cache")
	}
	m.Set("a", 1)
	v, ok := m.Get("a")
	if !ok || v.(int) != 1 {
		t.Fatalf("got %v, %t, want 1, true", v, ok)
	}
}

func TestMemo_EvictsLeastRecentlyUsed(t *testing.T) {
	m := New(2, time.Minute)
	m.Set("a", 1)
	m.Set("b", 2)
	m.Get("a") // a is now most recently used
	m.Set("c", 3)

	if _, ok := m.Get("b"); ok {
		t.Fatal("least recently used entry survived eviction")
	}
	if _, ok := m.Get("a"); !ok {
		t.Fatal("recently used entry was evicted")
	}
	if m.Len() != 2 {
		t.Fatalf("len = %d, want 2", m.Len())
	}
}

func TestMemo_SetExistingRefreshes(t *testing.T) {
	m := New(2, time.Minute)
	m.Set("a", 1)
	m.Set("a", 2)
	if m.Len() != 1 {
		t.Fatalf("len = %d, want 1", m.Len())
	}
	v, _ := m.Get("a")
	if v.(int) != 2 {
		t.Fatalf("got %v, want 2", v)
	}
}

func TestMemo_Expiration(t *testing.T) {
	m := New(4, 10*time.Millisecond)
	m.Set("a", 1)
	time.Sleep(20 * time.Millisecond)
	if _, ok := m.Get("a"); ok {
		t.Fatal("expired entry served")
	}
}

func TestMemo_ZeroCapacityDisables(t *testing.T) {
	m := New(0, time.Minute)
	m.Set("a", 1)
	if _, ok := m.Get("a"); ok {
		t.Fatal("zero-capacity cache stored an entry")
	}
}

func TestMemo_Clear(t *testing.T) {
	m := New(8, time.Minute)
	for i := 0; i < 5; i++ {
		m.Set(fmt.Sprintf("k%d", i), i)
	}
	m.Clear()
	if m.Len() != 0 {
		t.Fatalf("len after clear = %d", m.Len())
	}
}
