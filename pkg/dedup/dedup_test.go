package dedup

import (
	"testing"
	"time"
)

func TestDeduper_ShouldProcess(t *testing.T) {
	clock := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	d := New(time.Minute, 10)
	d.now = func() time.Time { return clock }

	if !d.ShouldProcess("a") {
		t.Fatal("first delivery dropped")
	}
	if d.ShouldProcess("a") {
		t.Error("redelivery within ttl processed")
	}
	if !d.ShouldProcess("") {
		t.Error("empty key dropped")
	}

	clock = clock.Add(2 * time.Minute)
	if !d.ShouldProcess("a") {
		t.Error("key still remembered after ttl")
	}
}

func TestDeduper_Payload(t *testing.T) {
	d := New(time.Minute, 10)
	p := []byte(`{"field_id":"field_1","soilN":0.2}`)
	if !d.ShouldProcessPayload(p) {
		t.Fatal("first payload dropped")
	}
	if d.ShouldProcessPayload(append([]byte(nil), p...)) {
		t.Error("identical payload processed twice")
	}
	if !d.ShouldProcessPayload([]byte(`{"field_id":"field_1","soilN":0.3}`)) {
		t.Error("different payload dropped")
	}
	if KeyOf(p) != KeyOf(p) || len(KeyOf(p)) != 64 {
		t.Errorf("KeyOf not a stable sha256 hex: %s", KeyOf(p))
	}
}

func TestDeduper_Bounded(t *testing.T) {
	clock := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	d := New(time.Hour, 3)
	d.now = func() time.Time { return clock }
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		d.ShouldProcess(k)
		clock = clock.Add(time.Second)
	}
	if n := d.Len(); n > 3 {
		t.Errorf("Len() = %d, want <= 3", n)
	}
	if d.ShouldProcess("e") {
		t.Error("most recent key evicted")
	}
}

func TestDeduper_Nil(t *testing.T) {
	var d *Deduper
	if !d.ShouldProcess("x") {
		t.Error("nil deduper must process everything")
	}
}
