package activity

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestZerologSink_Record(t *testing.T) {
	var buf bytes.Buffer
	sink := NewZerologSink(zerolog.New(&buf))

	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	sink.Record(context.Background(), Event{
		Type:       EventAccepted,
		RequestID:  "r1",
		PetID:      "p1",
		PetOwnerID: "o1",
		ActorID:    "a1",
		Auto:       false,
		At:         at,
	})

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line not JSON: %v (%s)", err, buf.String())
	}
	if line["event"] != EventAccepted || line["request_id"] != "r1" || line["pet_id"] != "p1" {
		t.Fatalf("missing fields: %v", line)
	}
	if line["actor_id"] != "a1" || line["pet_owner_id"] != "o1" {
		t.Fatalf("missing actor/owner: %v", line)
	}
	if line["auto"] != false {
		t.Fatalf("auto flag: %v", line["auto"])
	}
}

func TestZerologSink_AutoFlag(t *testing.T) {
	var buf bytes.Buffer
	sink := NewZerologSink(zerolog.New(&buf))

	sink.Record(context.Background(), Event{Type: EventRejected, Auto: true, At: time.Now().UTC()})

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line not JSON: %v", err)
	}
	if line["auto"] != true {
		t.Fatalf("cascade event must carry auto=true: %v", line)
	}
}
