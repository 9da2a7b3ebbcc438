package db

import (
	"encoding/json"
	"testing"
)

func TestPoolStats_JSONFieldNames(t *testing.T) {
	stats := &PoolStats{
		TotalConns:    10,
		IdleConns:     5,
		AcquiredConns: 5,
		MaxConns:      20,
		AcquireCount:  100,
		AcquireWait:   "1.5s",
	}

	data, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{
		"total_conns", "idle_conns", "acquired_conns",
		"max_conns", "acquire_count", "acquire_wait",
	} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("expected JSON key %q", key)
		}
	}
	if decoded["max_conns"].(float64) != 20 {
		t.Errorf("expected max_conns 20, got %v", decoded["max_conns"])
	}
}
