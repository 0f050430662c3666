package continuum

import "testing"

func TestFromPropertiesHappyPath(t *testing.T) {
	props := map[string]string{
		"TOTAL_SERVERS":     "10",
		"POINTS_PER_SERVER": "100",
		"RESERVE_FACTOR":    "2.0",
	}
	shards := map[string]string{
		"10.0.0.1:80": "1000000",
		"10.0.0.2:80": "2000000",
	}

	cfg, err := FromProperties(props, shards, nil)
	if err != nil {
		t.Fatalf("FromProperties: %v", err)
	}
	if cfg.DeclaredServerCount != 10 {
		t.Fatalf("DeclaredServerCount = %d, want 10", cfg.DeclaredServerCount)
	}
	if cfg.ShardsPerEntry != 100 {
		t.Fatalf("ShardsPerEntry = %d, want 100", cfg.ShardsPerEntry)
	}
	if cfg.ReserveFactor != 2.0 {
		t.Fatalf("ReserveFactor = %v, want 2.0", cfg.ReserveFactor)
	}
	if len(cfg.Shards) != 2 {
		t.Fatalf("Shards = %v, want 2 entries", cfg.Shards)
	}
}

func TestFromPropertiesMissingRequiredKey(t *testing.T) {
	_, err := FromProperties(map[string]string{"POINTS_PER_SERVER": "100"}, nil, nil)
	if err == nil {
		t.Fatalf("FromProperties without TOTAL_SERVERS should fail")
	}
}

func TestFromPropertiesDefaultsReserveFactor(t *testing.T) {
	cfg, err := FromProperties(map[string]string{
		"TOTAL_SERVERS":     "5",
		"POINTS_PER_SERVER": "50",
	}, nil, nil)
	if err != nil {
		t.Fatalf("FromProperties: %v", err)
	}
	if cfg.ReserveFactor != DefaultReserveFactor {
		t.Fatalf("ReserveFactor = %v, want default %v", cfg.ReserveFactor, DefaultReserveFactor)
	}
}

func TestFromPropertiesSkipsUnparseableShardKeys(t *testing.T) {
	props := map[string]string{"TOTAL_SERVERS": "5", "POINTS_PER_SERVER": "50"}
	shards := map[string]string{
		"not-an-endpoint": "123",
		"10.0.0.1:80":     "1000",
	}
	cfg, err := FromProperties(props, shards, nil)
	if err != nil {
		t.Fatalf("FromProperties: %v", err)
	}
	if len(cfg.Shards) != 1 {
		t.Fatalf("Shards = %v, want only the valid entry", cfg.Shards)
	}
}
