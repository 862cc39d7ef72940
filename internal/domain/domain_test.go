package domain

import (
	"encoding/json"
	"testing"
)

func TestCloneIsIndependent(t *testing.T) {
	l := NewLedger()
	l.CompletedLevels = []int{1}
	l.LevelScores[1] = 100
	l.Cosmetics.OwnedItems = []string{"badge_bronze"}

	c := l.Clone()
	c.CompletedLevels = append(c.CompletedLevels, 2)
	c.LevelScores[1] = 999
	c.Cosmetics.OwnedItems = append(c.Cosmetics.OwnedItems, "frame_neon")

	if len(l.CompletedLevels) != 1 || l.LevelScores[1] != 100 || len(l.Cosmetics.OwnedItems) != 1 {
		t.Errorf("mutating a clone must not touch the original: %+v", l)
	}
}

func TestLedgerJSONShape(t *testing.T) {
	data, err := json.Marshal(NewLedger())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{"currentStage", "completedLevels", "levelScores", "totalScore", "xp", "healthPotions", "cosmetics"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("persisted document missing key %q", key)
		}
	}
}

func TestLevelTopologyIsConsistent(t *testing.T) {
	if len(Levels) != 30 {
		t.Fatalf("expected 30 levels, got %d", len(Levels))
	}
	seen := map[int]bool{}
	for _, stage := range Stages {
		for _, id := range stage.Levels {
			if seen[id] {
				t.Errorf("level %d assigned to more than one stage", id)
			}
			seen[id] = true
			level, ok := LevelByID(id)
			if !ok {
				t.Fatalf("stage %d references unknown level %d", stage.ID, id)
			}
			if level.Stage != stage.ID {
				t.Errorf("level %d claims stage %d but is listed under %d", id, level.Stage, stage.ID)
			}
		}
	}
	if len(seen) != len(Levels) {
		t.Errorf("expected every level reachable from a stage, got %d", len(seen))
	}
}

func TestStageLevelsUnknownStage(t *testing.T) {
	if got := StageLevels(99); got != nil {
		t.Errorf("expected nil for unknown stage, got %v", got)
	}
}

func TestCosmeticCatalogEquipValues(t *testing.T) {
	for _, item := range CosmeticItems {
		if item.Cost <= 0 {
			t.Errorf("item %s has non-positive cost", item.ID)
		}
		if item.Value == "" || item.Value == CosmeticNone {
			t.Errorf("item %s has no usable equip value", item.ID)
		}
	}
	if _, ok := CosmeticItemByID("badge_gold"); !ok {
		t.Error("expected badge_gold in catalog")
	}
	if _, ok := CosmeticItemByID("no_such_item"); ok {
		t.Error("unexpected catalog hit for unknown id")
	}
}

func TestRankFromScore(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, "Beginner"},
		{999, "Beginner"},
		{1000, "Bronze Coder"},
		{3000, "Silver Developer"},
		{6000, "Gold Engineer"},
		{10000, "Diamond Architect"},
		{25000, "Legendary Master"},
	}
	for _, tt := range tests {
		if got := RankFromScore(tt.score); got.Name != tt.want {
			t.Errorf("RankFromScore(%d) = %q, want %q", tt.score, got.Name, tt.want)
		}
	}
}
