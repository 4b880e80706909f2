package usecase

import "testing"

func TestAssignBlocks(t *testing.T) {
	tests := []struct {
		name      string
		seq       int
		count     int
		wantStart int
		wantLen   int
	}{
		{name: "first contributor", seq: 0, count: 250, wantStart: 0, wantLen: 100},
		{name: "second contributor", seq: 1, count: 250, wantStart: 100, wantLen: 100},
		{name: "third contributor clipped", seq: 2, count: 250, wantStart: 200, wantLen: 50},
		{name: "fourth contributor empty", seq: 3, count: 250, wantLen: 0},
		{name: "exact boundary", seq: 1, count: 200, wantStart: 100, wantLen: 100},
		{name: "empty dataset", seq: 0, count: 0, wantLen: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Assign(tt.seq, tt.count, DefaultBatchSize)
			if len(got) != tt.wantLen {
				t.Fatalf("Assign(%d, %d) returned %d indices, want %d", tt.seq, tt.count, len(got), tt.wantLen)
			}
			if got == nil {
				t.Fatalf("Assign should never return nil")
			}
			for i, idx := range got {
				if idx != tt.wantStart+i {
					t.Fatalf("index %d = %d, want %d", i, idx, tt.wantStart+i)
				}
			}
		})
	}
}

func TestAssignBlocksAreDisjoint(t *testing.T) {
	seen := map[int]int{}
	for seq := 0; seq < 5; seq++ {
		for _, idx := range Assign(seq, 420, 100) {
			if prev, ok := seen[idx]; ok {
				t.Fatalf("index %d assigned to both %d and %d", idx, prev, seq)
			}
			seen[idx] = seq
		}
	}
	if len(seen) != 420 {
		t.Fatalf("expected every sentence assigned once, got %d", len(seen))
	}
}

func TestAssignDefaultsBatchSize(t *testing.T) {
	if got := Assign(0, 500, 0); len(got) != DefaultBatchSize {
		t.Fatalf("expected default batch size, got %d", len(got))
	}
}
