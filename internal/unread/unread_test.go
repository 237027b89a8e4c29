package unread

import (
	"testing"

	"github.com/noteduco342/OMMessenger-sync/internal/models"
)

func TestApplySnapshotZeroFillsKnownKeys(t *testing.T) {
	c := New()
	peer7 := models.DirectKey(7)
	peer9 := models.DirectKey(9)

	// UI currently shows peer7: 0, peer9: 2.
	c.Clear(peer7)
	c.Increment(peer9)
	c.Increment(peer9)

	// Sparse snapshot only mentions peer7.
	c.ApplySnapshot(map[models.ConvKey]int{peer7: 3}, []models.ConvKey{peer7, peer9})

	if got := c.Count(peer7); got != 3 {
		t.Errorf("peer7 = %d, want 3", got)
	}
	if got := c.Count(peer9); got != 0 {
		t.Errorf("peer9 = %d, want 0 (absent from snapshot must be zeroed)", got)
	}
}

func TestApplySnapshotZeroFillsPriorCounts(t *testing.T) {
	c := New()
	stale := models.GroupKey(3)
	c.Increment(stale)

	c.ApplySnapshot(map[models.ConvKey]int{models.DirectKey(1): 1}, nil)

	if got := c.Count(stale); got != 0 {
		t.Errorf("key known only from prior counts = %d, want 0", got)
	}
	all := c.All()
	if _, ok := all[stale]; !ok {
		t.Error("zeroed key should remain explicitly present")
	}
}

func TestApplySnapshotClampsNegative(t *testing.T) {
	c := New()
	key := models.DirectKey(1)
	c.ApplySnapshot(map[models.ConvKey]int{key: -4}, nil)
	if got := c.Count(key); got != 0 {
		t.Errorf("negative snapshot value = %d, want clamped 0", got)
	}
}

func TestIncrementAndClear(t *testing.T) {
	c := New()
	key := models.GroupKey(8)

	if got := c.Increment(key); got != 1 {
		t.Errorf("first increment = %d, want 1", got)
	}
	if got := c.Increment(key); got != 2 {
		t.Errorf("second increment = %d, want 2", got)
	}
	c.Clear(key)
	if got := c.Count(key); got != 0 {
		t.Errorf("after clear = %d, want 0", got)
	}
}
