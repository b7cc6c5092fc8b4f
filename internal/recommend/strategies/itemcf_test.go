// Shoprec - Hybrid Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package strategies

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shoprec/internal/recommend"
)

func newTestItemCF(fp *fakeProvider, minCommon int) *ItemToItemCF {
	cfg := recommend.DefaultConfig().ItemCF
	cfg.MinCommonUsers = minCommon
	return NewItemToItemCF(cfg, fp, zerolog.Nop())
}

func TestItemCF_CoPurchaseSimilarity(t *testing.T) {
	fp := newFakeProvider()
	fp.addEvents(recommend.EventPurchase,
		[2]string{"u1", "X"}, [2]string{"u1", "Y"},
		[2]string{"u2", "X"}, [2]string{"u2", "Y"},
		[2]string{"u3", "X"},
	)

	s := newTestItemCF(fp, 2)
	ctx := context.Background()
	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	want := 2.0 / 3.0
	if got := s.Similarity("X", "Y"); math.Abs(got-want) > 1e-9 {
		t.Errorf("Similarity(X, Y) = %v, want %v", got, want)
	}
	if got := s.Similarity("Y", "X"); math.Abs(got-want) > 1e-9 {
		t.Errorf("Similarity(Y, X) = %v, want %v", got, want)
	}

	got, err := s.Recommend(ctx, "u9", recommend.Context{ItemID: "X"})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if ids := candidateIDs(got); !reflect.DeepEqual(ids, []string{"Y"}) {
		t.Errorf("neighbours of X = %v, want [Y]", ids)
	}
	if got[0].Reason != reasonBoughtTogether {
		t.Errorf("reason = %q, want %q", got[0].Reason, reasonBoughtTogether)
	}
}

func TestItemCF_MinCommonUsers(t *testing.T) {
	fp := newFakeProvider()
	fp.addEvents(recommend.EventPurchase,
		[2]string{"u1", "X"}, [2]string{"u1", "Y"},
		[2]string{"u2", "X"}, [2]string{"u2", "Y"},
	)

	s := newTestItemCF(fp, 3)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if got := s.Similarity("X", "Y"); got != 0 {
		t.Errorf("pair below minimum stored with similarity %v", got)
	}
	if st := s.Status(); st.IndexSize != 0 {
		t.Errorf("IndexSize = %d, want 0", st.IndexSize)
	}
}

func basketProvider() *fakeProvider {
	fp := newFakeProvider()
	// Four users buy overlapping baskets from A..E.
	fp.addEvents(recommend.EventPurchase,
		[2]string{"u1", "A"}, [2]string{"u1", "B"}, [2]string{"u1", "C"},
		[2]string{"u2", "A"}, [2]string{"u2", "B"}, [2]string{"u2", "D"},
		[2]string{"u3", "A"}, [2]string{"u3", "C"}, [2]string{"u3", "D"},
		[2]string{"u4", "B"}, [2]string{"u4", "C"}, [2]string{"u4", "E"},
		[2]string{"u5", "A"}, [2]string{"u5", "B"},
	)
	return fp
}

func TestItemCF_Symmetry(t *testing.T) {
	s := newTestItemCF(basketProvider(), 1)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	ix := s.index.load().value
	for a, row := range ix.sims {
		for b, sim := range row {
			if back := ix.sims[b][a]; back != sim {
				t.Errorf("sim(%s,%s) = %v but sim(%s,%s) = %v", a, b, sim, b, a, back)
			}
			if sim <= 0 || sim > 1 {
				t.Errorf("sim(%s,%s) = %v outside (0,1]", a, b, sim)
			}
		}
	}
}

func TestItemCF_IdempotentRefresh(t *testing.T) {
	s := newTestItemCF(basketProvider(), 1)
	ctx := context.Background()

	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	first := s.index.load().value

	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	second := s.index.load().value

	if first == second {
		t.Fatal("refresh should install a new index value")
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("rebuilding from unchanged data produced a different index")
	}
}

func TestItemCF_UserHistoryExcludesOwnedItems(t *testing.T) {
	fp := basketProvider()
	// u5 has also viewed C; viewed items count as owned.
	fp.addEvents(recommend.EventView, [2]string{"u5", "C"})

	s := newTestItemCF(fp, 1)
	got, err := s.Recommend(context.Background(), "u5", recommend.Context{})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(got) == 0 {
		t.Fatal("expected history-based recommendations")
	}

	owned := map[string]bool{"A": true, "B": true, "C": true}
	for _, c := range got {
		if owned[c.ItemID] {
			t.Errorf("owned item %s recommended", c.ItemID)
		}
		if c.Reason != reasonPurchaseHistory {
			t.Errorf("reason = %q, want %q", c.Reason, reasonPurchaseHistory)
		}
	}

	// D co-occurs with both A and B; E only with B.
	if got[0].ItemID != "D" {
		t.Errorf("top candidate = %s, want D", got[0].ItemID)
	}
}

func TestItemCF_ViewFallbackAndColdStart(t *testing.T) {
	fp := basketProvider()
	fp.addEvents(recommend.EventView, [2]string{"viewer", "E"})

	s := newTestItemCF(fp, 1)
	ctx := context.Background()

	got, err := s.Recommend(ctx, "viewer", recommend.Context{})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	for _, c := range got {
		if c.ItemID == "E" {
			t.Error("viewed item E recommended back")
		}
	}
	if len(got) == 0 {
		t.Error("views should seed history when the user has no purchases")
	}

	got, err = s.Recommend(ctx, "nobody", recommend.Context{})
	if err != nil || len(got) != 0 {
		t.Errorf("cold start: got %v, %v; want empty, nil", got, err)
	}
}
