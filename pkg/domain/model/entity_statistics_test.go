package model

import (
	"errors"
	"math"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestIDSet_AddIsIdempotent(t *testing.T) {
	s := NewIDSet()
	if !s.Add(3) {
		t.Error("first Add(3) should report insertion")
	}
	if s.Add(3) {
		t.Error("second Add(3) should not report insertion")
	}
	s.Add(1)
	s.Add(2)

	if got := s.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
	if !s.Contains(2) || s.Contains(4) {
		t.Error("Contains() mismatch")
	}
	if got := s.Members(); !slices.Equal(got, []int64{1, 2, 3}) {
		t.Errorf("Members() = %v, want [1 2 3]", got)
	}
}

func TestIDSet_ConcurrentAdd(t *testing.T) {
	s := NewIDSet()
	var wg sync.WaitGroup
	var inserted sync.Map

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := int64(0); id < 200; id++ {
				if s.Add(id) {
					if _, dup := inserted.LoadOrStore(id, true); dup {
						t.Errorf("id %d reported inserted twice", id)
					}
				}
			}
		}()
	}
	wg.Wait()

	if got := s.Len(); got != 200 {
		t.Errorf("Len() = %d, want 200", got)
	}
}

func TestMoney(t *testing.T) {
	tests := []struct {
		amount string
		cents  int64
	}{
		{"0", 0},
		{"0.004", 0},
		{"0.005", 1},
		{"10.50", 1050},
		{"19.999", 2000},
		{"1234567.89", 123456789},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got, err := AmountToCents(decimal.RequireFromString(tt.amount))
			if err != nil || got != tt.cents {
				t.Errorf("AmountToCents(%s) = %d, want %d", tt.amount, got, tt.cents)
			}
		})
	}

	if got := CentsToAmount(1050).StringFixed(2); got != "10.50" {
		t.Errorf("CentsToAmount(1050) = %s, want 10.50", got)
	}

	for _, raw := range []string{"100000000000000000", "92233720368547758.08"} {
		if _, err := AmountToCents(decimal.RequireFromString(raw)); !errors.Is(err, ErrAmountOutOfRange) {
			t.Errorf("AmountToCents(%s) error = %v, want ErrAmountOutOfRange", raw, err)
		}
	}
	if got, err := AmountToCents(decimal.RequireFromString("92233720368547758.07")); err != nil || got != math.MaxInt64 {
		t.Errorf("AmountToCents(max) = %d, %v", got, err)
	}
}

func TestRevenue_SaturatesInsteadOfWrapping(t *testing.T) {
	e := NewEntityStatistics(1, "", "")
	e.RecordPurchase(nil, math.MaxInt64-10, time.Now())
	e.RecordPurchase(nil, 100, time.Now())

	if got := e.TotalRevenueCents(); got != math.MaxInt64 {
		t.Errorf("TotalRevenueCents() = %d, want MaxInt64", got)
	}
	if got := e.PurchaseCount(); got != 2 {
		t.Errorf("PurchaseCount() = %d, want 2", got)
	}
}

func TestTimestamps_EpochAndFarFuture(t *testing.T) {
	epoch := time.Unix(0, 0).UTC()
	farFuture := time.Date(2500, 1, 1, 0, 0, 0, 0, time.UTC)

	e := NewEntityStatistics(1, "", "")
	e.RecordView(nil, epoch)
	if e.FirstSeenAt() == nil || !e.FirstSeenAt().Equal(epoch) {
		t.Errorf("FirstSeenAt() = %v, want epoch", e.FirstSeenAt())
	}
	e.RecordView(nil, farFuture)
	if !e.FirstSeenAt().Equal(epoch) {
		t.Errorf("FirstSeenAt() changed to %v", e.FirstSeenAt())
	}
	if e.LastViewedAt() == nil || !e.LastViewedAt().Equal(farFuture) {
		t.Errorf("LastViewedAt() = %v, want %v", e.LastViewedAt(), farFuture)
	}

	a := NewActorActivity(7)
	a.Touch(farFuture)
	if a.FirstActivityAt() == nil || a.FirstActivityAt().Year() != 2500 {
		t.Errorf("FirstActivityAt() = %v, want year 2500", a.FirstActivityAt())
	}
}

func TestEntityStatistics_UpdateMetadata(t *testing.T) {
	e := NewEntityStatistics(1, "Old", "books")

	e.UpdateMetadata("", "")
	if e.Title() != "Old" || e.Category() != "books" {
		t.Errorf("empty update changed metadata to (%q, %q)", e.Title(), e.Category())
	}

	e.UpdateMetadata("New", "")
	if e.Title() != "New" || e.Category() != "books" {
		t.Errorf("metadata = (%q, %q), want (New, books)", e.Title(), e.Category())
	}

	e.UpdateMetadata("", "music")
	if e.Title() != "New" || e.Category() != "music" {
		t.Errorf("metadata = (%q, %q), want (New, music)", e.Title(), e.Category())
	}
}

func TestEntityStatistics_Snapshot(t *testing.T) {
	at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	actor := int64(7)

	e := NewEntityStatistics(42, "Go 101", "tech")
	if snap := NewEntityStatisticsSnapshot(e); snap.FirstSeenAt != nil || snap.AverageRating != 0 {
		t.Errorf("fresh snapshot = %+v, want no timestamps and zero average", snap)
	}

	e.RecordView(&actor, at)
	e.RecordView(&actor, at.Add(time.Minute))
	e.RecordPurchase(&actor, 999, at.Add(2*time.Minute))
	e.RecordRating(3)
	e.RecordRating(4)
	e.AdjustRating(3, 5)

	snap := NewEntityStatisticsSnapshot(e)
	if snap.EntityID != 42 || snap.ViewCount != 2 || !slices.Equal(snap.UniqueViewers, []int64{7}) {
		t.Errorf("snapshot counts = %+v", snap)
	}
	if snap.TotalRevenue.StringFixed(2) != "9.99" {
		t.Errorf("TotalRevenue = %s, want 9.99", snap.TotalRevenue.StringFixed(2))
	}
	if snap.AverageRating != 4.5 {
		t.Errorf("AverageRating = %v, want 4.5", snap.AverageRating)
	}
	if snap.FirstSeenAt == nil || !snap.FirstSeenAt.Equal(at) {
		t.Errorf("FirstSeenAt = %v, want %v", snap.FirstSeenAt, at)
	}
	if snap.LastViewedAt == nil || !snap.LastViewedAt.Equal(at.Add(time.Minute)) {
		t.Errorf("LastViewedAt = %v, want %v", snap.LastViewedAt, at.Add(time.Minute))
	}
}

func TestParseSortKey(t *testing.T) {
	tests := []struct {
		raw     string
		want    SortKey
		wantErr bool
	}{
		{raw: "", want: SortByViews},
		{raw: " Revenue ", want: SortByRevenue},
		{raw: "downloads", want: SortByDownloads},
		{raw: "likes", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseSortKey(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSortKey(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSortKey(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeEventType(t *testing.T) {
	if got := NormalizeEventType("  Rating-Created "); got != EventTypeRatingCreated {
		t.Errorf("NormalizeEventType = %q, want %q", got, EventTypeRatingCreated)
	}
	if EventType("like").IsValid() {
		t.Error("like should not be a valid event type")
	}
}
