package labeling

import (
	"context"
	"errors"
	"testing"
	"time"

	"TrendRadar/internal/domain/models"
)

func signalAt(price float64, tf string) *models.BuySignal {
	return &models.BuySignal{
		Symbol:     "TEST",
		Timeframe:  tf,
		EntryDate:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EntryPrice: price,
		Stage:      models.StageBuy,
		StopLoss:   price * 0.9,
	}
}

func forwardCloses(closes ...float64) []models.Bar {
	bars := make([]models.Bar, len(closes))
	base := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = models.Bar{Timestamp: base.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	return bars
}

func TestLabelSuccessOnTarget(t *testing.T) {
	l := NewLabeler(nil)
	// Daily target is 5%; the close reaches 106.
	got, err := l.Label(context.Background(), signalAt(100, "daily"), forwardCloses(101, 102, 103, 104, 106))
	if err != nil {
		t.Fatalf("label: %v", err)
	}
	if got.Outcome != models.OutcomeSuccess {
		t.Fatalf("expected success, got %v", got.Outcome)
	}
	if got.BarsHeld != 5 {
		t.Fatalf("expected resolution on bar 5, got %d", got.BarsHeld)
	}
	if got.TargetPct != 0.05 {
		t.Fatalf("daily target must be 5%%, got %v", got.TargetPct)
	}
}

func TestLabelFailureOnStop(t *testing.T) {
	l := NewLabeler(nil)
	got, err := l.Label(context.Background(), signalAt(100, "daily"), forwardCloses(99, 97, 94, 91, 88))
	if err != nil {
		t.Fatalf("label: %v", err)
	}
	if got.Outcome != models.OutcomeFailure {
		t.Fatalf("expected failure, got %v", got.Outcome)
	}
	if got.Gain > -0.10 {
		t.Fatalf("failure gain must be at or below the stop, got %v", got.Gain)
	}
}

func TestLabelOpenPositiveAtHistoryEnd(t *testing.T) {
	l := NewLabeler(nil)
	got, err := l.Label(context.Background(), signalAt(100, "daily"), forwardCloses(100.5, 100.2, 100.8, 100.4, 101))
	if err != nil {
		t.Fatalf("label: %v", err)
	}
	if got.Outcome != models.OutcomeSuccess {
		t.Fatalf("an open position with positive gain resolves success, got %v", got.Outcome)
	}
}

func TestLabelOpenNegativeExcluded(t *testing.T) {
	l := NewLabeler(nil)
	_, err := l.Label(context.Background(), signalAt(100, "daily"), forwardCloses(100.5, 100.2, 99.8, 99.5, 99))
	if !errors.Is(err, models.ErrExcluded) {
		t.Fatalf("expected ErrExcluded, got %v", err)
	}
}

func TestLabelExactZeroGainExcluded(t *testing.T) {
	l := NewLabeler(nil)
	_, err := l.Label(context.Background(), signalAt(100, "daily"), forwardCloses(101, 99, 100.5, 99.5, 100))
	if !errors.Is(err, models.ErrExcluded) {
		t.Fatalf("gain of exactly 0.0 must be excluded, got %v", err)
	}
}

func TestLabelWeeklyTarget(t *testing.T) {
	l := NewLabeler(nil)
	// 6% is a daily win but not a weekly one.
	got, err := l.Label(context.Background(), signalAt(100, "weekly"), forwardCloses(102, 104, 106, 105, 106))
	if err != nil {
		t.Fatalf("label: %v", err)
	}
	if got.Outcome != models.OutcomeSuccess {
		t.Fatalf("open position ended positive, expected success")
	}
	if got.TargetPct != 0.08 {
		t.Fatalf("weekly target must be 8%%, got %v", got.TargetPct)
	}
	// It resolved at history end, not on the target.
	if got.BarsHeld != 5 {
		t.Fatalf("expected hold through all 5 bars, got %d", got.BarsHeld)
	}
}

func TestLabelInsufficientForward(t *testing.T) {
	l := NewLabeler(nil)
	_, err := l.Label(context.Background(), signalAt(100, "daily"), forwardCloses(101, 102))
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestLabelStopBeforeLaterRecovery(t *testing.T) {
	l := NewLabeler(nil)
	// The stop fires on bar 2 even though the series recovers later.
	got, err := l.Label(context.Background(), signalAt(100, "daily"), forwardCloses(95, 89, 100, 108, 110))
	if err != nil {
		t.Fatalf("label: %v", err)
	}
	if got.Outcome != models.OutcomeFailure {
		t.Fatalf("stop is terminal, got %v", got.Outcome)
	}
	if got.BarsHeld != 2 {
		t.Fatalf("expected resolution on bar 2, got %d", got.BarsHeld)
	}
}

func TestLabelRejectsBadEntry(t *testing.T) {
	l := NewLabeler(nil)
	if _, err := l.Label(context.Background(), signalAt(0, "daily"), forwardCloses(1, 2, 3, 4, 5)); !models.IsDataError(err) {
		t.Fatalf("expected DataError, got %v", err)
	}
}
