package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"voltcity/internal/models"
)

type fakeLedger struct {
	mu          sync.Mutex
	balances    map[int64]int64
	creditFails int
	creditCalls int
}

func newFakeLedger(balances map[int64]int64) *fakeLedger {
	return &fakeLedger{balances: balances}
}

func (f *fakeLedger) Balance(_ context.Context, accountID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	balance, ok := f.balances[accountID]
	if !ok {
		return 0, models.ErrAccountNotFound
	}
	return balance, nil
}

func (f *fakeLedger) Debit(_ context.Context, accountID int64, amountMinor int64) (int64, error) {
	if amountMinor <= 0 {
		return 0, models.ErrInvalidAmount
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	balance, ok := f.balances[accountID]
	if !ok {
		return 0, models.ErrAccountNotFound
	}
	if balance < amountMinor {
		return 0, models.ErrInsufficientFunds
	}
	f.balances[accountID] = balance - amountMinor
	return f.balances[accountID], nil
}

func (f *fakeLedger) Credit(ctx context.Context, accountID int64, amountMinor int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if amountMinor <= 0 {
		return 0, models.ErrInvalidAmount
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creditCalls++
	if f.creditFails > 0 {
		f.creditFails--
		return 0, errors.New("storage unreachable")
	}
	balance, ok := f.balances[accountID]
	if !ok {
		return 0, models.ErrAccountNotFound
	}
	f.balances[accountID] = balance + amountMinor
	return f.balances[accountID], nil
}

func (f *fakeLedger) balanceOf(accountID int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[accountID]
}

type fakeRegistry struct {
	mu       sync.Mutex
	stations map[int64]*models.Station
	// claimErr forces the next Available->Occupied transition to fail.
	claimErr error
	// raceOnce makes the first transition fail with a state mismatch and
	// flips the station as if a concurrent actor won.
	raceOnce  bool
	raceState models.StationStatus
}

func newFakeRegistry(stations ...*models.Station) *fakeRegistry {
	reg := &fakeRegistry{stations: make(map[int64]*models.Station)}
	for _, s := range stations {
		copied := *s
		reg.stations[s.ID] = &copied
	}
	return reg
}

func (f *fakeRegistry) GetByID(_ context.Context, stationID int64) (*models.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	station, ok := f.stations[stationID]
	if !ok {
		return nil, models.ErrStationNotFound
	}
	copied := *station
	return &copied, nil
}

func (f *fakeRegistry) List(_ context.Context) ([]models.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Station
	for _, s := range f.stations {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeRegistry) Stats(_ context.Context) (*models.StationStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &models.StationStats{}
	for _, s := range f.stations {
		stats.Total++
		switch s.Status {
		case models.StationAvailable:
			stats.Available++
		case models.StationOccupied:
			stats.Occupied++
		case models.StationOffline:
			stats.Offline++
		}
	}
	return stats, nil
}

func (f *fakeRegistry) Transition(_ context.Context, stationID int64, expected, next models.StationStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	station, ok := f.stations[stationID]
	if !ok {
		return models.ErrStationNotFound
	}
	if f.claimErr != nil && expected == models.StationAvailable && next == models.StationOccupied {
		return f.claimErr
	}
	if f.raceOnce {
		f.raceOnce = false
		station.Status = f.raceState
		return models.ErrStateMismatch
	}
	if station.Status != expected {
		return models.ErrStateMismatch
	}
	station.Status = next
	return nil
}

func (f *fakeRegistry) statusOf(stationID int64) models.StationStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stations[stationID].Status
}

type fakeTxLog struct {
	mu  sync.Mutex
	txs []models.Transaction
}

func (f *fakeTxLog) Append(_ context.Context, tx *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txs = append(f.txs, *tx)
	return nil
}

func (f *fakeTxLog) ListByAccount(_ context.Context, accountID int64, limit int) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Transaction
	for i := len(f.txs) - 1; i >= 0; i-- {
		if f.txs[i].AccountID == accountID {
			out = append(out, f.txs[i])
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeTxLog) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.txs)
}

type fakeSink struct {
	mu     sync.Mutex
	events []models.StationStatus
}

func (f *fakeSink) StationChanged(_ int64, _ string, status models.StationStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, status)
}

func availableStation(id int64) *models.Station {
	return &models.Station{
		ID:            id,
		Name:          "Downtown Plaza Charge",
		Status:        models.StationAvailable,
		Power:         "120kW",
		ConnectorType: "DC Fast",
	}
}

func fixedService(ledger AccountLedger, registry StationRegistry, txLog TransactionLog, sink StationEventSink) *ChargeService {
	return NewChargeService(ChargeDeps{
		Ledger:   ledger,
		Registry: registry,
		TxLog:    txLog,
		Pricing:  FixedPricing{AmountMinor: 1550, EnergyKWh: 25},
		Events:   sink,
	})
}

func TestStartChargeSuccess(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{1: 30000})
	registry := newFakeRegistry(availableStation(7))
	txLog := &fakeTxLog{}
	sink := &fakeSink{}
	svc := fixedService(ledger, registry, txLog, sink)

	tx, err := svc.StartCharge(context.Background(), StartChargeInput{AccountID: 1, StationID: 7})
	if err != nil {
		t.Fatalf("start charge: %v", err)
	}
	if tx.ID == "" {
		t.Fatalf("expected transaction id to be set")
	}
	if tx.AmountMinor != 1550 {
		t.Fatalf("expected amount 1550, got %d", tx.AmountMinor)
	}
	if tx.EnergyQuantity != 25 || tx.EnergyUnit != models.EnergyUnitKWh {
		t.Fatalf("unexpected energy: %v %s", tx.EnergyQuantity, tx.EnergyUnit)
	}
	if tx.StationName != "Downtown Plaza Charge" {
		t.Fatalf("unexpected station name %q", tx.StationName)
	}
	if got := ledger.balanceOf(1); got != 28450 {
		t.Fatalf("expected balance 28450, got %d", got)
	}
	if got := registry.statusOf(7); got != models.StationOccupied {
		t.Fatalf("expected station occupied, got %s", got)
	}
	if txLog.count() != 1 {
		t.Fatalf("expected 1 recorded transaction, got %d", txLog.count())
	}
	if len(sink.events) != 1 || sink.events[0] != models.StationOccupied {
		t.Fatalf("expected one occupied event, got %v", sink.events)
	}
}

func TestStartChargeInsufficientFunds(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{1: 1000})
	registry := newFakeRegistry(availableStation(7))
	txLog := &fakeTxLog{}
	svc := fixedService(ledger, registry, txLog, nil)

	_, err := svc.StartCharge(context.Background(), StartChargeInput{AccountID: 1, StationID: 7})
	if !errors.Is(err, models.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if got := ledger.balanceOf(1); got != 1000 {
		t.Fatalf("balance changed on rejection: %d", got)
	}
	if got := registry.statusOf(7); got != models.StationAvailable {
		t.Fatalf("station changed on rejection: %s", got)
	}
	if txLog.count() != 0 {
		t.Fatalf("transaction recorded on rejection")
	}
}

func TestStartChargeStationOccupied(t *testing.T) {
	station := availableStation(7)
	station.Status = models.StationOccupied
	ledger := newFakeLedger(map[int64]int64{1: 30000})
	registry := newFakeRegistry(station)
	txLog := &fakeTxLog{}
	svc := fixedService(ledger, registry, txLog, nil)

	_, err := svc.StartCharge(context.Background(), StartChargeInput{AccountID: 1, StationID: 7})
	if !errors.Is(err, models.ErrStationUnavailable) {
		t.Fatalf("expected station unavailable, got %v", err)
	}
	if got := ledger.balanceOf(1); got != 30000 {
		t.Fatalf("balance changed on rejection: %d", got)
	}
	if txLog.count() != 0 {
		t.Fatalf("transaction recorded on rejection")
	}
}

func TestStartChargeUnknownStation(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{1: 30000})
	svc := fixedService(ledger, newFakeRegistry(), &fakeTxLog{}, nil)

	_, err := svc.StartCharge(context.Background(), StartChargeInput{AccountID: 1, StationID: 99})
	if !errors.Is(err, models.ErrStationNotFound) {
		t.Fatalf("expected station not found, got %v", err)
	}
	if got := ledger.balanceOf(1); got != 30000 {
		t.Fatalf("balance changed on rejection: %d", got)
	}
}

func TestStartChargeUnknownAccount(t *testing.T) {
	registry := newFakeRegistry(availableStation(7))
	svc := fixedService(newFakeLedger(map[int64]int64{}), registry, &fakeTxLog{}, nil)

	_, err := svc.StartCharge(context.Background(), StartChargeInput{AccountID: 42, StationID: 7})
	if !errors.Is(err, models.ErrAccountNotFound) {
		t.Fatalf("expected account not found, got %v", err)
	}
	if got := registry.statusOf(7); got != models.StationAvailable {
		t.Fatalf("station changed on rejection: %s", got)
	}
}

func TestStartChargeLostRaceCompensates(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{1: 30000})
	registry := newFakeRegistry(availableStation(7))
	registry.raceOnce = true
	registry.raceState = models.StationOccupied
	txLog := &fakeTxLog{}
	svc := fixedService(ledger, registry, txLog, nil)

	_, err := svc.StartCharge(context.Background(), StartChargeInput{AccountID: 1, StationID: 7})
	if !errors.Is(err, models.ErrStationUnavailable) {
		t.Fatalf("expected station unavailable after lost race, got %v", err)
	}
	if got := ledger.balanceOf(1); got != 30000 {
		t.Fatalf("expected balance restored to 30000, got %d", got)
	}
	if txLog.count() != 0 {
		t.Fatalf("transaction recorded for lost race")
	}
}

// cancelingRegistry cancels the request context while losing the claim, as a
// disconnecting client would.
type cancelingRegistry struct {
	*fakeRegistry
	cancel context.CancelFunc
}

func (c *cancelingRegistry) Transition(ctx context.Context, stationID int64, expected, next models.StationStatus) error {
	if expected == models.StationAvailable && next == models.StationOccupied {
		c.cancel()
		return models.ErrStateMismatch
	}
	return c.fakeRegistry.Transition(ctx, stationID, expected, next)
}

func TestCompensationSurvivesRequestCancellation(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{1: 30000})
	registry := newFakeRegistry(availableStation(7))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := fixedService(ledger, &cancelingRegistry{fakeRegistry: registry, cancel: cancel}, &fakeTxLog{}, nil)

	_, err := svc.StartCharge(ctx, StartChargeInput{AccountID: 1, StationID: 7})
	if !errors.Is(err, models.ErrStationUnavailable) {
		t.Fatalf("expected station unavailable, got %v", err)
	}
	if got := ledger.balanceOf(1); got != 30000 {
		t.Fatalf("expected balance restored despite canceled request, got %d", got)
	}
	if ledger.creditCalls != 1 {
		t.Fatalf("expected 1 credit attempt, got %d", ledger.creditCalls)
	}
}

func TestCompensationExhaustionStillRejects(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{1: 30000})
	ledger.creditFails = 10
	registry := newFakeRegistry(availableStation(7))
	registry.claimErr = models.ErrStateMismatch
	svc := NewChargeService(ChargeDeps{
		Ledger:               ledger,
		Registry:             registry,
		TxLog:                &fakeTxLog{},
		Pricing:              FixedPricing{AmountMinor: 1550, EnergyKWh: 25},
		CompensationAttempts: 2,
	})

	_, err := svc.StartCharge(context.Background(), StartChargeInput{AccountID: 1, StationID: 7})
	if !errors.Is(err, models.ErrStationUnavailable) {
		t.Fatalf("expected station unavailable, got %v", err)
	}
	if ledger.creditCalls != 3 {
		t.Fatalf("expected 3 credit attempts before giving up, got %d", ledger.creditCalls)
	}
	// The debit stands: this is the state the failed-compensation counter and
	// error log exist to surface.
	if got := ledger.balanceOf(1); got != 28450 {
		t.Fatalf("expected balance to remain debited at 28450, got %d", got)
	}
}

func TestCompensationRetriesTransientErrors(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{1: 30000})
	ledger.creditFails = 2
	registry := newFakeRegistry(availableStation(7))
	registry.claimErr = models.ErrStateMismatch
	svc := fixedService(ledger, registry, &fakeTxLog{}, nil)

	_, err := svc.StartCharge(context.Background(), StartChargeInput{AccountID: 1, StationID: 7})
	if !errors.Is(err, models.ErrStationUnavailable) {
		t.Fatalf("expected station unavailable, got %v", err)
	}
	if got := ledger.balanceOf(1); got != 30000 {
		t.Fatalf("expected balance restored after retried compensation, got %d", got)
	}
	if ledger.creditCalls != 3 {
		t.Fatalf("expected 3 credit attempts, got %d", ledger.creditCalls)
	}
}

func TestConcurrentChargesSingleWinner(t *testing.T) {
	const callers = 8

	balances := make(map[int64]int64, callers)
	for i := int64(1); i <= callers; i++ {
		balances[i] = 30000
	}
	ledger := newFakeLedger(balances)
	registry := newFakeRegistry(availableStation(7))
	txLog := &fakeTxLog{}
	svc := fixedService(ledger, registry, txLog, nil)

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = svc.StartCharge(context.Background(), StartChargeInput{
				AccountID: int64(n + 1),
				StationID: 7,
			})
		}(i)
	}
	wg.Wait()

	committed := 0
	for n, err := range errs {
		switch {
		case err == nil:
			committed++
			if got := ledger.balanceOf(int64(n + 1)); got != 28450 {
				t.Fatalf("winner %d balance = %d, want 28450", n+1, got)
			}
		case errors.Is(err, models.ErrStationUnavailable):
			if got := ledger.balanceOf(int64(n + 1)); got != 30000 {
				t.Fatalf("loser %d balance = %d, want 30000", n+1, got)
			}
		default:
			t.Fatalf("caller %d got unexpected error %v", n+1, err)
		}
	}
	if committed != 1 {
		t.Fatalf("expected exactly 1 committed charge, got %d", committed)
	}
	if txLog.count() != 1 {
		t.Fatalf("expected exactly 1 recorded transaction, got %d", txLog.count())
	}
	if got := registry.statusOf(7); got != models.StationOccupied {
		t.Fatalf("expected station occupied, got %s", got)
	}
}

func TestFinishChargeReleasesStation(t *testing.T) {
	station := availableStation(7)
	station.Status = models.StationOccupied
	registry := newFakeRegistry(station)
	sink := &fakeSink{}
	svc := fixedService(newFakeLedger(map[int64]int64{}), registry, &fakeTxLog{}, sink)

	released, err := svc.FinishCharge(context.Background(), 7)
	if err != nil {
		t.Fatalf("finish charge: %v", err)
	}
	if released.Status != models.StationAvailable {
		t.Fatalf("expected available, got %s", released.Status)
	}
	if got := registry.statusOf(7); got != models.StationAvailable {
		t.Fatalf("registry not released: %s", got)
	}
	if len(sink.events) != 1 || sink.events[0] != models.StationAvailable {
		t.Fatalf("expected one available event, got %v", sink.events)
	}
}

func TestFinishChargeRejectsIdleStation(t *testing.T) {
	registry := newFakeRegistry(availableStation(7))
	svc := fixedService(newFakeLedger(map[int64]int64{}), registry, &fakeTxLog{}, nil)

	_, err := svc.FinishCharge(context.Background(), 7)
	if !errors.Is(err, models.ErrStationUnavailable) {
		t.Fatalf("expected station unavailable, got %v", err)
	}
}

func TestTransactionIDsAreUnique(t *testing.T) {
	ledger := newFakeLedger(map[int64]int64{1: 1_000_000})
	txLog := &fakeTxLog{}

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		registry := newFakeRegistry(availableStation(int64(i + 1)))
		svc := fixedService(ledger, registry, txLog, nil)
		tx, err := svc.StartCharge(context.Background(), StartChargeInput{AccountID: 1, StationID: int64(i + 1)})
		if err != nil {
			t.Fatalf("charge %d: %v", i, err)
		}
		if seen[tx.ID] {
			t.Fatalf("duplicate transaction id %s", tx.ID)
		}
		seen[tx.ID] = true
	}
}

func TestObserveRejectionDoesNotPanic(t *testing.T) {
	svc := fixedService(newFakeLedger(nil), newFakeRegistry(), &fakeTxLog{}, nil)
	for _, err := range []error{
		models.ErrInsufficientFunds,
		models.ErrAccountNotFound,
		models.ErrInvalidAmount,
		models.ErrStationUnavailable,
		fmt.Errorf("wrapped: %w", models.ErrUnknownTariff),
		errors.New("plain"),
	} {
		svc.observeRejection(err)
	}
}
