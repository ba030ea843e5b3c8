package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/picobox/cinema-reservation/internal/model"
)

// SweepInterval is the default cadence of the expiry sweeper.
const SweepInterval = 60 * time.Second

// Sweeper periodically reclaims expired seat holds, fails pending
// reservations past their deadline, and retires tickets of screenings
// already underway.  It runs as an independent
// background task over the same stores as the request paths; every
// item is processed on its own, so one bad row is logged and skipped
// rather than aborting the batch.  A sweep with nothing expired is a
// no-op.
type Sweeper struct {
	engine   *Engine
	interval time.Duration
	stop     chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

// NewSweeper returns a Sweeper over the engine.  A non-positive
// interval falls back to SweepInterval.
func NewSweeper(engine *Engine, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = SweepInterval
	}
	return &Sweeper{engine: engine, interval: interval, stop: make(chan struct{})}
}

// Start launches the background loop.  Calling Start twice is a no-op.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.wg.Add(1)
	go s.loop()
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()
	close(s.stop)
	s.wg.Wait()
}

func (s *Sweeper) loop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			released, failed, used := s.SweepOnce(context.Background())
			if released > 0 || failed > 0 || used > 0 {
				log.Printf("sweeper: released %d expired holds, failed %d stale reservations, marked %d tickets used", released, failed, used)
			}
		case <-s.stop:
			return
		}
	}
}

// SweepOnce runs one sweep and reports how many holds were released,
// how many pending reservations were failed, and how many tickets of
// started screenings moved to USED.  Exposed so the loop and the tests
// share the same path.
func (s *Sweeper) SweepOnce(ctx context.Context) (released, failed, used int) {
	now := s.engine.now()

	// Pass 1: reclaim lapsed holds.  The expiry filter is re-checked
	// by the write itself, so a seat confirmed between read and write
	// simply no longer matches and is skipped.
	keys, err := s.engine.Seats.ExpiredHolds(ctx, now)
	if err != nil {
		log.Printf("sweeper: expired hold scan failed: %v", err)
	} else {
		for _, key := range keys {
			ok, err := s.engine.Seats.ReleaseExpired(ctx, key, now)
			if err != nil {
				log.Printf("sweeper: release failed: screening_id=%d seat_id=%d err=%v", key.ScreeningID, key.SeatID, err)
				continue
			}
			if ok {
				released++
			}
		}
	}

	// Pass 2: fail pending reservations past their deadline, releasing
	// their RESERVED seats and refunding the point debit.  Seats are
	// touched only when this sweep won the PENDING -> FAILED guard: a
	// reservation confirmed between the scan and the write belongs to
	// the confirm, which is about to mark its seats SOLD.
	stale, err := s.engine.Reservations.ExpiredPending(ctx, now)
	if err != nil {
		log.Printf("sweeper: stale reservation scan failed: %v", err)
		return released, failed, used
	}
	for i := range stale {
		res := &stale[i]
		tickets, err := s.engine.Reservations.Tickets(ctx, res.ID)
		if err != nil {
			log.Printf("sweeper: ticket load failed: reservation_id=%d err=%v", res.ID, err)
			continue
		}
		won, err := s.engine.failPending(ctx, res)
		if err != nil {
			log.Printf("sweeper: fail pending failed: reservation_id=%d err=%v", res.ID, err)
			continue
		}
		if !won {
			continue
		}
		for _, t := range tickets {
			if err := s.engine.Seats.ReleaseToAvailable(ctx, t.ScreeningID, t.SeatID, model.SeatReserved); err != nil {
				log.Printf("sweeper: seat release failed: screening_id=%d seat_id=%d err=%v", t.ScreeningID, t.SeatID, err)
			}
		}
		failed++
	}

	// Pass 3: once a screening has been running for ten minutes its
	// entry window is closed, so remaining ISSUED tickets become USED.
	n, err := s.engine.Reservations.MarkTicketsUsed(ctx, now.Add(-10*time.Minute))
	if err != nil {
		log.Printf("sweeper: ticket used update failed: %v", err)
	} else {
		used = int(n)
	}
	return released, failed, used
}
