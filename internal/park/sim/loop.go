package sim

import (
	"context"
	"time"
)

func (p *Park) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var pendingEvents []Envelope
	var pendingJoins []JoinRequest
	var pendingLeaves []string

	for {
		select {
		case <-ctx.Done():
			p.closeAll()
			return ctx.Err()
		case <-p.stop:
			p.closeAll()
			return nil
		case req := <-p.join:
			pendingJoins = append(pendingJoins, req)
		case id := <-p.leave:
			pendingLeaves = append(pendingLeaves, id)
		case env := <-p.inbox:
			pendingEvents = append(pendingEvents, env)
		case <-ticker.C:
			p.stepInternal(pendingJoins, pendingLeaves, pendingEvents)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingEvents = pendingEvents[:0]
		}
	}
}

func (p *Park) Stop() { close(p.stop) }

// StepOnce advances the park by a single tick using the same ordering as
// Run. It is meant for replays and tests.
func (p *Park) StepOnce(joins []JoinRequest, leaves []string, events []Envelope) (tick uint64, digest string) {
	tick = p.tick.Load()
	p.stepInternal(joins, leaves, events)
	return tick, p.stateDigest(tick)
}

// closeAll removes every tool preview so no ghost outlives the loop.
func (p *Park) closeAll() {
	for _, id := range append([]string(nil), p.order...) {
		p.removeSession(id)
	}
}

// clock is the deterministic time used for tool animation at a tick.
func (p *Park) clock(tick uint64) time.Time {
	return p.epoch.Add(time.Duration(tick) * p.interval)
}

func sendLatest(ch chan []byte, b []byte) {
	if ch == nil {
		return
	}
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
