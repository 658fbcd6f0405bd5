package progress

import "github.com/abhisek/lessonplayer/internal/exploration"

// Subscribe returns a channel carrying the latest EphemeralState after every
// committed change. Slow readers only see the most recent value. The
// channel is closed when the session stops or cancel is called.
func (c *Controller) Subscribe() (<-chan EphemeralState, func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	if s == nil {
		return nil, nil, exploration.InvalidState("Cannot subscribe when no exploration is being played.")
	}
	id := c.nextSub
	c.nextSub++
	ch := make(chan EphemeralState, 1)
	c.subs[id] = ch
	ch <- c.render(s.deck, s.checkpointState)

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if ch, ok := c.subs[id]; ok {
			close(ch)
			delete(c.subs, id)
		}
	}
	return ch, cancel, nil
}

// publish delivers the current state to every subscriber, replacing any
// value a subscriber has not read yet.
func (c *Controller) publish() {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	if s == nil || len(c.subs) == 0 {
		return
	}
	es := c.render(s.deck, s.checkpointState)
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- es
	}
}
