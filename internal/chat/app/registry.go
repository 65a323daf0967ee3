package app

import (
	"sync"

	"smart_cycle_market/pkg/logger"

	"go.uber.org/zap"
)

// Channel one live, writable client connection
type Channel interface {
	ID() string
	Send(v interface{}) error
	Close() error
}

// channelSet channels of one identity; dead once emptied and dropped from the registry
type channelSet struct {
	mu       sync.RWMutex
	channels map[string]Channel
	dead     bool
}

// ChannelRegistry identity -> active channels, process local
type ChannelRegistry struct {
	mu     sync.RWMutex
	sets   map[string]*channelSet
	owners map[string]string
	closed bool
}

// NewChannelRegistry create an empty registry
func NewChannelRegistry() *ChannelRegistry {
	return &ChannelRegistry{
		sets:   make(map[string]*channelSet),
		owners: make(map[string]string),
	}
}

// Register adds ch under memberID, registering the same channel twice is a no-op.
// After Close the channel is closed instead.
func (r *ChannelRegistry) Register(memberID string, ch Channel) {
	for {
		set := r.setFor(memberID)
		if set == nil {
			logger.Log.Debug("registry closed, dropping channel", zap.String("memberID", memberID), zap.String("channel", ch.ID()))
			_ = ch.Close()
			return
		}

		// lock order is set.mu then r.mu, nothing takes them the other way round
		set.mu.Lock()
		if set.dead {
			// raced with the last Unregister of this identity, fetch the fresh set
			set.mu.Unlock()
			continue
		}
		r.mu.Lock()
		if r.sets[memberID] != set {
			// detached by Close
			r.mu.Unlock()
			set.mu.Unlock()
			continue
		}
		set.channels[ch.ID()] = ch
		r.owners[ch.ID()] = memberID
		r.mu.Unlock()
		set.mu.Unlock()

		logger.Log.Debug("channel registered", zap.String("memberID", memberID), zap.String("channel", ch.ID()))
		return
	}
}

// Unregister removes ch from its identity, unknown channels are ignored
func (r *ChannelRegistry) Unregister(ch Channel) {
	r.mu.Lock()
	memberID, ok := r.owners[ch.ID()]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.owners, ch.ID())
	set := r.sets[memberID]
	r.mu.Unlock()

	if set == nil {
		return
	}

	set.mu.Lock()
	delete(set.channels, ch.ID())
	empty := len(set.channels) == 0
	if empty {
		set.dead = true
	}
	set.mu.Unlock()

	if empty {
		r.mu.Lock()
		if r.sets[memberID] == set {
			delete(r.sets, memberID)
		}
		r.mu.Unlock()
	}

	logger.Log.Debug("channel unregistered", zap.String("memberID", memberID), zap.String("channel", ch.ID()))
}

// Deliver sends payload to every channel of memberID and returns how many accepted it.
// Failures are logged only.
func (r *ChannelRegistry) Deliver(memberID string, payload interface{}) int {
	r.mu.RLock()
	set := r.sets[memberID]
	r.mu.RUnlock()

	if set == nil {
		return 0
	}

	// read lock held while sending so Unregister waits for in flight sends.
	// A stalled recipient holds it for at most sendWait per channel, which
	// also delays Register/Unregister of that identity and the sender's read loop.
	set.mu.RLock()
	defer set.mu.RUnlock()

	delivered := 0
	for id, ch := range set.channels {
		if err := ch.Send(payload); err != nil {
			logger.Log.Warn("deliver failed", zap.String("memberID", memberID), zap.String("channel", id), zap.Error(err))
			continue
		}
		delivered++
	}
	return delivered
}

// Count active channels of memberID
func (r *ChannelRegistry) Count(memberID string) int {
	r.mu.RLock()
	set := r.sets[memberID]
	r.mu.RUnlock()

	if set == nil {
		return 0
	}

	set.mu.RLock()
	defer set.mu.RUnlock()
	return len(set.channels)
}

// Close closes and drops every channel
func (r *ChannelRegistry) Close() {
	r.mu.Lock()
	sets := r.sets
	r.sets = make(map[string]*channelSet)
	r.owners = make(map[string]string)
	r.closed = true
	r.mu.Unlock()

	for memberID, set := range sets {
		set.mu.Lock()
		for id, ch := range set.channels {
			if err := ch.Close(); err != nil {
				logger.Log.Warn("close channel", zap.String("memberID", memberID), zap.String("channel", id), zap.Error(err))
			}
		}
		set.channels = map[string]Channel{}
		set.dead = true
		set.mu.Unlock()
	}
}

// setFor finds or creates the set of memberID, nil once the registry is closed
func (r *ChannelRegistry) setFor(memberID string) *channelSet {
	r.mu.RLock()
	set, ok := r.sets[memberID]
	r.mu.RUnlock()
	if ok {
		return set
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	if set, ok = r.sets[memberID]; ok {
		return set
	}
	set = &channelSet{channels: make(map[string]Channel)}
	r.sets[memberID] = set
	return set
}
