package tasks

import (
	"log"
	"time"

	"chatsync/internal/dispatch"

	"github.com/robfig/cron/v3"
)

// TypingSweeper periodically expires stale typing entries. The events are
// at-least-once, so a peer's typing=false toggle can be lost across a
// reconnect; without the sweep that peer would render as typing forever.
type TypingSweeper struct {
	dispatcher *dispatch.Dispatcher
	ttl        time.Duration
	cron       *cron.Cron
}

func NewTypingSweeper(d *dispatch.Dispatcher, ttl time.Duration) *TypingSweeper {
	return &TypingSweeper{
		dispatcher: d,
		ttl:        ttl,
		cron:       cron.New(),
	}
}

func (s *TypingSweeper) Start() {
	_, err := s.cron.AddFunc("@every 5s", func() {
		s.dispatcher.ExpireTyping(s.ttl)
	})
	if err != nil {
		log.Printf("[WORKER] Error scheduling typing sweep: %v", err)
		return
	}

	s.cron.Start()
	log.Printf("[WORKER] Typing sweeper started (ttl %s)", s.ttl)
}

func (s *TypingSweeper) Stop() {
	s.cron.Stop()
}
