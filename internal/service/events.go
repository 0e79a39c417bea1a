package service

import (
	"log"
	"sync"
	"time"

	"github.com/albertelmo/goodlift-sub001/internal/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventPublisher receives record-change events after a successful commit.
// Publishing is fire-and-forget: it never blocks the caller for long and a
// consumer failure never propagates back into the record's own error path.
type EventPublisher interface {
	Publish(event domain.RecordEvent)
	Close()
}

// asyncEventPublisher fans events out to consumers on a background
// goroutine. When the buffer is full the event is dropped with a warning
// rather than stalling the request.
type asyncEventPublisher struct {
	events    chan domain.RecordEvent
	consumers []func(domain.RecordEvent)
	closeOnce sync.Once
	done      chan struct{}
}

// NewAsyncEventPublisher creates a publisher delivering to the given
// consumers in order. A logging consumer is always prepended so every
// event leaves a trace even with no external consumers wired.
func NewAsyncEventPublisher(consumers ...func(domain.RecordEvent)) EventPublisher {
	p := &asyncEventPublisher{
		events:    make(chan domain.RecordEvent, 256),
		consumers: append([]func(domain.RecordEvent){logConsumer}, consumers...),
		done:      make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *asyncEventPublisher) run() {
	defer close(p.done)
	for event := range p.events {
		for _, consume := range p.consumers {
			deliver(consume, event)
		}
	}
}

// deliver isolates one consumer call so a panicking consumer cannot take
// down the publisher loop.
func deliver(consume func(domain.RecordEvent), event domain.RecordEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("WARN: record event consumer panicked: %v", r)
		}
	}()
	consume(event)
}

func (p *asyncEventPublisher) Publish(event domain.RecordEvent) {
	select {
	case p.events <- event:
	default:
		log.Printf("WARN: record event buffer full, dropping %s for record %s", event.Action, event.RecordID.Hex())
	}
}

func (p *asyncEventPublisher) Close() {
	p.closeOnce.Do(func() {
		close(p.events)
		<-p.done
	})
}

func logConsumer(event domain.RecordEvent) {
	log.Printf("record event %s: action=%s owner=%s record=%s date=%s",
		event.EventID, event.Action, event.OwnerID.Hex(), event.RecordID.Hex(), event.Date)
}

// newRecordEvent stamps id and time on an outgoing event.
func newRecordEvent(ownerID, recordID primitive.ObjectID, action domain.RecordAction, date string) domain.RecordEvent {
	return domain.RecordEvent{
		EventID:    uuid.NewString(),
		OwnerID:    ownerID,
		RecordID:   recordID,
		Action:     action,
		Date:       date,
		OccurredAt: time.Now().UTC(),
	}
}
