package handlers

import (
	"maps"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

const listenerBufferSize = 100

type listener[T any] struct {
	id     string
	topics map[string]struct{}
	ch     chan T
}

func newListener[T any](id string, topics []string) *listener[T] {
	topicsMap := make(map[string]struct{})
	for _, topic := range topics {
		if t := formatTopic(topic); t != "" {
			topicsMap[t] = struct{}{}
		}
	}
	return &listener[T]{
		id:     id,
		topics: topicsMap,
		ch:     make(chan T, listenerBufferSize),
	}
}

// includesAny returns true if the listener subscribed to any of the given
// topics. A listener without topics is subscribed to everything.
func (l *listener[T]) includesAny(topics []string) bool {
	if len(l.topics) == 0 {
		return true
	}
	for _, topic := range topics {
		if _, ok := l.topics[formatTopic(topic)]; ok {
			return true
		}
	}
	return false
}

// broker fans out messages to the registered listeners according to their
// topics. It is safe for concurrent use.
type broker[T any] struct {
	lock      *sync.RWMutex
	listeners map[string]*listener[T]
}

func newBroker[T any]() *broker[T] {
	return &broker[T]{
		lock:      &sync.RWMutex{},
		listeners: make(map[string]*listener[T]),
	}
}

func (b *broker[T]) pushListener(l *listener[T]) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.listeners[l.id] = l
}

func (b *broker[T]) removeListener(id string) {
	b.lock.Lock()
	defer b.lock.Unlock()

	delete(b.listeners, id)
}

// publish delivers msg to every listener subscribed to any of the topics.
// Slow listeners whose buffer is full miss the message instead of blocking
// the others.
func (b *broker[T]) publish(msg T, topics []string) int {
	b.lock.RLock()
	defer b.lock.RUnlock()

	count := 0
	for _, l := range b.listeners {
		if !l.includesAny(topics) {
			continue
		}
		select {
		case l.ch <- msg:
			count++
		default:
			log.Warnf("listener %s is lagging behind, dropped message", l.id)
		}
	}
	return count
}

func (b *broker[T]) getListenersCopy() map[string]*listener[T] {
	b.lock.RLock()
	defer b.lock.RUnlock()

	listenersCopy := make(map[string]*listener[T], len(b.listeners))
	maps.Copy(listenersCopy, b.listeners)
	return listenersCopy
}

func (b *broker[T]) hasListeners() bool {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return len(b.listeners) > 0
}

// Addresses are case sensitive, topics are only trimmed.
func formatTopic(topic string) string {
	return strings.TrimSpace(topic)
}
