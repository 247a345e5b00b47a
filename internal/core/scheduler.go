package core

import (
	"sync"
	"time"
)

// Scheduler выполняет функции в заданный момент времени. Обёртка над
// time.AfterFunc с учётом запущенных таймеров, чтобы корректно гаситься при
// остановке сервиса. Колбэки сами перепроверяют состояние мира на момент
// срабатывания: беседа могла быть удалена, пока таймер ждал.
type Scheduler struct {
	mu      sync.Mutex
	nextID  int64
	timers  map[int64]*time.Timer
	stopped bool
}

func NewScheduler() *Scheduler {
	return &Scheduler{timers: make(map[int64]*time.Timer)}
}

// At планирует вызов fn в момент t. Если t уже в прошлом, fn выполнится
// почти сразу в отдельной горутине.
func (s *Scheduler) At(t time.Time, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	id := s.nextID
	s.nextID++
	s.timers[id] = time.AfterFunc(time.Until(t), func() {
		s.mu.Lock()
		delete(s.timers, id)
		stopped := s.stopped
		s.mu.Unlock()
		if stopped {
			return
		}
		fn()
	})
}

// Stop отменяет все ожидающие таймеры. Уже запущенные колбэки дорабатывают.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
