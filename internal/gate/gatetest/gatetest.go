// Package gatetest wraps gate stores so tests can act at the moment a
// service reads the operational flag.
package gatetest

import (
	"context"
	"sync"

	"flightsurety/internal/gate/models"
	gateservice "flightsurety/internal/gate/service"
	txcontext "flightsurety/pkg/platform/tx"
)

// HookedStore calls OnFirstState the first time GetState is read and records
// whether that read ran inside a transaction.
type HookedStore struct {
	gateservice.Store
	OnFirstState func()

	once      sync.Once
	mu        sync.Mutex
	stateInTx bool
}

func (h *HookedStore) GetState(ctx context.Context) (*models.State, error) {
	h.once.Do(func() {
		h.mu.Lock()
		h.stateInTx = txcontext.Active(ctx)
		h.mu.Unlock()
		if h.OnFirstState != nil {
			h.OnFirstState()
		}
	})
	return h.Store.GetState(ctx)
}

// StateReadInTx reports whether the first flag read joined a transaction.
func (h *HookedStore) StateReadInTx() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stateInTx
}

// PauseOnFirstCheck arranges for owner to pause the system from another
// goroutine the moment a mutation first reads the flag. It returns a
// function that waits for the pause and reports whether the pause finished
// while the mutation still held the transaction.
func PauseOnFirstCheck(h *HookedStore, pause func() error, grace func()) func() (overtook bool, err error) {
	done := make(chan error, 1)
	var overtook bool
	h.OnFirstState = func() {
		go func() { done <- pause() }()
		grace()
		select {
		case err := <-done:
			overtook = true
			done <- err
		default:
		}
	}
	return func() (bool, error) {
		err := <-done
		return overtook, err
	}
}
