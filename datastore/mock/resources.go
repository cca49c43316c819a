/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides in-memory implementations of the datastore services for testing
package mock

import (
	"net/http"
	"sync"

	"github.com/suparena/storagekit/errors"
)

// resources tracks existence and injected faults for one resource kind.
// Services embed it and guard their own data with the same mutex.
type resources struct {
	mu               sync.Mutex
	kind             string
	beingDeletedCode string
	exists           map[string]bool
	beingDeleted     map[string]int
	createErrs       map[string]error
	existsErr        error
	createCalls      map[string]int
	existsCalls      map[string]int
}

func newResources(kind, beingDeletedCode string) resources {
	return resources{
		kind:             kind,
		beingDeletedCode: beingDeletedCode,
		exists:           make(map[string]bool),
		beingDeleted:     make(map[string]int),
		createErrs:       make(map[string]error),
		createCalls:      make(map[string]int),
		existsCalls:      make(map[string]int),
	}
}

// caller must hold mu
func (r *resources) probeLocked(name string) (bool, error) {
	r.existsCalls[name]++
	if r.existsErr != nil {
		return false, r.existsErr
	}
	return r.exists[name], nil
}

// createLocked reports whether the resource was newly created. Caller must hold mu.
func (r *resources) createLocked(name string) (bool, error) {
	r.createCalls[name]++
	if err, ok := r.createErrs[name]; ok {
		return false, err
	}
	if n := r.beingDeleted[name]; n > 0 {
		r.beingDeleted[name] = n - 1
		return false, errors.NewBeingDeletedError(r.kind, name, r.beingDeletedCode, nil)
	}
	if r.exists[name] {
		return false, nil
	}
	r.exists[name] = true
	return true, nil
}

// dropLocked reports whether the resource existed. Caller must hold mu.
func (r *resources) dropLocked(name string) bool {
	existed := r.exists[name]
	delete(r.exists, name)
	return existed
}

// BeingDeleted makes the next n create calls for name fail with the 409 being-deleted conflict
func (r *resources) BeingDeleted(name string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beingDeleted[name] = n
}

// FailCreate makes every create call for name fail with err
func (r *resources) FailCreate(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.createErrs, name)
		return
	}
	r.createErrs[name] = err
}

// FailExists makes every existence probe fail with err
func (r *resources) FailExists(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.existsErr = err
}

// CreateCalls returns how many create calls were made for name
func (r *resources) CreateCalls(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createCalls[name]
}

// ExistsCalls returns how many existence probes were made for name
func (r *resources) ExistsCalls(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.existsCalls[name]
}

// Has reports whether the resource currently exists
func (r *resources) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exists[name]
}

func notFound(op, kind, name, code string) error {
	return errors.NewRemoteFailureError(op, kind, name, http.StatusNotFound, code, nil)
}
