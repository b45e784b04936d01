// Package middleware wraps a ports.ResultStore with storage-side protection
// for participant data.
package middleware

import "github.com/aretw0/timbre/pkg/ports"

// Middleware allows wrapping a ResultStore to add behavior.
type Middleware func(ports.ResultStore) ports.ResultStore

// Chain applies the middlewares so that the first one sees submissions first.
func Chain(store ports.ResultStore, mws ...Middleware) ports.ResultStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
