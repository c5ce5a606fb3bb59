// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wrappers provides helpers for running a series of fallible steps.
package wrappers

// Errs keeps the first error of a series of operations.
type Errs struct {
	Err error
}

// Errored returns true if an error has been recorded.
func (errs *Errs) Errored() bool {
	return errs.Err != nil
}

// Add records the first non-nil error.
func (errs *Errs) Add(errors ...error) {
	if errs.Err != nil {
		return
	}
	for _, err := range errors {
		if err != nil {
			errs.Err = err
			return
		}
	}
}
