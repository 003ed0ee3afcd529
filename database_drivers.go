//go:build !test

// Production builds register every SQL driver; go test/go vet runs with
// -tags test skip them.
package main

import "methane-leak-map/pkg/database/drivers"

func init() {
	// Touch the drivers package so its init functions register SQL
	// backends before the store is opened.
	drivers.Ready()
}
