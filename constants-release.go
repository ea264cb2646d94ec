//go:build release

package main

const (
	DEBUG                   = false
	MaxDBconnectionPoolSize = 30
)
