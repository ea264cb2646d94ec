//go:build !release

package main

const (
	DEBUG                   = true
	MaxDBconnectionPoolSize = 30
)
