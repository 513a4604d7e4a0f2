//go:build !esail_debug

package tether

const debugAssertions = false
