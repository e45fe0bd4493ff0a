package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var testT *testing.T

// SetT registers the current test's *testing.T so NoErr/Err can report
// failures against it.
func SetT(t *testing.T) {
	testT = t
}

// NoErr asserts err is nil and returns v.
func NoErr[T any](v T, err error) T {
	require.NoError(testT, err)
	return v
}

// Err asserts err is non-nil and returns it, discarding v.
func Err[T any](_ T, err error) error {
	require.Error(testT, err)
	return err
}

// NoErrB panics if err is non-nil, otherwise returns v.
func NoErrB[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// ErrB panics if err is nil, otherwise returns it.
func ErrB[T any](_ T, err error) error {
	if err == nil {
		panic("expected error")
	}
	return err
}
