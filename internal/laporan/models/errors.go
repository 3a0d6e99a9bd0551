package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidFilter     = errors.New("filter tidak valid")
	ErrMalformedMatchSet = errors.New("match-set tidak valid")
	ErrFetchFailure      = errors.New("gagal mengambil data")
	ErrMatchSetNotFound  = errors.New("match-set tidak ditemukan")
)

// InvalidFilterError ditolak sebelum query apa pun dijalankan.
type InvalidFilterError struct {
	Field  string
	Reason string
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("parameter %s tidak valid: %s", e.Field, e.Reason)
}

func (e *InvalidFilterError) Is(target error) bool { return target == ErrInvalidFilter }

// MalformedMatchSetError menunjuk baris (1-based) dan kolom yang gagal dibaca.
type MalformedMatchSetError struct {
	Name   string
	Row    int
	Column string
	Reason string
}

func (e *MalformedMatchSetError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("match-set %q baris %d: %s", e.Name, e.Row, e.Reason)
	}
	return fmt.Sprintf("match-set %q baris %d kolom %s: %s", e.Name, e.Row, e.Column, e.Reason)
}

func (e *MalformedMatchSetError) Is(target error) bool { return target == ErrMalformedMatchSet }

// FetchFailureError membungkus error dari lapisan penyimpanan. Tidak pernah di-retry di sini.
type FetchFailureError struct {
	Op  string
	Err error
}

func (e *FetchFailureError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FetchFailureError) Unwrap() error { return e.Err }

func (e *FetchFailureError) Is(target error) bool { return target == ErrFetchFailure }

type MatchSetNotFoundError struct {
	Name string
}

func (e *MatchSetNotFoundError) Error() string {
	return fmt.Sprintf("match-set %q tidak ditemukan", e.Name)
}

func (e *MatchSetNotFoundError) Is(target error) bool { return target == ErrMatchSetNotFound }
