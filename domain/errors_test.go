package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestStoreErrorPassesDomainErrorsThrough(t *testing.T) {
	t.Parallel()
	if err := StoreError("get task", ErrTaskNotFound); !errors.Is(err, ErrTaskNotFound) || !IsNotFound(err) {
		t.Fatalf("StoreError(not found) = %v", err)
	}

	cause := errors.New("connection refused")
	err := StoreError("create task", cause)
	if !IsDomainError(err, ErrCodeStore) {
		t.Fatalf("StoreError code = %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatal("StoreError must wrap its cause")
	}
	if StoreError("noop", nil) != nil {
		t.Fatal("StoreError(nil) must be nil")
	}
}

func TestSubscriptionErrorIsDistinct(t *testing.T) {
	t.Parallel()
	err := SubscriptionError(fmt.Errorf("dial: %w", errors.New("timeout")))
	if !IsDomainError(err, ErrCodeSubscription) {
		t.Fatalf("code = %v", err)
	}
	if IsDomainError(err, ErrCodeStore) {
		t.Fatal("subscription errors are not store errors")
	}
}

func TestWrappedSentinelMatches(t *testing.T) {
	t.Parallel()
	wrapped := fmt.Errorf("lookup: %w", WrapError(ErrCodeNotFound, ErrTaskNotFound.Message, errors.New("no rows")))
	if !errors.Is(wrapped, ErrTaskNotFound) {
		t.Fatal("wrapped copy should match sentinel")
	}
	if errors.Is(wrapped, ErrProfileNotFound) {
		t.Fatal("different message must not match")
	}
}
