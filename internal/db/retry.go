package db

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Operation is a function that performs a write and returns an error if it fails.
// When used with Try, the operation is expected to pick fresh values (a new
// slug candidate, for example) on every attempt.
type Operation func(attempt int) error

const DefaultMaxRetries = 5

// Try executes op, retrying on duplicate key conflicts up to
// DefaultMaxRetries times. The attempt number (0-based) is passed to op so
// it can vary the conflicting value between attempts.
func Try(op Operation) error {
	var err error
	for attempt := 0; attempt <= DefaultMaxRetries; attempt++ {
		err = op(attempt)
		if err == nil {
			return nil
		}
		if attempt == DefaultMaxRetries || !IsDuplicateKeyError(err) {
			return err
		}
		// Incremental backoff keeps concurrent writers from colliding again
		// on the same candidate.
		time.Sleep(time.Duration(25*(attempt+1)) * time.Millisecond)
	}
	return err
}

// IsDuplicateKeyError checks if an error from MongoDB is a unique index
// violation (code 11000), in either single or bulk write form.
func IsDuplicateKeyError(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, e := range bwe.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	return false
}
