package output

import (
	"errors"

	"github.com/LinkTsang/tcpts-observer/internal/record"
)

// RecordConsumer persists records. Consume must not retain r after it returns.
type RecordConsumer interface {
	Consume(r *record.Record) error
	Close() error
}

// Multi fans every record out to all consumers.
type Multi []RecordConsumer

func (m Multi) Consume(r *record.Record) error {
	var errs []error
	for _, c := range m {
		if err := c.Consume(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, c := range m {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
