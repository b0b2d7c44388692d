package service

import (
	"github.com/windfall/recap_client/internal/errors"
)

// sequence numbers requests so only the latest response is applied.
// It is guarded by its owner's mutex.
type sequence struct {
	last uint64
}

func (s *sequence) next() uint64 {
	s.last++
	return s.last
}

func (s *sequence) latest(n uint64) bool {
	return n == s.last
}

// messageOf is the text shown to the user for err.
func messageOf(err error) string {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
