package queue

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"mailsync/internal/domain"
)

func TestDispositionFor(t *testing.T) {
	transient := errors.New("classifier timeout")

	tests := []struct {
		name        string
		err         error
		redelivered bool
		want        disposition
	}{
		{"success", nil, false, ack},
		{"success on redelivery", nil, true, ack},
		{"already running", domain.ErrCategorizationInProgress, false, ack},
		{"wrapped already running", fmt.Errorf("begin: %w", domain.ErrCategorizationInProgress), false, ack},
		{"unknown candidate", domain.ErrCandidateNotFound, false, ack},
		{"first failure", transient, false, requeue},
		{"second failure", transient, true, discard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dispositionFor(tt.err, tt.redelivered))
		})
	}
}
