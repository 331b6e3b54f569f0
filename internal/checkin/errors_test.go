package checkin

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want ErrorKind
	}{
		{fmt.Errorf("hoyolab: retcode -100: %w", ErrInvalidCredential), KindInvalidCredential},
		{fmt.Errorf("hoyolab: retcode -5003: %w", ErrAlreadyClaimed), KindAlreadyClaimed},
		{errors.New("timeout"), KindOther},
		{nil, KindOther},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}
