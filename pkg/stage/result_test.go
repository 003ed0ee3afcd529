package stage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestAsError keeps NotReady and Failed distinguishable with errors.Is.
func TestAsError(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")

	tests := []struct {
		name     string
		res      Result
		ok       bool
		notReady bool
		cause    error
	}{
		{name: "done", res: Done("build"), ok: true},
		{name: "skip", res: Skip("build", "geometry table is not set"), notReady: true},
		{name: "fail", res: Fail("save", cause), cause: cause},
		{name: "fail without cause", res: Fail("save", nil)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.ok, tc.res.OK())
			err := tc.res.AsError()
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Equal(t, tc.notReady, errors.Is(err, ErrNotReady))
			if tc.cause != nil {
				assert.ErrorIs(t, err, tc.cause)
			}
			assert.Contains(t, err.Error(), tc.res.Stage)
		})
	}
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "succeeded", Succeeded.String())
	assert.Equal(t, "not-ready", NotReady.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "status(9)", Status(9).String())
}
