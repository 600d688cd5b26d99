package systems

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zeusync/simstore/internal/core/models"
	"github.com/zeusync/simstore/internal/core/observability/log"
)

func TestFunc(t *testing.T) {
	errStop := errors.New("stop")
	disposed := 0
	var seen models.Category

	s := &Func{
		Label: "probe",
		Mask:  models.CategoryMob,
		Fn: func(_ *models.Entity, c models.Category) error {
			seen = c
			return errStop
		},
		OnDispose: func() { disposed++ },
	}

	assert.Equal(t, "probe", s.Name())
	assert.Equal(t, models.CategoryMob, s.Handles())
	assert.ErrorIs(t, s.Process(models.NewEntity(log.NewSink()), models.CategoryMob), errStop)
	assert.Equal(t, models.CategoryMob, seen)
	s.Dispose()
	assert.Equal(t, 1, disposed)

	empty := &Func{}
	assert.NoError(t, empty.Process(nil, models.CategoryNone))
	assert.NotPanics(t, empty.Dispose)
}
