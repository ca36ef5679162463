package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"f1insights/internal/engine"
)

// Fetcher mock
type Fetcher struct {
	mock.Mock
}

// Fetch provides a mock function with given fields: ctx
func (_m *Fetcher) Fetch(ctx context.Context) (*engine.ColumnStore, error) {
	ret := _m.Called(ctx)

	var r0 *engine.ColumnStore
	if rf, ok := ret.Get(0).(func(context.Context) *engine.ColumnStore); ok {
		r0 = rf(ctx)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*engine.ColumnStore)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}
