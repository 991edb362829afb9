package factory

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/reactimer/internal/dependencies/mocks"
	"github.com/mcoot/reactimer/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
}

// NewTestApp creates an in-memory App with a mocked clock and a fixed session secret
func NewTestApp() (*TestApp, error) {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	app, err := New(context.Background(), Config{
		Logger:        testutil.NopLogger(),
		Clock:         mockClock,
		StorageType:   StorageTypeMemory,
		SessionSecret: []byte("test-session-secret-0123456789ab"),
		BcryptCost:    bcrypt.MinCost,
	})
	if err != nil {
		return nil, err
	}

	return &TestApp{
		App:       app,
		MockClock: mockClock,
	}, nil
}
