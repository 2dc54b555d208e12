package mocks

import (
	"context"

	"github.com/dukex/instaflow/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockPersistence is a mock implementation of persistence.Persistence.
type MockPersistence struct {
	mock.Mock
}

func (m *MockPersistence) Flows(ctx context.Context) ([]*models.AutomationFlow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.AutomationFlow), args.Error(1)
}

func (m *MockPersistence) ActiveFlows(ctx context.Context) ([]*models.AutomationFlow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.AutomationFlow), args.Error(1)
}

func (m *MockPersistence) FlowByID(ctx context.Context, id string) (*models.AutomationFlow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.AutomationFlow), args.Error(1)
}

func (m *MockPersistence) SaveFlow(ctx context.Context, flow *models.AutomationFlow) error {
	args := m.Called(ctx, flow)

	return args.Error(0)
}

func (m *MockPersistence) DeleteFlow(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *MockPersistence) IncrementExecutionCount(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

// MockPlatformClient is a mock implementation of platform.Client.
type MockPlatformClient struct {
	mock.Mock
}

func (m *MockPlatformClient) SendMessage(ctx context.Context, recipientID, text string) error {
	args := m.Called(ctx, recipientID, text)

	return args.Error(0)
}

func (m *MockPlatformClient) ReplyToComment(ctx context.Context, commentID, text string) error {
	args := m.Called(ctx, commentID, text)

	return args.Error(0)
}
