package services

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/thomas-vilte/changegen/internal/models"
)

type MockCommitSource struct {
	mock.Mock
}

func (m *MockCommitSource) GetBranchHead(ctx context.Context, project, branch string) (models.BranchHead, error) {
	args := m.Called(ctx, project, branch)
	return args.Get(0).(models.BranchHead), args.Error(1)
}

func (m *MockCommitSource) ListCommits(ctx context.Context, project string, query models.CommitQuery) ([]models.Commit, error) {
	args := m.Called(ctx, project, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Commit), args.Error(1)
}

func (m *MockCommitSource) ListTags(ctx context.Context, project string) ([]models.Tag, error) {
	args := m.Called(ctx, project)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Tag), args.Error(1)
}

func (m *MockCommitSource) ListClosedIssues(ctx context.Context, project string) ([]models.Issue, error) {
	args := m.Called(ctx, project)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Issue), args.Error(1)
}
