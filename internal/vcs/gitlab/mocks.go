package gitlab

import (
	"github.com/stretchr/testify/mock"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

type MockBranchesService struct {
	mock.Mock
}

func (m *MockBranchesService) GetBranch(pid interface{}, branch string, options ...gitlab.RequestOptionFunc) (*gitlab.Branch, *gitlab.Response, error) {
	args := m.Called(pid, branch)
	if args.Get(0) == nil {
		return nil, responseArg(args.Get(1)), args.Error(2)
	}
	return args.Get(0).(*gitlab.Branch), responseArg(args.Get(1)), args.Error(2)
}

type MockCommitsService struct {
	mock.Mock
}

func (m *MockCommitsService) ListCommits(pid interface{}, opt *gitlab.ListCommitsOptions, options ...gitlab.RequestOptionFunc) ([]*gitlab.Commit, *gitlab.Response, error) {
	args := m.Called(pid, opt)
	if args.Get(0) == nil {
		return nil, responseArg(args.Get(1)), args.Error(2)
	}
	return args.Get(0).([]*gitlab.Commit), responseArg(args.Get(1)), args.Error(2)
}

type MockTagsService struct {
	mock.Mock
}

func (m *MockTagsService) ListTags(pid interface{}, opt *gitlab.ListTagsOptions, options ...gitlab.RequestOptionFunc) ([]*gitlab.Tag, *gitlab.Response, error) {
	args := m.Called(pid, opt)
	if args.Get(0) == nil {
		return nil, responseArg(args.Get(1)), args.Error(2)
	}
	return args.Get(0).([]*gitlab.Tag), responseArg(args.Get(1)), args.Error(2)
}

type MockIssuesService struct {
	mock.Mock
}

func (m *MockIssuesService) ListProjectIssues(pid interface{}, opt *gitlab.ListProjectIssuesOptions, options ...gitlab.RequestOptionFunc) ([]*gitlab.Issue, *gitlab.Response, error) {
	args := m.Called(pid, opt)
	if args.Get(0) == nil {
		return nil, responseArg(args.Get(1)), args.Error(2)
	}
	return args.Get(0).([]*gitlab.Issue), responseArg(args.Get(1)), args.Error(2)
}

func responseArg(v interface{}) *gitlab.Response {
	if v == nil {
		return nil
	}
	return v.(*gitlab.Response)
}
