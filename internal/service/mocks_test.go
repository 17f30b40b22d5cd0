package service

import (
	"context"
	"errors"
	"io"

	"github.com/Lsoni680/ai-chatbot-new/internal/domain"
	"github.com/Lsoni680/ai-chatbot-new/internal/llm"
	"github.com/stretchr/testify/mock"
)

// MockGateway mocks the llm.Gateway interface
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Name() string {
	return "mock"
}

func (m *MockGateway) Complete(ctx context.Context, system, user string) (string, error) {
	args := m.Called(ctx, system, user)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) Stream(ctx context.Context, system, user string) (llm.Stream, error) {
	args := m.Called(ctx, system, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(llm.Stream), args.Error(1)
}

// fakeStream replays fragments, then ends with err (io.EOF when nil)
type fakeStream struct {
	fragments []string
	err       error
	next      int
	closed    bool
}

func newFakeStream(err error, fragments ...string) *fakeStream {
	return &fakeStream{fragments: fragments, err: err}
}

func (s *fakeStream) Next() (string, error) {
	if s.closed {
		return "", io.EOF
	}
	if s.next < len(s.fragments) {
		f := s.fragments[s.next]
		s.next++
		return f, nil
	}
	if s.err != nil {
		return "", s.err
	}
	return "", io.EOF
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

// recordingSink collects forwarded fragments and can fail after a limit
type recordingSink struct {
	fragments []string
	failAfter int
}

var errSinkGone = errors.New("client disconnected")

func (s *recordingSink) WriteFragment(fragment string) error {
	if s.failAfter > 0 && len(s.fragments) >= s.failAfter {
		return errSinkGone
	}
	s.fragments = append(s.fragments, fragment)
	return nil
}

// MockUserRepository mocks the domain.UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Find(ctx context.Context, identifier string) (*domain.User, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, identifier, secretHash string) (*domain.User, error) {
	args := m.Called(ctx, identifier, secretHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) AppendExchange(ctx context.Context, identifier, prompt, reply string) error {
	args := m.Called(ctx, identifier, prompt, reply)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateSecret(ctx context.Context, identifier, secretHash string) error {
	args := m.Called(ctx, identifier, secretHash)
	return args.Error(0)
}

func (m *MockUserRepository) History(ctx context.Context, identifier string) ([]domain.Exchange, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Exchange), args.Error(1)
}

func (m *MockUserRepository) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockUserRepository) Close() error {
	return nil
}
