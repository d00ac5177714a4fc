package tx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTx struct{ id int }

func (m *mockTx) Unwrap() interface{} { return m.id }

type mockTxManager struct {
	mock.Mock
}

func (m *mockTxManager) Begin(ctx context.Context, opts ...*sql.TxOptions) (Tx, error) {
	args := m.Called(ctx)
	if t := args.Get(0); t != nil {
		return t.(Tx), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTxManager) Commit(t Tx) error   { return m.Called(t).Error(0) }
func (m *mockTxManager) Rollback(t Tx) error { return m.Called(t).Error(0) }

func TestSession_BeginIsLazyAndReused(t *testing.T) {
	mgr := new(mockTxManager)
	first := &mockTx{id: 1}
	mgr.On("Begin", mock.Anything).Return(first, nil).Once()
	mgr.On("Commit", first).Return(nil).Once()

	s := NewSession(mgr)
	assert.False(t, s.Pending())

	ctx1, err := s.Begin(context.Background())
	require.NoError(t, err)
	ctx2, err := s.Begin(context.Background())
	require.NoError(t, err)

	t1, _ := FromContext(ctx1)
	t2, _ := FromContext(ctx2)
	assert.Same(t, t1, t2)
	assert.True(t, s.Pending())

	require.NoError(t, s.Commit())
	assert.False(t, s.Pending())
	assert.Equal(t, 1, s.Commits())
	mgr.AssertExpectations(t)
}

func TestSession_RollbackOnlyWhenPending(t *testing.T) {
	mgr := new(mockTxManager)
	open := &mockTx{id: 2}
	mgr.On("Begin", mock.Anything).Return(open, nil).Once()
	mgr.On("Rollback", open).Return(nil).Once()

	s := NewSession(mgr)
	rolled, err := s.Rollback()
	require.NoError(t, err)
	assert.False(t, rolled)

	_, err = s.Begin(context.Background())
	require.NoError(t, err)
	rolled, err = s.Rollback()
	require.NoError(t, err)
	assert.True(t, rolled)
	mgr.AssertExpectations(t)
}

func TestSession_BeginError(t *testing.T) {
	mgr := new(mockTxManager)
	mgr.On("Begin", mock.Anything).Return(nil, errors.New("db down"))

	_, err := NewSession(mgr).Begin(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestWithoutTx(t *testing.T) {
	ctx := WithTx(context.Background(), &mockTx{id: 3})
	_, ok := FromContext(ctx)
	assert.True(t, ok)

	_, ok = FromContext(WithoutTx(ctx))
	assert.False(t, ok)
}
