package form_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-regform/pkg/form"
	"github.com/goliatone/go-regform/pkg/lookup"
	"github.com/goliatone/go-regform/pkg/model"
	"github.com/goliatone/go-regform/pkg/registration"
	"github.com/goliatone/go-regform/pkg/testsupport"
)

type MockLookupClient struct {
	mock.Mock
}

func (m *MockLookupClient) Lookup(ctx context.Context, zipcode string) (lookup.Address, error) {
	args := m.Called(ctx, zipcode)
	return args.Get(0).(lookup.Address), args.Error(1)
}

type MockRegistrar struct {
	mock.Mock
}

func (m *MockRegistrar) Register(ctx context.Context, reg model.Registration) (registration.Response, error) {
	args := m.Called(ctx, reg)
	return args.Get(0).(registration.Response), args.Error(1)
}

func TestController_FillThenSubmit(t *testing.T) {
	ctx := context.Background()
	lc := new(MockLookupClient)
	rc := new(MockRegistrar)

	lc.On("Lookup", ctx, "01310-100").Return(testsupport.PaulistaAddress(), nil).Once()
	rc.On("Register", ctx, mock.MatchedBy(func(reg model.Registration) bool {
		return reg == testsupport.ValidRegistration()
	})).Return(registration.Response{Status: http.StatusCreated, Message: "ok"}, nil).Once()

	c, err := form.New(nil, lc, rc)
	require.NoError(t, err)

	for field, value := range testsupport.ValidRecord() {
		switch field {
		case model.FieldZipcode, model.FieldAddress, model.FieldCity:
			continue
		}
		require.NoError(t, c.SetValue(field, value))
	}
	require.NoError(t, c.ChangeZipcode(ctx, "01310-100"))
	require.NoError(t, c.SubmitCurrent(ctx))

	note, ok := c.LastNotification()
	require.True(t, ok)
	assert.Equal(t, "ok", note.Detail)

	lc.AssertExpectations(t)
	rc.AssertExpectations(t)
}

func TestController_InvalidZipcodeNeverLooksUp(t *testing.T) {
	lc := new(MockLookupClient)
	rc := new(MockRegistrar)

	c, err := form.New(nil, lc, rc)
	require.NoError(t, err)
	require.NoError(t, c.ChangeZipcode(context.Background(), "0131"))

	lc.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
	rc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}
