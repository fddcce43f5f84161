package form_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-regform/pkg/form"
	"github.com/goliatone/go-regform/pkg/lookup"
	"github.com/goliatone/go-regform/pkg/messages"
	"github.com/goliatone/go-regform/pkg/model"
	"github.com/goliatone/go-regform/pkg/registration"
	"github.com/goliatone/go-regform/pkg/testsupport"
)

type lookupResult struct {
	addr lookup.Address
	err  error
}

// fakeLookup answers from a fixed table, or blocks on gate when set.
type fakeLookup struct {
	mu      sync.Mutex
	results map[string]lookupResult
	calls   []string
	gate    map[string]chan struct{}
}

func (f *fakeLookup) Lookup(ctx context.Context, zipcode string) (lookup.Address, error) {
	f.mu.Lock()
	f.calls = append(f.calls, zipcode)
	gate := f.gate[zipcode]
	res, ok := f.results[zipcode]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return lookup.Address{}, ctx.Err()
		}
	}
	if !ok {
		return lookup.Address{}, &lookup.Error{Status: http.StatusNotFound, Message: "CEP não encontrado"}
	}
	return res.addr, res.err
}

func (f *fakeLookup) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeRegistrar struct {
	mu    sync.Mutex
	resp  registration.Response
	err   error
	gate  chan struct{}
	calls []model.Registration
}

func (f *fakeRegistrar) Register(ctx context.Context, reg model.Registration) (registration.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, reg)
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.resp, f.err
}

func (f *fakeRegistrar) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []form.Notification
}

func (r *recordingNotifier) Notify(n form.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

type countingRecorder struct {
	mu          sync.Mutex
	lookups     map[string]int
	submissions map[string]int
	invalid     map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		lookups:     map[string]int{},
		submissions: map[string]int{},
		invalid:     map[string]int{},
	}
}

func (r *countingRecorder) LookupCompleted(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups[outcome]++
}

func (r *countingRecorder) SubmissionCompleted(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submissions[outcome]++
}

func (r *countingRecorder) ValidationFailed(field string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalid[field]++
}

func paulista() *fakeLookup {
	return &fakeLookup{results: map[string]lookupResult{
		"01310-100": {addr: testsupport.PaulistaAddress()},
	}}
}

func newController(t *testing.T, lc lookup.Client, rc registration.Client, opts ...form.Option) *form.Controller {
	t.Helper()
	c, err := form.New(nil, lc, rc, opts...)
	require.NoError(t, err)
	return c
}

func TestNew_RequiresClients(t *testing.T) {
	_, err := form.New(nil, nil, &fakeRegistrar{})
	assert.Error(t, err)
	_, err = form.New(nil, paulista(), nil)
	assert.Error(t, err)
}

func TestController_StartsEmpty(t *testing.T) {
	c := newController(t, paulista(), &fakeRegistrar{})

	assert.Empty(t, c.Values())
	assert.Empty(t, c.Errors())
	assert.Equal(t, form.PhaseIdle, c.Phase())
	_, ok := c.LastNotification()
	assert.False(t, ok)
}

func TestSetValue_UnknownField(t *testing.T) {
	c := newController(t, paulista(), &fakeRegistrar{})
	assert.ErrorIs(t, c.SetValue("nickname", "x"), form.ErrUnknownField)
}

func TestChangeZipcode_FillsAddressAndCity(t *testing.T) {
	lc := paulista()
	c := newController(t, lc, &fakeRegistrar{})

	require.NoError(t, c.ChangeZipcode(context.Background(), "01310-100"))

	values := c.Values()
	assert.Equal(t, "01310-100", values[model.FieldZipcode])
	assert.Equal(t, "Avenida Paulista, Bela Vista", values[model.FieldAddress])
	assert.Equal(t, "São Paulo, SP", values[model.FieldCity])
	assert.Empty(t, c.Errors())
}

func TestChangeZipcode_FailureSetsServiceMessage(t *testing.T) {
	c := newController(t, paulista(), &fakeRegistrar{})

	require.NoError(t, c.ChangeZipcode(context.Background(), "01310-100"))
	err := c.ChangeZipcode(context.Background(), "99999-999")
	require.Error(t, err)
	assert.ErrorIs(t, err, lookup.ErrNotFound)

	values := c.Values()
	assert.Equal(t, "", values[model.FieldAddress])
	assert.Equal(t, "", values[model.FieldCity])
	assert.Equal(t, "CEP não encontrado", c.Errors().Get(model.FieldZipcode))
}

func TestChangeZipcode_FailureWithoutMessageUsesCatalog(t *testing.T) {
	lc := &fakeLookup{results: map[string]lookupResult{
		"01310-100": {err: errors.New("connection refused")},
	}}
	c := newController(t, lc, &fakeRegistrar{})

	require.Error(t, c.ChangeZipcode(context.Background(), "01310-100"))
	assert.Equal(t, "Não foi possível consultar o CEP", c.Errors().Get(model.FieldZipcode))
}

func TestChangeZipcode_NonMatchingValueClearsWithoutLookup(t *testing.T) {
	lc := paulista()
	c := newController(t, lc, &fakeRegistrar{})
	require.NoError(t, c.ChangeZipcode(context.Background(), "01310-100"))

	for _, partial := range []string{"01310-10", "01310100", ""} {
		require.NoError(t, c.ChangeZipcode(context.Background(), partial))
		values := c.Values()
		assert.Equal(t, "", values[model.FieldAddress], partial)
		assert.Equal(t, "", values[model.FieldCity], partial)
	}
	assert.Equal(t, 1, lc.callCount())
}

func TestChangeZipcode_SuccessClearsPreviousErrors(t *testing.T) {
	c := newController(t, paulista(), &fakeRegistrar{})

	var verr *form.ValidationError
	require.ErrorAs(t, c.Submit(context.Background(), map[string]any{}), &verr)
	require.True(t, c.Errors().Has(model.FieldAddress))

	require.NoError(t, c.ChangeZipcode(context.Background(), "01310-100"))
	errs := c.Errors()
	assert.False(t, errs.Has(model.FieldZipcode))
	assert.False(t, errs.Has(model.FieldAddress))
	assert.False(t, errs.Has(model.FieldCity))
	assert.True(t, errs.Has(model.FieldName))
}

func TestChangeZipcode_StaleResponseDiscarded(t *testing.T) {
	gate := make(chan struct{})
	lc := &fakeLookup{
		results: map[string]lookupResult{
			"01310-100": {addr: testsupport.PaulistaAddress()},
			"20040-020": {addr: lookup.Address{City: "Rio de Janeiro", State: "RJ", Street: "Avenida Rio Branco", Neighborhood: "Centro"}},
		},
		gate: map[string]chan struct{}{"01310-100": gate},
	}
	rec := newCountingRecorder()
	c := newController(t, lc, &fakeRegistrar{}, form.WithRecorder(rec))

	slow := c.ChangeZipcodeAsync(context.Background(), "01310-100")
	require.NoError(t, c.ChangeZipcode(context.Background(), "20040-020"))
	close(gate)

	assert.ErrorIs(t, <-slow, form.ErrStaleLookup)
	values := c.Values()
	assert.Equal(t, "20040-020", values[model.FieldZipcode])
	assert.Equal(t, "Avenida Rio Branco, Centro", values[model.FieldAddress])
	assert.Equal(t, "Rio de Janeiro, RJ", values[model.FieldCity])
	assert.Equal(t, 1, rec.lookups[form.OutcomeStale])
	assert.Equal(t, 1, rec.lookups[form.OutcomeOK])
}

func TestChangeZipcode_ResetInvalidatesInFlightLookup(t *testing.T) {
	gate := make(chan struct{})
	lc := paulista()
	lc.gate = map[string]chan struct{}{"01310-100": gate}
	c := newController(t, lc, &fakeRegistrar{})

	pending := c.ChangeZipcodeAsync(context.Background(), "01310-100")
	c.Reset()
	close(gate)

	assert.ErrorIs(t, <-pending, form.ErrStaleLookup)
	assert.Empty(t, c.Values())
}

func TestChangeZipcode_CancelledLookupLeavesStateUntouched(t *testing.T) {
	lc := paulista()
	lc.gate = map[string]chan struct{}{"01310-100": make(chan struct{})}
	c := newController(t, lc, &fakeRegistrar{})

	ctx, cancel := context.WithCancel(context.Background())
	pending := c.ChangeZipcodeAsync(ctx, "01310-100")
	cancel()

	assert.ErrorIs(t, <-pending, context.Canceled)
	assert.False(t, c.Errors().Has(model.FieldZipcode))
}

func TestSetValue_RevalidatesErroredField(t *testing.T) {
	c := newController(t, paulista(), &fakeRegistrar{})
	raw := testsupport.ValidRecord()
	raw[model.FieldCPF] = "123"

	var verr *form.ValidationError
	require.ErrorAs(t, c.Submit(context.Background(), raw), &verr)
	assert.Equal(t, model.FieldErrors{model.FieldCPF: "CPF inválido"}, verr.Errors)

	require.NoError(t, c.SetValue(model.FieldCPF, "123.456"))
	assert.Equal(t, "CPF inválido", c.Errors().Get(model.FieldCPF))

	require.NoError(t, c.SetValue(model.FieldCPF, "123.456.789-09"))
	assert.Empty(t, c.Errors())
}

func TestSetValue_PasswordRechecksConfirmation(t *testing.T) {
	c := newController(t, paulista(), &fakeRegistrar{})
	raw := testsupport.ValidRecord()
	raw[model.FieldPasswordConfirmation] = "outrasenha"

	require.Error(t, c.Submit(context.Background(), raw))
	require.Equal(t, "As senhas devem coincidir", c.Errors().Get(model.FieldPasswordConfirmation))

	require.NoError(t, c.SetValue(model.FieldPassword, "outrasenha"))
	assert.False(t, c.Errors().Has(model.FieldPasswordConfirmation))
}

func TestSubmit_ValidationFailureSkipsNetwork(t *testing.T) {
	rc := &fakeRegistrar{}
	rec := newCountingRecorder()
	notes := &recordingNotifier{}
	c := newController(t, paulista(), rc, form.WithRecorder(rec), form.WithNotifier(notes))

	raw := testsupport.ValidRecord()
	raw[model.FieldTerms] = false
	err := c.Submit(context.Background(), raw)

	var verr *form.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Voce precisa aceitar os termos de uso", verr.Errors.Get(model.FieldTerms))
	assert.Equal(t, 0, rc.callCount())
	assert.Empty(t, notes.notes)
	assert.Equal(t, 1, rec.invalid[model.FieldTerms])
	assert.Equal(t, 1, rec.submissions[form.OutcomeInvalid])
	assert.Equal(t, form.PhaseIdle, c.Phase())
}

func TestSubmit_SuccessResetsForm(t *testing.T) {
	rc := &fakeRegistrar{resp: registration.Response{Status: http.StatusCreated}}
	notes := &recordingNotifier{}
	c := newController(t, paulista(), rc, form.WithNotifier(notes))

	require.NoError(t, c.Submit(context.Background(), testsupport.ValidRecord()))

	require.Len(t, rc.calls, 1)
	assert.Equal(t, model.RegistrationFromValues(testsupport.ValidRecord()), rc.calls[0])
	assert.Empty(t, c.Values())
	assert.Empty(t, c.Errors())

	require.Len(t, notes.notes, 1)
	assert.Equal(t, form.KindSuccess, notes.notes[0].Kind)
	assert.Equal(t, "Usuário cadastrado com sucesso!", notes.notes[0].Text)

	// the next attempt starts from the empty form
	var verr *form.ValidationError
	require.ErrorAs(t, c.SubmitCurrent(context.Background()), &verr)
	assert.Len(t, verr.Errors, len(model.FieldNames()))
}

func TestSubmit_ServerRejectionDistributesFieldErrors(t *testing.T) {
	rc := &fakeRegistrar{err: &registration.ServerError{
		Status:  http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Fields: map[string][]string{
			"email":    {"already taken"},
			"nickname": {"not allowed"},
		},
	}}
	notes := &recordingNotifier{}
	rec := newCountingRecorder()
	c := newController(t, paulista(), rc, form.WithNotifier(notes), form.WithRecorder(rec))

	err := c.Submit(context.Background(), testsupport.ValidRecord())
	require.Error(t, err)
	var serverErr *registration.ServerError
	assert.ErrorAs(t, err, &serverErr)

	assert.Equal(t, model.FieldErrors{model.FieldEmail: "already taken"}, c.Errors())
	assert.Equal(t, "maria@example.com", c.Values()[model.FieldEmail])

	note, ok := c.LastNotification()
	require.True(t, ok)
	assert.Equal(t, form.KindError, note.Kind)
	assert.Equal(t, "Validation failed", note.Detail)
	assert.Equal(t, "Erro ao cadastrar o usuário: Validation failed", note.Text)
	assert.Equal(t, []string{"not allowed"}, note.FormErrors)
	assert.Len(t, notes.notes, 1)
	assert.Equal(t, 1, rec.submissions[form.OutcomeRejected])
	assert.Equal(t, form.PhaseIdle, c.Phase())
}

func TestSubmit_TransportFailureUsesFallback(t *testing.T) {
	rc := &fakeRegistrar{err: errors.New("dial tcp: connection refused")}
	c := newController(t, paulista(), rc)

	require.Error(t, c.Submit(context.Background(), testsupport.ValidRecord()))

	note, ok := c.LastNotification()
	require.True(t, ok)
	assert.Equal(t, "não foi possível contatar o servidor", note.Detail)
	assert.Empty(t, c.Errors())
	assert.NotEmpty(t, c.Values())
}

func TestSubmit_RejectsConcurrentSubmission(t *testing.T) {
	gate := make(chan struct{})
	rc := &fakeRegistrar{gate: gate}
	c := newController(t, paulista(), rc)

	first := make(chan error, 1)
	go func() { first <- c.Submit(context.Background(), testsupport.ValidRecord()) }()

	require.Eventually(t, func() bool { return c.Phase() == form.PhaseSubmitting }, time.Second, time.Millisecond)
	assert.ErrorIs(t, c.SubmitCurrent(context.Background()), form.ErrSubmitInProgress)

	close(gate)
	require.NoError(t, <-first)
	assert.Equal(t, 1, rc.callCount())
	assert.Equal(t, form.PhaseIdle, c.Phase())
}

func TestNotifierFunc(t *testing.T) {
	var got []form.Kind
	c := newController(t, paulista(), &fakeRegistrar{}, form.WithNotifier(form.NotifierFunc(func(n form.Notification) {
		got = append(got, n.Kind)
	})))

	require.NoError(t, c.Submit(context.Background(), testsupport.ValidRecord()))
	assert.Equal(t, []form.Kind{form.KindSuccess}, got)
}

func TestWithCatalog_ChangesMessages(t *testing.T) {
	catalog := messages.Default()
	catalog.Set(messages.KeySubmitSuccess, "Registered!")
	catalog.Set(messages.KeyTermsRequired, "Accept the terms")
	c := newController(t, paulista(), &fakeRegistrar{}, form.WithCatalog(catalog))

	raw := testsupport.ValidRecord()
	raw[model.FieldTerms] = "true"
	require.Error(t, c.Submit(context.Background(), raw))
	assert.Equal(t, "Accept the terms", c.Errors().Get(model.FieldTerms))

	raw[model.FieldTerms] = true
	require.NoError(t, c.Submit(context.Background(), raw))
	note, _ := c.LastNotification()
	assert.Equal(t, "Registered!", note.Text)
}
