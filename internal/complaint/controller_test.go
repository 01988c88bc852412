package complaint

import (
	"context"
	"strings"
	"testing"
	"time"

	apperr "cadastro/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store that numbers records the same way the
// spreadsheet store does.
type memStore struct {
	records   []Record
	appends   int
	appendErr error
	readErr   error
}

func (m *memStore) ReadAll() ([]Record, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *memStore) Append(rec Record) (Record, error) {
	m.appends++
	if m.appendErr != nil {
		return Record{}, m.appendErr
	}
	max := 0
	for _, r := range m.records {
		if r.Number > max {
			max = r.Number
		}
	}
	rec.Number = max + 1
	m.records = append(m.records, rec)
	return rec, nil
}

type recordingNotifier struct {
	saved    []Record
	failures []string
}

func (n *recordingNotifier) NotifyComplaint(_ context.Context, rec Record) error {
	n.saved = append(n.saved, rec)
	return nil
}

func (n *recordingNotifier) NotifyFailure(_ context.Context, op string, _ error) error {
	n.failures = append(n.failures, op)
	return nil
}

func newTestController(store Store, opts ...Option) *Controller {
	opts = append([]Option{WithClock(func() time.Time { return today })}, opts...)
	return NewController(store, opts...)
}

func TestSubmitAcceptanceScenario(t *testing.T) {
	store := &memStore{}
	c := newTestController(store)

	form := validForm()
	res, err := c.Submit(context.Background(), form)
	require.NoError(t, err)

	assert.Equal(t, StateSubmitted, res.State)
	assert.Equal(t, 1, res.ComplaintNumber)
	require.Len(t, store.records, 1)
	assert.Equal(t, "Maria Silva", store.records[0].Name)
	assert.Equal(t, "11987654321", store.records[0].Phone)
	assert.Equal(t, "maria@example.com", store.records[0].Email)
}

func TestSubmitSequentialNumbers(t *testing.T) {
	store := &memStore{}
	c := newTestController(store)

	first, err := c.Submit(context.Background(), validForm())
	require.NoError(t, err)
	second, err := c.Submit(context.Background(), validForm())
	require.NoError(t, err)

	assert.Equal(t, 1, first.ComplaintNumber)
	assert.Equal(t, 2, second.ComplaintNumber)
	assert.Len(t, store.records, 2)
}

func TestSubmitRejectionDoesNotTouchStore(t *testing.T) {
	edits := map[string]func(*Form){
		"empty name":   func(f *Form) { f.Name = "" },
		"bad email":    func(f *Form) { f.Email = "not-an-email" },
		"phone letter": func(f *Form) { f.Phone = "12a" },
		"short phone":  func(f *Form) { f.Phone = "1234567" },
		"long text":    func(f *Form) { f.Description = strings.Repeat("a", 40000) },
	}
	for name, edit := range edits {
		t.Run(name, func(t *testing.T) {
			store := &memStore{}
			c := newTestController(store)
			form := validForm()
			edit(&form)

			res, err := c.Submit(context.Background(), form)
			require.Error(t, err)
			assert.True(t, apperr.IsValidation(err))
			assert.Equal(t, StateEditing, res.State)
			assert.Equal(t, form, res.Form, "form is kept for resubmission")
			assert.Zero(t, store.appends)
		})
	}
}

func TestSubmitClearsFormByDefault(t *testing.T) {
	c := newTestController(&memStore{})

	res, err := c.Submit(context.Background(), validForm())
	require.NoError(t, err)
	assert.Equal(t, Form{}, res.Form)
}

func TestSubmitRetainsFormWhenConfigured(t *testing.T) {
	c := newTestController(&memStore{}, WithClearOnSave(false))

	res, err := c.Submit(context.Background(), validForm())
	require.NoError(t, err)
	assert.Equal(t, validForm(), res.Form)
}

func TestSubmitStoreFailure(t *testing.T) {
	storeErr := apperr.NewStoreError(apperr.StoreWriteFailed, "cadastro.xlsx", "replace workbook", nil)
	notifier := &recordingNotifier{}
	c := newTestController(&memStore{appendErr: storeErr}, WithNotifier(notifier))

	res, err := c.Submit(context.Background(), validForm())
	require.Error(t, err)
	assert.True(t, apperr.IsStoreWriteFailed(err))
	assert.Equal(t, StateEditing, res.State)
	assert.Equal(t, validForm(), res.Form)
	assert.Equal(t, []string{"append"}, notifier.failures)
	assert.Empty(t, notifier.saved)

	page, err := c.Page(context.Background(), res)
	require.NoError(t, err)
	assert.Equal(t, Notice{Kind: NoticeError, Text: msgSaveFailed}, page.Notice)
}

func TestSubmitNotifiesSavedRecord(t *testing.T) {
	notifier := &recordingNotifier{}
	c := newTestController(&memStore{}, WithNotifier(notifier))

	_, err := c.Submit(context.Background(), validForm())
	require.NoError(t, err)

	require.Len(t, notifier.saved, 1)
	assert.Equal(t, 1, notifier.saved[0].Number)
}

func TestPageAfterSuccess(t *testing.T) {
	store := &memStore{}
	c := newTestController(store)

	res, err := c.Submit(context.Background(), validForm())
	require.NoError(t, err)

	page, err := c.Page(context.Background(), res)
	require.NoError(t, err)
	assert.Equal(t, Notice{Kind: NoticeSuccess, Text: "Cadastro Nº 1 salvo com sucesso!"}, page.Notice)
	assert.Len(t, page.Records, 1)
	assert.Equal(t, "2026-10-15", page.Today)
	assert.Len(t, page.Options.Processes, 14)
}

func TestPageAfterValidationError(t *testing.T) {
	c := newTestController(&memStore{})
	form := validForm()
	form.Phone = "12a"

	res, _ := c.Submit(context.Background(), form)
	page, err := c.Page(context.Background(), res)
	require.NoError(t, err)

	assert.Equal(t, Notice{Kind: NoticeError, Text: MsgInvalidPhone}, page.Notice)
	assert.Equal(t, form, page.Form)
}

func TestPageInitialLoad(t *testing.T) {
	store := &memStore{records: []Record{{Number: 4, Name: "Ana"}}}
	c := newTestController(store)

	page, err := c.Page(context.Background(), Result{})
	require.NoError(t, err)
	assert.Equal(t, Notice{}, page.Notice)
	assert.Equal(t, store.records, page.Records)
}

func TestPageReadFailure(t *testing.T) {
	readErr := apperr.NewStoreError(apperr.StoreCorrupted, "cadastro.xlsx", "row 2", nil)
	notifier := &recordingNotifier{}
	c := newTestController(&memStore{readErr: readErr}, WithNotifier(notifier))

	page, err := c.Page(context.Background(), Result{})
	require.Error(t, err)
	assert.Equal(t, NoticeError, page.Notice.Kind)
	assert.Equal(t, msgStoreBroken, page.Notice.Text)
	assert.Equal(t, []string{"read"}, notifier.failures)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "editing", StateEditing.String())
	assert.Equal(t, "submitted", StateSubmitted.String())
}
