package complaint

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperr "cadastro/internal/errors"

	"go.uber.org/zap"
)

// Store is the persistence the controller needs.
//
// Append assigns the complaint number, writes the row and reformats the
// backing file before returning the stored record.
type Store interface {
	ReadAll() ([]Record, error)
	Append(rec Record) (Record, error)
}

// Notifier is told about saved complaints and store failures.
// A nil Notifier disables notifications.
type Notifier interface {
	NotifyComplaint(ctx context.Context, rec Record) error
	NotifyFailure(ctx context.Context, operation string, err error) error
}

// State is the observable state of the form.
type State int

const (
	// StateEditing is the default: fields hold user input.
	StateEditing State = iota
	// StateSubmitted follows a successful save until the next render.
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateSubmitted:
		return "submitted"
	default:
		return "editing"
	}
}

// Result is the outcome of the last form operation. It is passed explicitly
// into the render step; the controller keeps no per-page state of its own.
type Result struct {
	State           State
	ComplaintNumber int
	Form            Form
	Err             error
}

// NoticeKind selects how a notice is styled.
type NoticeKind string

const (
	NoticeNone    NoticeKind = ""
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is the success/error message shown above the table.
type Notice struct {
	Kind NoticeKind
	Text string
}

// Options holds the dropdown value sets for rendering.
type Options struct {
	Processes      []string
	Channels       []string
	Verdicts       []string
	ReturnMethods  []string
	ReturnStatuses []string
}

// Page is everything the UI needs to draw the form and the full table.
type Page struct {
	Form    Form
	Notice  Notice
	Options Options
	Records []Record
	Today   string
}

const (
	msgSaved       = "Cadastro Nº %d salvo com sucesso!"
	msgSaveFailed  = "Não foi possível salvar o cadastro."
	msgReadFailed  = "Não foi possível ler a planilha de cadastros."
	msgStoreBroken = "A planilha de cadastros está corrompida e precisa ser corrigida manualmente."
)

// Controller collects candidate records, validates them and hands them to
// the store.
type Controller struct {
	mu          sync.Mutex
	store       Store
	notifier    Notifier
	logger      *zap.Logger
	now         func() time.Time
	clearOnSave bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithNotifier sets the notifier told about saves and store failures.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// WithLogger sets the controller logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithClock overrides the clock used for default dates.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithClearOnSave controls whether the form is emptied after a successful save.
func WithClearOnSave(clear bool) Option {
	return func(c *Controller) { c.clearOnSave = clear }
}

// NewController creates a controller backed by store.
func NewController(store Store, opts ...Option) *Controller {
	c := &Controller{
		store:       store,
		logger:      zap.NewNop(),
		now:         time.Now,
		clearOnSave: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit validates form and appends it to the store.
//
// Validation failures return before any file I/O. Every call that passes
// validation creates a new record with a new number, even for identical
// input. Notification failures are logged and never fail the submission.
//
// Thread-safety:
//   - Safe for concurrent use
//   - Validation runs unlocked; the store append is serialized by c.mu
//
// Parameters:
//   - ctx: Context for the optional notifier calls
//   - form: Raw field values as entered by the user
//
// Returns:
//   - Result: StateSubmitted with the new number on success, otherwise
//     StateEditing with the user's input kept and Err set
//   - error: *errors.ValidationError or *errors.StoreError, nil on success
func (c *Controller) Submit(ctx context.Context, form Form) (Result, error) {
	rec, err := Validate(form, c.now())
	if err != nil {
		c.logger.Info("submission rejected",
			zap.String("kind", string(apperr.KindOf(err))),
			zap.Error(err))
		return Result{State: StateEditing, Form: form, Err: err}, err
	}

	c.mu.Lock()
	saved, err := c.store.Append(rec)
	c.mu.Unlock()
	if err != nil {
		c.logger.Error("failed to save complaint", zap.Error(err))
		c.notifyFailure(ctx, "append", err)
		return Result{State: StateEditing, Form: form, Err: err}, err
	}

	c.logger.Info("complaint saved",
		zap.Int("complaint_number", saved.Number),
		zap.String("process", string(saved.Process)))

	if c.notifier != nil {
		if nerr := c.notifier.NotifyComplaint(ctx, saved); nerr != nil {
			c.logger.Warn("failed to send complaint notification", zap.Error(nerr))
		}
	}

	res := Result{State: StateSubmitted, ComplaintNumber: saved.Number}
	if !c.clearOnSave {
		res.Form = form
	}
	return res, nil
}

// Page re-reads the full table and builds the page for the last result.
//
// A store read failure still yields a renderable page carrying the error
// notice alongside the returned error.
func (c *Controller) Page(ctx context.Context, last Result) (Page, error) {
	page := Page{
		Form:    last.Form,
		Notice:  noticeFor(last),
		Options: DefaultOptions(),
		Today:   c.now().Format(DateLayout),
	}

	records, err := c.store.ReadAll()
	if err != nil {
		c.logger.Error("failed to read complaints", zap.Error(err))
		c.notifyFailure(ctx, "read", err)
		page.Notice = Notice{Kind: NoticeError, Text: storeMessage(err, msgReadFailed)}
		return page, err
	}
	page.Records = records
	return page, nil
}

// Records returns every stored record in file order.
func (c *Controller) Records() ([]Record, error) {
	return c.store.ReadAll()
}

// DefaultOptions returns the dropdown value sets.
func DefaultOptions() Options {
	return Options{
		Processes:      Labels(Processes),
		Channels:       Labels(Channels),
		Verdicts:       Labels(Verdicts),
		ReturnMethods:  Labels(ReturnMethods),
		ReturnStatuses: Labels(ReturnStatuses),
	}
}

func (c *Controller) notifyFailure(ctx context.Context, op string, err error) {
	if c.notifier == nil || !apperr.IsStore(err) {
		return
	}
	if nerr := c.notifier.NotifyFailure(ctx, op, err); nerr != nil {
		c.logger.Warn("failed to send failure alert", zap.Error(nerr))
	}
}

func noticeFor(r Result) Notice {
	switch {
	case r.State == StateSubmitted:
		return Notice{Kind: NoticeSuccess, Text: fmt.Sprintf(msgSaved, r.ComplaintNumber)}
	case r.Err == nil:
		return Notice{}
	case apperr.IsValidation(r.Err):
		ve, _ := apperr.AsValidation(r.Err)
		return Notice{Kind: NoticeError, Text: ve.Message}
	default:
		return Notice{Kind: NoticeError, Text: storeMessage(r.Err, msgSaveFailed)}
	}
}

func storeMessage(err error, fallback string) string {
	if apperr.IsStoreCorrupted(err) {
		return msgStoreBroken
	}
	return fallback
}
