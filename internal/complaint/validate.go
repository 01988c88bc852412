package complaint

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	apperr "cadastro/internal/errors"

	"github.com/xuri/excelize/v2"
)

// User-facing messages for each validation failure.
const (
	MsgMissingRequired = "Preencha os campos obrigatórios: Nome/Razão Social, Email e Telefone."
	MsgInvalidEmail    = "E-mail inválido."
	MsgInvalidPhone    = "Telefone inválido. Apenas números, entre 8 e 15 dígitos."
	MsgInvalidOption   = "Opção inválida em %s."
	MsgInvalidDate     = "Data inválida em %s."
	MsgFieldTooLong    = "Texto muito longo em %s (máximo de %d caracteres)."
)

// MaxTextLen is the most characters a spreadsheet cell holds. Longer text
// would be cut silently on save.
const MaxTextLen = excelize.TotalCellChars

// minDate is the first date whose Excel serial reads back unchanged; serials
// before it are shifted by the 1900 leap-year bug.
var minDate = time.Date(1900, time.March, 1, 0, 0, 0, 0, time.UTC)

const (
	minPhoneLen = 8
	maxPhoneLen = 15
)

// emailPattern is matched from the start of the address only; anything after
// a valid local@domain.tld prefix is accepted.
var emailPattern = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+`)

// ValidEmail reports whether email has the basic local@domain.tld shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidPhone reports whether phone is 8 to 15 ASCII digits.
func ValidPhone(phone string) bool {
	if len(phone) < minPhoneLen || len(phone) > maxPhoneLen {
		return false
	}
	for i := 0; i < len(phone); i++ {
		if phone[i] < '0' || phone[i] > '9' {
			return false
		}
	}
	return true
}

// Validate checks a candidate form and converts it into a Record.
//
// Checks run in a fixed order and the first failure is the only one
// reported:
//  1. name, email and phone present
//  2. email shape
//  3. phone digits and length
//  4. free-text fields fit in one spreadsheet cell
//  5. select values belong to their option sets
//  6. dates parse and fall on or after 1900-03-01
//
// Parameters:
//   - form: raw input; fields are trimmed and stripped of control
//     characters that a workbook cannot store
//   - today: the default for empty date fields
//
// Returns:
//   - Record: the candidate record, without a Number
//   - error: a *errors.ValidationError for the first failed check
func Validate(form Form, today time.Time) (Record, error) {
	form = trimForm(form)

	if form.Name == "" {
		return Record{}, apperr.NewValidationError(apperr.MissingRequiredField, "name", MsgMissingRequired)
	}
	if form.Email == "" {
		return Record{}, apperr.NewValidationError(apperr.MissingRequiredField, "email", MsgMissingRequired)
	}
	if form.Phone == "" {
		return Record{}, apperr.NewValidationError(apperr.MissingRequiredField, "phone", MsgMissingRequired)
	}
	if !ValidEmail(form.Email) {
		return Record{}, apperr.NewValidationError(apperr.InvalidEmail, "email", MsgInvalidEmail)
	}
	if !ValidPhone(form.Phone) {
		return Record{}, apperr.NewValidationError(apperr.InvalidPhone, "phone", MsgInvalidPhone)
	}

	if err := checkLengths(form); err != nil {
		return Record{}, err
	}

	rec := Record{
		VR:          form.VR,
		Name:        form.Name,
		Phone:       form.Phone,
		Email:       form.Email,
		Description: form.Description,
		Response:    form.Response,
		Action:      form.Action,
		ActionCost:  form.ActionCost,
	}

	var err error
	if rec.Process, err = ParseProcess(form.Process); err != nil {
		return Record{}, optionError("process", "Processo Relacionado a Reclamação")
	}
	if rec.Channel, err = ParseChannel(form.Channel); err != nil {
		return Record{}, optionError("channel", "Canal de Entrada da Reclamação")
	}
	if rec.Verdict, err = ParseVerdict(form.Verdict); err != nil {
		return Record{}, optionError("verdict", "Procedente/Não Procedente")
	}
	if rec.ReturnMethod, err = ParseReturnMethod(form.ReturnMethod); err != nil {
		return Record{}, optionError("return_method", "Forma de Retorno")
	}
	if rec.ReturnStatus, err = ParseReturnStatus(form.ReturnStatus); err != nil {
		return Record{}, optionError("return_status", "Status do Retorno ao Cliente")
	}

	if rec.ReceivedDate, err = parseFormDate(form.ReceivedDate, today); err != nil {
		return Record{}, dateError("received_date", "Data Recebimento")
	}
	if rec.ReturnDate, err = parseFormDate(form.ReturnDate, today); err != nil {
		return Record{}, dateError("return_date", "Data do Retorno")
	}

	return rec, nil
}

// Day truncates t to a UTC-midnight calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseFormDate(s string, today time.Time) (time.Time, error) {
	if s == "" {
		return Day(today), nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	if t.Before(minDate) {
		return time.Time{}, fmt.Errorf("date %s is before %s", s, minDate.Format(DateLayout))
	}
	return t, nil
}

// checkLengths rejects free text that would not fit in a cell.
func checkLengths(f Form) error {
	fields := []struct {
		name, label, value string
	}{
		{"vr", "VR", f.VR},
		{"name", "Nome/Razão Social", f.Name},
		{"email", "Email", f.Email},
		{"description", "Descrição da Reclamação", f.Description},
		{"response", "Descrição da Resposta", f.Response},
		{"action", "Ação tomada", f.Action},
		{"action_cost", "Custo da Ação", f.ActionCost},
	}
	for _, fld := range fields {
		if utf8.RuneCountInString(fld.value) > MaxTextLen {
			return apperr.NewValidationError(apperr.FieldTooLong, fld.name,
				fmt.Sprintf(MsgFieldTooLong, fld.label, MaxTextLen))
		}
	}
	return nil
}

func optionError(field, label string) error {
	return apperr.NewValidationError(apperr.InvalidOption, field, fmt.Sprintf(MsgInvalidOption, label))
}

func dateError(field, label string) error {
	return apperr.NewValidationError(apperr.InvalidDate, field, fmt.Sprintf(MsgInvalidDate, label))
}

func trimForm(f Form) Form {
	return Form{
		VR:           cleanText(f.VR),
		ReceivedDate: cleanText(f.ReceivedDate),
		Name:         cleanText(f.Name),
		Phone:        cleanText(f.Phone),
		Email:        cleanText(f.Email),
		Process:      cleanText(f.Process),
		Channel:      cleanText(f.Channel),
		Description:  cleanText(f.Description),
		Verdict:      cleanText(f.Verdict),
		ReturnMethod: cleanText(f.ReturnMethod),
		Response:     cleanText(f.Response),
		ReturnStatus: cleanText(f.ReturnStatus),
		ReturnDate:   cleanText(f.ReturnDate),
		Action:       cleanText(f.Action),
		ActionCost:   cleanText(f.ActionCost),
	}
}

// cleanText trims s and drops characters XML 1.0 cannot carry, which the
// workbook would otherwise replace on read.
func cleanText(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r < 0x20, r == 0xFFFE, r == 0xFFFF:
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
