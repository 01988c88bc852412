// Package complaint provides the complaint record, its fixed value sets and
// the form controller that validates input and hands records to the store.
package complaint

import (
	"fmt"
	"time"
)

// Record is one row of the complaint table.
//
// Number is assigned by the store at append time and never changes
// afterwards. Dates carry no time of day and are kept at UTC midnight.
type Record struct {
	Number       int
	VR           string
	ReceivedDate time.Time
	Name         string
	Phone        string
	Email        string
	Process      Process
	Channel      Channel
	Description  string
	Verdict      Verdict
	ReturnMethod ReturnMethod
	Response     string
	ReturnStatus ReturnStatus
	ReturnDate   time.Time
	Action       string
	ActionCost   string
}

// Form is the raw user input for one candidate record.
//
// Dates use the HTML date input layout (YYYY-MM-DD). Select fields hold the
// option label. An empty select or date falls back to the widget default.
type Form struct {
	VR           string
	ReceivedDate string
	Name         string
	Phone        string
	Email        string
	Process      string
	Channel      string
	Description  string
	Verdict      string
	ReturnMethod string
	Response     string
	ReturnStatus string
	ReturnDate   string
	Action       string
	ActionCost   string
}

// DateLayout is the wire layout of date form fields.
const DateLayout = "2006-01-02"

// DisplayDateLayout matches the DD/MM/YYYY mask used in the spreadsheet.
const DisplayDateLayout = "02/01/2006"

// Process is the business area a complaint relates to.
type Process string

const (
	ProcessAtendimento     Process = "Atendimento"
	ProcessBilheteria      Process = "Bilheteria"
	ProcessComercial       Process = "Comercial"
	ProcessFinanceiro      Process = "Financeiro"
	ProcessMarketing       Process = "Marketing"
	ProcessOperacional     Process = "Operacional"
	ProcessParqueTematico  Process = "Parque Temático"
	ProcessMariaFumaca     Process = "Maria Fumaça"
	ProcessProdutoLogistic Process = "Produto e Logística"
	ProcessQualidade       Process = "Qualidade"
	ProcessReceptivo       Process = "Receptivo"
	ProcessReservas        Process = "Reservas"
	ProcessSiteDigital     Process = "Site / Serviços Digitais"
	ProcessSugestaoOutros  Process = "Sugestão / Outros"
)

// Processes lists every Process in dropdown order.
var Processes = []Process{
	ProcessAtendimento, ProcessBilheteria, ProcessComercial, ProcessFinanceiro,
	ProcessMarketing, ProcessOperacional, ProcessParqueTematico, ProcessMariaFumaca,
	ProcessProdutoLogistic, ProcessQualidade, ProcessReceptivo, ProcessReservas,
	ProcessSiteDigital, ProcessSugestaoOutros,
}

// Channel is how the complaint reached the company.
type Channel string

const (
	ChannelAtendimento    Channel = "Atendimento"
	ChannelAtraso         Channel = "Atraso / Horários"
	ChannelVenda          Channel = "Venda / Ingressos"
	ChannelPagamento      Channel = "Pagamento / Reembolso"
	ChannelSite           Channel = "Site / Sistema"
	ChannelAcessibilidade Channel = "Acessibilidade"
	ChannelPasseio        Channel = "Passeio / Transporte"
	ChannelAtracoes       Channel = "Atrações / Espetáculos"
	ChannelInfraestrutura Channel = "Infraestrutura / Conforto"
	ChannelOutros         Channel = "Outros"
)

// Channels lists every Channel in dropdown order.
var Channels = []Channel{
	ChannelAtendimento, ChannelAtraso, ChannelVenda, ChannelPagamento, ChannelSite,
	ChannelAcessibilidade, ChannelPasseio, ChannelAtracoes, ChannelInfraestrutura,
	ChannelOutros,
}

// Verdict records whether the complaint was judged founded.
type Verdict string

const (
	VerdictFounded    Verdict = "Procedente"
	VerdictNotFounded Verdict = "Não Procedente"
)

// Verdicts lists both verdicts in dropdown order.
var Verdicts = []Verdict{VerdictFounded, VerdictNotFounded}

// ReturnMethod is how the customer was answered.
type ReturnMethod string

const (
	ReturnTelefone     ReturnMethod = "Telefone"
	ReturnWhatsApp     ReturnMethod = "WhatsApp"
	ReturnEmail        ReturnMethod = "E-mail"
	ReturnPresencial   ReturnMethod = "Presencial"
	ReturnRedesSociais ReturnMethod = "Redes Sociais"
	ReturnReclameAqui  ReturnMethod = "Reclame Aqui"
	ReturnGoogle       ReturnMethod = "Google / Avaliações"
	ReturnPesquisa     ReturnMethod = "Pesquisa de Satisfação"
	ReturnProcon       ReturnMethod = "Procon / Sistema Oficial"
	ReturnOutros       ReturnMethod = "Outros"
)

// ReturnMethods lists every ReturnMethod in dropdown order.
var ReturnMethods = []ReturnMethod{
	ReturnTelefone, ReturnWhatsApp, ReturnEmail, ReturnPresencial, ReturnRedesSociais,
	ReturnReclameAqui, ReturnGoogle, ReturnPesquisa, ReturnProcon, ReturnOutros,
}

// ReturnStatus tracks the answer sent back to the customer.
type ReturnStatus string

const (
	StatusCompleted    ReturnStatus = "Concluído"
	StatusNotCompleted ReturnStatus = "Não Concluído"
	StatusInProgress   ReturnStatus = "Em Andamento"
)

// ReturnStatuses lists every ReturnStatus in dropdown order.
var ReturnStatuses = []ReturnStatus{StatusCompleted, StatusNotCompleted, StatusInProgress}

// ParseProcess returns the Process whose label is s.
func ParseProcess(s string) (Process, error) { return parseOption(s, Processes) }

// ParseChannel returns the Channel whose label is s.
func ParseChannel(s string) (Channel, error) { return parseOption(s, Channels) }

// ParseVerdict returns the Verdict whose label is s.
func ParseVerdict(s string) (Verdict, error) { return parseOption(s, Verdicts) }

// ParseReturnMethod returns the ReturnMethod whose label is s.
func ParseReturnMethod(s string) (ReturnMethod, error) { return parseOption(s, ReturnMethods) }

// ParseReturnStatus returns the ReturnStatus whose label is s.
func ParseReturnStatus(s string) (ReturnStatus, error) { return parseOption(s, ReturnStatuses) }

// parseOption maps a label onto its closed set. An empty label selects the
// first option, the way an untouched dropdown does.
func parseOption[T ~string](s string, options []T) (T, error) {
	if s == "" {
		return options[0], nil
	}
	for _, o := range options {
		if string(o) == s {
			return o, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unknown option %q", s)
}

// Labels converts an option set to plain strings for rendering.
func Labels[T ~string](options []T) []string {
	out := make([]string, len(options))
	for i, o := range options {
		out[i] = string(o)
	}
	return out
}

// FormFromRecord builds the form that would reproduce rec.
func FormFromRecord(rec Record) Form {
	return Form{
		VR:           rec.VR,
		ReceivedDate: formatDate(rec.ReceivedDate, DateLayout),
		Name:         rec.Name,
		Phone:        rec.Phone,
		Email:        rec.Email,
		Process:      string(rec.Process),
		Channel:      string(rec.Channel),
		Description:  rec.Description,
		Verdict:      string(rec.Verdict),
		ReturnMethod: string(rec.ReturnMethod),
		Response:     rec.Response,
		ReturnStatus: string(rec.ReturnStatus),
		ReturnDate:   formatDate(rec.ReturnDate, DateLayout),
		Action:       rec.Action,
		ActionCost:   rec.ActionCost,
	}
}

// FormatDisplayDate renders t as DD/MM/YYYY, or "" for the zero time.
func FormatDisplayDate(t time.Time) string {
	return formatDate(t, DisplayDateLayout)
}

func formatDate(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}
