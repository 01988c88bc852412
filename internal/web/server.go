// Package web serves the complaint form, the printable report and the
// health endpoint over HTTP using gin.
package web

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"cadastro/internal/complaint"
	apperr "cadastro/internal/errors"
	"cadastro/internal/health"
	"cadastro/internal/storage"
	"cadastro/internal/summary"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Deps are the collaborators the handlers need.
type Deps struct {
	Controller *complaint.Controller
	StorePath  string
	Monitor    *health.Monitor
	Logger     *zap.Logger
	Now        func() time.Time
}

// formInput mirrors the HTML form field names.
type formInput struct {
	VR           string `form:"vr"`
	ReceivedDate string `form:"received_date"`
	Name         string `form:"name"`
	Phone        string `form:"phone"`
	Email        string `form:"email"`
	Process      string `form:"process"`
	Channel      string `form:"channel"`
	Description  string `form:"description"`
	Verdict      string `form:"verdict"`
	ReturnMethod string `form:"return_method"`
	Response     string `form:"response"`
	ReturnStatus string `form:"return_status"`
	ReturnDate   string `form:"return_date"`
	Action       string `form:"action"`
	ActionCost   string `form:"action_cost"`
}

func (in formInput) toForm() complaint.Form {
	return complaint.Form{
		VR:           in.VR,
		ReceivedDate: in.ReceivedDate,
		Name:         in.Name,
		Phone:        in.Phone,
		Email:        in.Email,
		Process:      in.Process,
		Channel:      in.Channel,
		Description:  in.Description,
		Verdict:      in.Verdict,
		ReturnMethod: in.ReturnMethod,
		Response:     in.Response,
		ReturnStatus: in.ReturnStatus,
		ReturnDate:   in.ReturnDate,
		Action:       in.Action,
		ActionCost:   in.ActionCost,
	}
}

// pageView is the data for page.html.
type pageView struct {
	complaint.Page
	Headers []string
}

// reportView is the data for relatorio.html.
type reportView struct {
	Records   []complaint.Record
	Headers   []string
	Generated string
}

type handler struct {
	Deps
	headers []string
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Monitor == nil {
		d.Monitor = health.NewMonitor(d.StorePath)
	}

	h := &handler{Deps: d, headers: columnHeaders()}

	r := gin.New()
	r.Use(requestLogger(d.Logger), gin.Recovery())
	r.SetHTMLTemplate(loadTemplates())

	r.GET("/", h.showForm)
	r.POST("/", h.submitForm)
	r.GET("/relatorio", h.showReport)
	r.GET("/relatorio.png", h.reportImage)
	r.GET("/relatorio.xlsx", h.downloadWorkbook)
	r.GET("/health", gin.WrapH(d.Monitor.Handler()))

	return r
}

func loadTemplates() *template.Template {
	funcs := template.FuncMap{"date": complaint.FormatDisplayDate}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

func columnHeaders() []string {
	headers := make([]string, len(storage.Columns))
	for i, col := range storage.Columns {
		headers[i] = col.Name
	}
	return headers
}

// requestLogger logs one line per request through zap.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

func (h *handler) showForm(c *gin.Context) {
	h.renderPage(c, complaint.Result{}, http.StatusOK)
}

func (h *handler) submitForm(c *gin.Context) {
	var in formInput
	if err := c.ShouldBind(&in); err != nil {
		c.String(http.StatusBadRequest, "formulário inválido")
		return
	}

	res, err := h.Controller.Submit(c.Request.Context(), in.toForm())
	status := http.StatusOK
	switch {
	case err == nil:
		h.Monitor.RecordSubmit("saved #"+strconv.Itoa(res.ComplaintNumber), false)
	case apperr.IsValidation(err):
		status = http.StatusUnprocessableEntity
	default:
		status = http.StatusInternalServerError
		h.Monitor.RecordSubmit("error: "+string(apperr.StoreKindOf(err)), true)
	}

	h.renderPage(c, res, status)
}

func (h *handler) renderPage(c *gin.Context, res complaint.Result, status int) {
	page, err := h.Controller.Page(c.Request.Context(), res)
	if err != nil && status == http.StatusOK {
		status = http.StatusInternalServerError
	}
	c.HTML(status, "page.html", pageView{Page: page, Headers: h.headers})
}

func (h *handler) showReport(c *gin.Context) {
	records, err := h.Controller.Records()
	if err != nil {
		h.Logger.Error("failed to read complaints for report", zap.Error(err))
		c.String(http.StatusInternalServerError, "Não foi possível ler a planilha de cadastros.")
		return
	}
	c.HTML(http.StatusOK, "relatorio.html", reportView{
		Records:   records,
		Headers:   h.headers,
		Generated: h.Now().Format("02/01/2006 15:04"),
	})
}

func (h *handler) reportImage(c *gin.Context) {
	records, err := h.Controller.Records()
	if err != nil {
		h.Logger.Error("failed to read complaints for summary", zap.Error(err))
		c.String(http.StatusInternalServerError, "Não foi possível ler a planilha de cadastros.")
		return
	}
	png, err := summary.RenderTable(records, h.Now())
	if errors.Is(err, summary.ErrNoRecords) {
		c.String(http.StatusNotFound, "Nenhum cadastro.")
		return
	}
	if err != nil {
		h.Logger.Error("failed to render summary", zap.Error(err))
		c.String(http.StatusInternalServerError, "Falha ao gerar a imagem.")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (h *handler) downloadWorkbook(c *gin.Context) {
	if _, err := os.Stat(h.StorePath); err != nil {
		c.String(http.StatusNotFound, "Planilha não encontrada.")
		return
	}
	c.Header("Content-Type", xlsxContentType)
	c.FileAttachment(h.StorePath, filepath.Base(h.StorePath))
}
