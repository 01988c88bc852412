package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cadastro/internal/complaint"
	"cadastro/internal/health"
	"cadastro/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

var today = time.Date(2026, 10, 15, 14, 30, 0, 0, time.UTC)

type testEnv struct {
	router *gin.Engine
	store  *storage.Store
}

func newTestEnv(t *testing.T, initialize bool) testEnv {
	t.Helper()
	store := storage.New(filepath.Join(t.TempDir(), "cadastro.xlsx"))
	if initialize {
		require.NoError(t, store.Initialize())
	}
	clock := func() time.Time { return today }
	ctrl := complaint.NewController(store, complaint.WithClock(clock))
	router := NewRouter(Deps{
		Controller: ctrl,
		StorePath:  store.Path(),
		Monitor:    health.NewMonitor(store.Path()),
		Now:        clock,
	})
	return testEnv{router: router, store: store}
}

func (e testEnv) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func validForm() url.Values {
	return url.Values{
		"name":  {"Maria Silva"},
		"email": {"maria@example.com"},
		"phone": {"11987654321"},
	}
}

func TestShowFormEmptyStore(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Cadastro de Reclamação")
	assert.Contains(t, body, "Salvar")
	assert.Contains(t, body, "Cadastros existentes")
	assert.Contains(t, body, "Nenhum cadastro.")
	assert.Contains(t, body, `value="2026-10-15"`)
	assert.Contains(t, body, "Nº Reclamação")
}

func TestSubmitSavesAndShowsRecord(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(http.MethodPost, "/", validForm())

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Cadastro Nº 1 salvo com sucesso!")
	assert.Contains(t, body, "Maria Silva")
	assert.Contains(t, body, "15/10/2026")

	records, err := env.store.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].Number)
	assert.Equal(t, complaint.ProcessAtendimento, records[0].Process)

	rec = env.do(http.MethodPost, "/", validForm())
	assert.Contains(t, rec.Body.String(), "Cadastro Nº 2 salvo com sucesso!")
}

func TestSubmitClearsForm(t *testing.T) {
	env := newTestEnv(t, true)

	form := validForm()
	form.Set("action_cost", "R$ 987,65")
	rec := env.do(http.MethodPost, "/", form)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `value="R$ 987,65"`)
}

func TestSubmitValidationError(t *testing.T) {
	env := newTestEnv(t, true)

	form := validForm()
	form.Set("email", "not-an-email")
	rec := env.do(http.MethodPost, "/", form)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "E-mail inválido.")
	assert.Contains(t, body, `value="not-an-email"`)

	records, err := env.store.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSubmitMissingFields(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(http.MethodPost, "/", url.Values{"name": {"Maria"}})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Preencha os campos obrigatórios")
}

func TestSubmitStoreFailure(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(http.MethodPost, "/", validForm())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	hrec := env.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, hrec.Code)
	var st health.Status
	require.NoError(t, json.Unmarshal(hrec.Body.Bytes(), &st))
	assert.Equal(t, "error: StoreUnreadable", st.LastSubmitStatus)
}

func TestShowFormUnreadableStore(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Não foi possível ler a planilha de cadastros.")
}

func TestReport(t *testing.T) {
	env := newTestEnv(t, true)
	env.do(http.MethodPost, "/", validForm())

	rec := env.do(http.MethodGet, "/relatorio", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Maria Silva")
	assert.Contains(t, rec.Body.String(), "Gerado em 15/10/2026 14:30")
}

func TestReportImage(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(http.MethodGet, "/relatorio.png", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	env.do(http.MethodPost, "/", validForm())
	rec = env.do(http.MethodGet, "/relatorio.png", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))
}

func TestDownloadWorkbook(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(http.MethodGet, "/relatorio.xlsx", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "cadastro.xlsx")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))
}

func TestDownloadWorkbookMissing(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(http.MethodGet, "/relatorio.xlsx", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthCountsSubmissions(t *testing.T) {
	env := newTestEnv(t, true)
	env.do(http.MethodPost, "/", validForm())

	rec := env.do(http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var st health.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 1, st.Submissions)
	assert.Equal(t, "saved #1", st.LastSubmitStatus)
}
