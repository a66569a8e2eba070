package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gartstein/cafexport/internal/export/auth"
	"github.com/gartstein/cafexport/internal/export/engine"
	e "github.com/gartstein/cafexport/internal/export/errors"
	"github.com/gartstein/cafexport/internal/export/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testSecret = "secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// dummyExportController records calls and returns canned results.
type dummyExportController struct {
	saveContract func(context.Context, *models.Contract, map[uuid.UUID]bool) (*models.Contract, error)
	getContract  func(context.Context, uuid.UUID) (*models.Contract, error)
	alerts       func(context.Context, models.Company, time.Time) ([]engine.Alert, error)
	updateTask   func(context.Context, uuid.UUID, string, *models.TaskStatus, *models.TaskPriority) (*models.Shipment, error)
	getShipment  func(context.Context, uuid.UUID) (*models.Shipment, error)
	validateLot  func(context.Context, models.Company, string, string, uuid.UUID) error
	getRole      func(context.Context, uuid.UUID) (*models.Role, error)
	deleteRole   func(context.Context, uuid.UUID) error
	assignRole   func(context.Context, *models.User) (*models.User, error)
}

func (d *dummyExportController) SaveContract(ctx context.Context, c *models.Contract, u map[uuid.UUID]bool) (*models.Contract, error) {
	return d.saveContract(ctx, c, u)
}

func (d *dummyExportController) GetContract(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	return d.getContract(ctx, id)
}

func (d *dummyExportController) ListContracts(context.Context, models.Company) ([]models.Contract, error) {
	return nil, nil
}

func (d *dummyExportController) DeleteContract(context.Context, uuid.UUID) error {
	return nil
}

func (d *dummyExportController) ValidateLotNumber(ctx context.Context, c models.Company, hy, lot string, ex uuid.UUID) error {
	return d.validateLot(ctx, c, hy, lot, ex)
}

func (d *dummyExportController) PackagingSummary(context.Context, uuid.UUID) (engine.PackagingSummary, error) {
	return engine.PackagingSummary{}, nil
}

func (d *dummyExportController) Alerts(ctx context.Context, c models.Company, today time.Time) ([]engine.Alert, error) {
	return d.alerts(ctx, c, today)
}

func (d *dummyExportController) CreateDocument(_ context.Context, doc *models.Document) (*models.Document, error) {
	doc.ID = uuid.New()
	doc.Number = "INV-001"
	return doc, nil
}

func (d *dummyExportController) GetDocument(_ context.Context, id uuid.UUID) (*models.Document, error) {
	return nil, e.ErrNotFound
}

func (d *dummyExportController) UpdateDocument(_ context.Context, doc *models.Document) (*models.Document, error) {
	return doc, nil
}

func (d *dummyExportController) DeleteDocument(context.Context, uuid.UUID) error {
	return nil
}

func (d *dummyExportController) ListDocuments(context.Context, models.Company) ([]models.Document, error) {
	return nil, nil
}

func (d *dummyExportController) CreateShipment(context.Context, uuid.UUID, []uuid.UUID) (*models.Shipment, []models.Document, error) {
	return nil, nil, errors.New("not implemented")
}

func (d *dummyExportController) GetShipment(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	return d.getShipment(ctx, id)
}

func (d *dummyExportController) UpdateTask(ctx context.Context, id uuid.UUID, key string, s *models.TaskStatus, p *models.TaskPriority) (*models.Shipment, error) {
	return d.updateTask(ctx, id, key, s, p)
}

func (d *dummyExportController) DeleteShipment(context.Context, uuid.UUID) error {
	return nil
}

func (d *dummyExportController) SaveRole(_ context.Context, r *models.Role) (*models.Role, error) {
	return r, nil
}

func (d *dummyExportController) GetRole(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	return d.getRole(ctx, id)
}

func (d *dummyExportController) DeleteRole(ctx context.Context, id uuid.UUID) error {
	return d.deleteRole(ctx, id)
}

func (d *dummyExportController) AssignRole(ctx context.Context, u *models.User) (*models.User, error) {
	return d.assignRole(ctx, u)
}

func (d *dummyExportController) ListRoles(context.Context) ([]models.Role, error) {
	return []models.Role{{ID: uuid.New(), Name: "admin"}}, nil
}

type allowAll struct{ allowed bool }

func (a allowAll) Authorize(context.Context, uuid.UUID, models.Resource, models.Action) (bool, error) {
	return a.allowed, nil
}

func newTestRouter(t *testing.T, ctrl ExportController, allowed bool) *gin.Engine {
	logger := zaptest.NewLogger(t)
	h := NewExportHandler(ctrl, logger)
	h.now = func() time.Time { return time.Date(2024, time.November, 1, 9, 0, 0, 0, time.UTC) }
	return NewRouter(h, auth.NewGuard(allowAll{allowed}, logger), testSecret)
}

func doRequest(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	token, err := auth.GenerateToken(uuid.New(), uuid.New(), testSecret)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_Healthz(t *testing.T) {
	r := newTestRouter(t, &dummyExportController{}, false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_AuthAndPermissions(t *testing.T) {
	ctrl := &dummyExportController{}

	w := httptest.NewRecorder()
	newTestRouter(t, ctrl, true).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/roles", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(t, newTestRouter(t, ctrl, false), http.MethodGet, "/v1/roles", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, newTestRouter(t, ctrl, true), http.MethodGet, "/v1/roles", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_UnknownCompany(t *testing.T) {
	w := doRequest(t, newTestRouter(t, &dummyExportController{}, true), http.MethodGet, "/v1/companies/acme/contracts", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateContract(t *testing.T) {
	var gotUnlinked map[uuid.UUID]bool
	var gotCompany models.Company
	ctrl := &dummyExportController{
		saveContract: func(_ context.Context, c *models.Contract, u map[uuid.UUID]bool) (*models.Contract, error) {
			gotUnlinked = u
			gotCompany = c.Company
			c.ID = uuid.New()
			for i := range c.Partidas {
				c.Partidas[i].WeightQuintales = engine.QuintalesFromKg(c.Partidas[i].WeightKg)
			}
			return c, nil
		},
	}
	r := newTestRouter(t, ctrl, true)
	linked := false

	w := doRequest(t, r, http.MethodPost, "/v1/companies/pacifico/contracts", ContractDTO{
		Number:   "P-1",
		SaleDate: "2024-11-05",
		Partidas: []PartidaDTO{
			{LotNumber: "4", WeightKg: decimal.NewFromInt(920), CutoffDate: "2024-11-20"},
			{LotNumber: "5", WeightKg: decimal.NewFromInt(460), WeightLinked: &linked},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var out ContractDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, models.CompanyPacifico, gotCompany)
	assert.Empty(t, out.HarvestYear)
	assert.Equal(t, "2024-2025", out.ResolvedHarvestYear)
	require.Len(t, out.Partidas, 2)
	assert.Equal(t, "PAC-4", out.Partidas[0].DisplayNumber)
	assert.Equal(t, "2024-11-20", out.Partidas[0].CutoffDate)
	assert.True(t, out.Partidas[0].WeightQuintales.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, map[uuid.UUID]bool{out.Partidas[1].ID: true}, gotUnlinked)
}

func TestCreateContract_BadDate(t *testing.T) {
	w := doRequest(t, newTestRouter(t, &dummyExportController{}, true), http.MethodPost,
		"/v1/companies/delta/contracts", ContractDTO{Number: "C-1", SaleDate: "05/11/2024"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateContract_DuplicateLot(t *testing.T) {
	ctrl := &dummyExportController{
		saveContract: func(context.Context, *models.Contract, map[uuid.UUID]bool) (*models.Contract, error) {
			return nil, fmt.Errorf("wrapped: %w", &e.DuplicateLotError{LotNumber: "4", ContractNumber: "P-0"})
		},
	}
	w := doRequest(t, newTestRouter(t, ctrl, true), http.MethodPost, "/v1/companies/pacifico/contracts",
		ContractDTO{Number: "P-1", Partidas: []PartidaDTO{{LotNumber: "4"}}})

	require.Equal(t, http.StatusConflict, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "P-0", body["conflicting_contract"])
	assert.Equal(t, "4", body["lot_number"])
}

func TestGetContract_OtherCompany(t *testing.T) {
	ctrl := &dummyExportController{
		getContract: func(_ context.Context, id uuid.UUID) (*models.Contract, error) {
			return &models.Contract{ID: id, Company: models.CompanyDelta}, nil
		},
	}
	r := newTestRouter(t, ctrl, true)
	id := uuid.New()

	w := doRequest(t, r, http.MethodGet, "/v1/companies/pacifico/contracts/"+id.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, r, http.MethodGet, "/v1/companies/delta/contracts/"+id.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, r, http.MethodGet, "/v1/companies/delta/contracts/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateLot(t *testing.T) {
	ctrl := &dummyExportController{
		validateLot: func(_ context.Context, _ models.Company, hy, lot string, _ uuid.UUID) error {
			if lot == "4" {
				return &e.DuplicateLotError{LotNumber: lot, ContractNumber: "C-9"}
			}
			assert.Equal(t, "2024-2025", hy)
			return nil
		},
	}
	r := newTestRouter(t, ctrl, true)

	w := doRequest(t, r, http.MethodPost, "/v1/companies/delta/contracts/lots/validate",
		validateLotRequest{HarvestYear: "2024-2025", LotNumber: "5"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, r, http.MethodPost, "/v1/companies/delta/contracts/lots/validate",
		validateLotRequest{HarvestYear: "2024-2025", LotNumber: "4"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(t, r, http.MethodPost, "/v1/companies/delta/contracts/lots/validate",
		validateLotRequest{LotNumber: "4"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "harvest year required")
}

func TestAlerts(t *testing.T) {
	var gotToday time.Time
	ctrl := &dummyExportController{
		alerts: func(_ context.Context, _ models.Company, today time.Time) ([]engine.Alert, error) {
			gotToday = today
			return []engine.Alert{{LotNumber: "DEL-1", Kind: engine.AlertCutoff, DaysRemaining: 2, Message: "port cutoff in 2 day(s)"}}, nil
		},
	}
	r := newTestRouter(t, ctrl, true)

	w := doRequest(t, r, http.MethodGet, "/v1/companies/delta/alerts?today=2024-11-10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, gotToday.Day())
	var out []AlertDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "cutoff", out[0].Kind)

	w = doRequest(t, r, http.MethodGet, "/v1/companies/delta/alerts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, gotToday.Day(), "defaults to the current day")

	w = doRequest(t, r, http.MethodGet, "/v1/companies/delta/alerts?today=tomorrow", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateTask(t *testing.T) {
	shipmentID := uuid.New()
	ctrl := &dummyExportController{
		getShipment: func(_ context.Context, id uuid.UUID) (*models.Shipment, error) {
			return &models.Shipment{ID: id, Company: models.CompanyDelta, Tasks: engine.NewTasks()}, nil
		},
		updateTask: func(_ context.Context, id uuid.UUID, key string, s *models.TaskStatus, p *models.TaskPriority) (*models.Shipment, error) {
			assert.Equal(t, "booking", key)
			assert.Nil(t, p)
			sh := &models.Shipment{ID: id, Company: models.CompanyDelta, Tasks: engine.NewTasks()}
			if err := engine.SetTaskStatus(sh.Tasks, key, *s); err != nil {
				return nil, err
			}
			return sh, nil
		},
	}
	status := models.TaskCompleted

	w := doRequest(t, newTestRouter(t, ctrl, true), http.MethodPatch,
		"/v1/companies/delta/shipments/"+shipmentID.String()+"/tasks/booking", updateTaskRequest{Status: &status})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out ShipmentDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "completed", out.Tasks[0].Status)
	assert.Equal(t, 1, out.Done)
	assert.Equal(t, len(engine.ShipmentTaskTemplate), out.Total)
}

func TestRoleRoutes(t *testing.T) {
	roleID := uuid.New()
	var assigned *models.User
	ctrl := &dummyExportController{
		getRole: func(_ context.Context, id uuid.UUID) (*models.Role, error) {
			if id != roleID {
				return nil, e.ErrNotFound
			}
			return &models.Role{ID: roleID, Name: "sales"}, nil
		},
		deleteRole: func(context.Context, uuid.UUID) error { return nil },
		assignRole: func(_ context.Context, u *models.User) (*models.User, error) {
			if u.RoleID != roleID {
				return nil, fmt.Errorf("%w: unknown role", e.ErrInvalidInput)
			}
			assigned = u
			return u, nil
		},
	}
	r := newTestRouter(t, ctrl, true)

	w := doRequest(t, r, http.MethodGet, "/v1/roles/"+roleID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var role RoleDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &role))
	assert.Equal(t, "sales", role.Name)

	w = doRequest(t, r, http.MethodGet, "/v1/roles/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, r, http.MethodDelete, "/v1/roles/"+roleID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	userID := uuid.New()
	w = doRequest(t, r, http.MethodPut, "/v1/users/"+userID.String(), UserDTO{Name: "ana", RoleID: roleID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, assigned)
	assert.Equal(t, userID, assigned.ID)

	w = doRequest(t, r, http.MethodPut, "/v1/users/"+userID.String(), UserDTO{Name: "ana", RoleID: uuid.New()})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, r, http.MethodPut, "/v1/users/"+userID.String(), map[string]string{"name": "ana"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "role_id is required")
}

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("x: %w", e.ErrNotFound), http.StatusNotFound},
		{e.ErrInvalidInput, http.StatusBadRequest},
		{e.ErrMissingScope, http.StatusBadRequest},
		{e.ErrDuplicateLotNumber, http.StatusConflict},
		{e.ErrImmutableField, http.StatusConflict},
		{e.ErrConcurrentUpdate, http.StatusConflict},
		{e.ErrInvalidPermission, http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h := NewExportHandler(&dummyExportController{}, zaptest.NewLogger(t))
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.mapServiceError(c, tt.err)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}
