package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gartstein/cafexport/internal/export/auth"
	"github.com/gartstein/cafexport/internal/export/engine"
	e "github.com/gartstein/cafexport/internal/export/errors"
	"github.com/gartstein/cafexport/internal/export/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExportController defines the business logic interface that the HTTP
// handlers invoke.
type ExportController interface {
	SaveContract(ctx context.Context, c *models.Contract, unlinkedLots map[uuid.UUID]bool) (*models.Contract, error)
	GetContract(ctx context.Context, id uuid.UUID) (*models.Contract, error)
	ListContracts(ctx context.Context, company models.Company) ([]models.Contract, error)
	DeleteContract(ctx context.Context, id uuid.UUID) error
	ValidateLotNumber(ctx context.Context, company models.Company, harvestYear, lot string, excludeLotID uuid.UUID) error
	PackagingSummary(ctx context.Context, contractID uuid.UUID) (engine.PackagingSummary, error)
	Alerts(ctx context.Context, company models.Company, today time.Time) ([]engine.Alert, error)

	CreateDocument(ctx context.Context, d *models.Document) (*models.Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error)
	UpdateDocument(ctx context.Context, d *models.Document) (*models.Document, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error
	ListDocuments(ctx context.Context, company models.Company) ([]models.Document, error)

	CreateShipment(ctx context.Context, contractID uuid.UUID, partidaIDs []uuid.UUID) (*models.Shipment, []models.Document, error)
	GetShipment(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	UpdateTask(ctx context.Context, shipmentID uuid.UUID, key string, status *models.TaskStatus, priority *models.TaskPriority) (*models.Shipment, error)
	DeleteShipment(ctx context.Context, id uuid.UUID) error

	SaveRole(ctx context.Context, role *models.Role) (*models.Role, error)
	GetRole(ctx context.Context, id uuid.UUID) (*models.Role, error)
	DeleteRole(ctx context.Context, id uuid.UUID) error
	ListRoles(ctx context.Context) ([]models.Role, error)
	AssignRole(ctx context.Context, user *models.User) (*models.User, error)
}

// ExportHandler serves the export API over HTTP, mapping requests to an
// ExportController.
type ExportHandler struct {
	service ExportController
	logger  *zap.Logger
	now     func() time.Time
}

func NewExportHandler(service ExportController, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{
		service: service,
		logger:  logger.Named("http_handler"),
		now:     time.Now,
	}
}

const companyKey = "company"

// NewRouter returns the gin engine serving the API. Every route except
// /healthz requires a bearer token and the permission named next to it.
func NewRouter(h *ExportHandler, guard *auth.Guard, jwtSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	v1 := r.Group("/v1", auth.Middleware(jwtSecret))
	need := guard.Require

	v1.GET("/roles", need(models.ResourceRoles, models.ActionView), h.ListRoles)
	v1.GET("/roles/:id", need(models.ResourceRoles, models.ActionView), h.GetRole)
	v1.PUT("/roles/:id", need(models.ResourceRoles, models.ActionEdit), h.SaveRole)
	v1.DELETE("/roles/:id", need(models.ResourceRoles, models.ActionDelete), h.DeleteRole)
	v1.PUT("/users/:id", need(models.ResourceRoles, models.ActionEdit), h.AssignRole)

	co := v1.Group("/companies/:company", companyParam)

	co.GET("/contracts", need(models.ResourceContracts, models.ActionView), h.ListContracts)
	co.POST("/contracts", need(models.ResourceContracts, models.ActionCreate), h.CreateContract)
	co.POST("/contracts/lots/validate", need(models.ResourcePartidas, models.ActionView), h.ValidateLot)
	co.GET("/contracts/:id", need(models.ResourceContracts, models.ActionView), h.GetContract)
	co.PUT("/contracts/:id", need(models.ResourceContracts, models.ActionEdit), h.UpdateContract)
	co.DELETE("/contracts/:id", need(models.ResourceContracts, models.ActionDelete), h.DeleteContract)
	co.GET("/contracts/:id/packaging", need(models.ResourcePartidas, models.ActionView), h.PackagingSummary)

	co.GET("/alerts", need(models.ResourceAlerts, models.ActionView), h.Alerts)

	co.GET("/documents", need(models.ResourceDocuments, models.ActionView), h.ListDocuments)
	co.POST("/documents", need(models.ResourceDocuments, models.ActionCreate), h.CreateDocument)
	co.GET("/documents/:id", need(models.ResourceDocuments, models.ActionView), h.GetDocument)
	co.PATCH("/documents/:id", need(models.ResourceDocuments, models.ActionEdit), h.UpdateDocument)
	co.DELETE("/documents/:id", need(models.ResourceDocuments, models.ActionDelete), h.DeleteDocument)

	co.POST("/shipments", need(models.ResourceShipments, models.ActionCreate), h.CreateShipment)
	co.GET("/shipments/:id", need(models.ResourceShipments, models.ActionView), h.GetShipment)
	co.DELETE("/shipments/:id", need(models.ResourceShipments, models.ActionDelete), h.DeleteShipment)
	co.PATCH("/shipments/:id/tasks/:key", need(models.ResourceShipments, models.ActionEdit), h.UpdateTask)

	return r
}

func companyParam(c *gin.Context) {
	company, err := models.ParseCompany(c.Param("company"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Set(companyKey, company)
	c.Next()
}

func companyOf(c *gin.Context) models.Company {
	return c.MustGet(companyKey).(models.Company)
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ID"})
		return uuid.Nil, false
	}
	return id, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// mapServiceError writes the HTTP status matching err.
func (h *ExportHandler) mapServiceError(c *gin.Context, err error) {
	var dup *e.DuplicateLotError
	switch {
	case errors.As(err, &dup):
		c.JSON(http.StatusConflict, gin.H{
			"error":                err.Error(),
			"lot_number":           dup.LotNumber,
			"conflicting_contract": dup.ContractNumber,
		})
	case errors.Is(err, e.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, e.ErrInvalidInput), errors.Is(err, e.ErrMissingScope):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, e.ErrDuplicateLotNumber),
		errors.Is(err, e.ErrImmutableField),
		errors.Is(err, e.ErrConcurrentUpdate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, e.ErrInvalidPermission):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Request failed",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// notFound answers 404 for entities of another company than the path names.
func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": e.ErrNotFound.Error()})
}

func (h *ExportHandler) ListContracts(c *gin.Context) {
	contracts, err := h.service.ListContracts(c.Request.Context(), companyOf(c))
	if err != nil {
		h.mapServiceError(c, err)
		return
	}
	out := make([]ContractDTO, 0, len(contracts))
	for i := range contracts {
		out = append(out, contractToDTO(&contracts[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *ExportHandler) CreateContract(c *gin.Context) {
	var dto ContractDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	dto.ID = uuid.Nil
	h.saveContract(c, &dto, http.StatusCreated)
}

func (h *ExportHandler) UpdateContract(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var dto ContractDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	existing, err := h.service.GetContract(c.Request.Context(), id)
	if err != nil {
		h.mapServiceError(c, err)
		return
	}
	if existing.Company != companyOf(c) {
		notFound(c)
		return
	}
	dto.ID = id
	h.saveContract(c, &dto, http.StatusOK)
}

func (h *ExportHandler) saveContract(c *gin.Context, dto *ContractDTO, status int) {
	contract, unlinked, err := dtoToContract(companyOf(c), dto)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	saved, err := h.service.SaveContract(c.Request.Context(), contract, unlinked)
	if err != nil {
		h.mapServiceError(c, err)
		return
	}
	c.JSON(status, contractToDTO(saved))
}

// contractInCompany loads the contract named by the path, answering 404 when
// it belongs to another company.
func (h *ExportHandler) contractInCompany(c *gin.Context) (*models.Contract, bool) {
	id, ok := pathID(c)
	if !ok {
		return nil, false
	}
	contract, err := h.service.GetContract(c.Request.Context(), id)
	if err != nil {
		h.mapServiceError(c, err)
		return nil, false
	}
	if contract.Company != companyOf(c) {
		notFound(c)
		return nil, false
	}
	return contract, true
}

func (h *ExportHandler) GetContract(c *gin.Context) {
	contract, ok := h.contractInCompany(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, contractToDTO(contract))
}

func (h *ExportHandler) DeleteContract(c *gin.Context) {
	contract, ok := h.contractInCompany(c)
	if !ok {
		return
	}
	if err := h.service.DeleteContract(c.Request.Context(), contract.ID); err != nil {
		h.mapServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type validateLotRequest struct {
	HarvestYear  string    `json:"harvest_year" binding:"required"`
	LotNumber    string    `json:"lot_number"`
	ExcludeLotID uuid.UUID `json:"exclude_lot_id"`
}

func (h *ExportHandler) ValidateLot(c *gin.Context) {
	var req validateLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	err := h.service.ValidateLotNumber(c.Request.Context(), companyOf(c), req.HarvestYear, req.LotNumber, req.ExcludeLotID)
	if err != nil {
		h.mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

func (h *ExportHandler) PackagingSummary(c *gin.Context) {
	contract, ok := h.contractInCompany(c)
	if !ok {
		return
	}
	summary, err := h.service.PackagingSummary(c.Request.Context(), contract.ID)
	if err != nil {
		h.mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaryToDTO(summary))
}

func (h *ExportHandler) Alerts(c *gin.Context) {
	today := h.now()
	if q := c.Query("today"); q != "" {
		t, err := parseDate(q)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		today = t
	}
	alerts, err := h.service.Alerts(c.Request.Context(), companyOf(c), today)
	if err != nil {
		h.mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, alertsToDTO(alerts))
}

func (h *ExportHandler) ListDocuments(c *gin.Context) {
	docs, err := h.service.ListDocuments(c.Request.Context(), companyOf(c))
	if err != nil {
		h.mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, documentsToDTO(docs))
}

func (h *ExportHandler) CreateDocument(c *gin.Context) {
	var dto DocumentDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	doc, err := dtoToDocument(companyOf(c), &dto)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	created, err := h.service.CreateDocument(c.Request.Context(), doc)
	if err != nil {
		h.mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, documentToDTO(created))
}

func (h *ExportHandler) documentInCompany(c *gin.Context) (*models.Document, bool) {
	id, ok := pathID(c)
	if !ok {
		return nil, false
	}
	doc, err := h.service.GetDocument(c.Request.Context(), id)
	if err != nil {
		h.mapServiceError(c, err)
		return nil, false
	}
	if doc.Company != companyOf(c) {
		notFound(c)
		return nil, false
	}
	return doc, true
}

func (h *ExportHandler) GetDocument(c *gin.Context) {
	doc, ok := h.documentInCompany(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, documentToDTO(doc))
}

func (h *ExportHandler) UpdateDocument(c *gin.Context) {
	existing, ok := h.documentInCompany(c)
	if !ok {
		return
	}
	var dto DocumentDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	doc, err := dtoToDocument(companyOf(c), &dto)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	doc.ID = existing.ID
	updated, err := h.service.UpdateDocument(c.Request.Context(), doc)
	if err != nil {
		h.mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, documentToDTO(updated))
}

func (h *ExportHandler) DeleteDocument(c *gin.Context) {
	doc, ok := h.documentInCompany(c)
	if !ok {
		return
	}
	if err := h.service.DeleteDocument(c.Request.Context(), doc.ID); err != nil {
		h.mapServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createShipmentRequest struct {
	ContractID uuid.UUID   `json:"contract_id" binding:"required"`
	PartidaIDs []uuid.UUID `json:"partida_ids" binding:"required"`
}

type createShipmentResponse struct {
	Shipment  ShipmentDTO   `json:"shipment"`
	Documents []DocumentDTO `json:"documents"`
}

func (h *ExportHandler) CreateShipment(c *gin.Context) {
	var req createShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	contract, err := h.service.GetContract(c.Request.Context(), req.ContractID)
	if err != nil {
		h.mapServiceError(c, err)
		return
	}
	if contract.Company != companyOf(c) {
		notFound(c)
		return
	}
	shipment, docs, err := h.service.CreateShipment(c.Request.Context(), req.ContractID, req.PartidaIDs)
	if err != nil {
		h.mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, createShipmentResponse{
		Shipment:  shipmentToDTO(shipment),
		Documents: documentsToDTO(docs),
	})
}

func (h *ExportHandler) shipmentInCompany(c *gin.Context) (*models.Shipment, bool) {
	id, ok := pathID(c)
	if !ok {
		return nil, false
	}
	shipment, err := h.service.GetShipment(c.Request.Context(), id)
	if err != nil {
		h.mapServiceError(c, err)
		return nil, false
	}
	if shipment.Company != companyOf(c) {
		notFound(c)
		return nil, false
	}
	return shipment, true
}

func (h *ExportHandler) GetShipment(c *gin.Context) {
	shipment, ok := h.shipmentInCompany(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, shipmentToDTO(shipment))
}

func (h *ExportHandler) DeleteShipment(c *gin.Context) {
	shipment, ok := h.shipmentInCompany(c)
	if !ok {
		return
	}
	if err := h.service.DeleteShipment(c.Request.Context(), shipment.ID); err != nil {
		h.mapServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type updateTaskRequest struct {
	Status   *models.TaskStatus   `json:"status"`
	Priority *models.TaskPriority `json:"priority"`
}

func (h *ExportHandler) UpdateTask(c *gin.Context) {
	shipment, ok := h.shipmentInCompany(c)
	if !ok {
		return
	}
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	updated, err := h.service.UpdateTask(c.Request.Context(), shipment.ID, c.Param("key"), req.Status, req.Priority)
	if err != nil {
		h.mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, shipmentToDTO(updated))
}

func (h *ExportHandler) ListRoles(c *gin.Context) {
	roles, err := h.service.ListRoles(c.Request.Context())
	if err != nil {
		h.mapServiceError(c, err)
		return
	}
	out := make([]RoleDTO, 0, len(roles))
	for i := range roles {
		out = append(out, roleToDTO(&roles[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *ExportHandler) SaveRole(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var dto RoleDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	dto.ID = id
	saved, err := h.service.SaveRole(c.Request.Context(), dtoToRole(&dto))
	if err != nil {
		h.mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, roleToDTO(saved))
}

func (h *ExportHandler) GetRole(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	role, err := h.service.GetRole(c.Request.Context(), id)
	if err != nil {
		h.mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, roleToDTO(role))
}

func (h *ExportHandler) DeleteRole(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteRole(c.Request.Context(), id); err != nil {
		h.mapServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AssignRole creates or updates the user named in the path with the role in
// the body.
func (h *ExportHandler) AssignRole(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var dto UserDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	user, err := h.service.AssignRole(c.Request.Context(), &models.User{ID: id, Name: dto.Name, RoleID: dto.RoleID})
	if err != nil {
		h.mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, UserDTO{ID: user.ID, Name: user.Name, RoleID: user.RoleID})
}
