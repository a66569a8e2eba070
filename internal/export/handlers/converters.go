package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gartstein/cafexport/internal/export/engine"
	"github.com/gartstein/cafexport/internal/export/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

type CertificationsDTO struct {
	Organic            bool `json:"organic"`
	FairTrade          bool `json:"fair_trade"`
	RainforestAlliance bool `json:"rainforest_alliance"`
	CafePractices      bool `json:"cafe_practices"`
}

type PackagingDTO struct {
	Material  string `json:"material"`
	Required  int    `json:"required"`
	Purchased int    `json:"purchased"`
}

type PartidaDTO struct {
	ID              uuid.UUID       `json:"id"`
	LotNumber       string          `json:"lot_number"`
	DisplayNumber   string          `json:"display_number,omitempty"`
	UnitCount       int             `json:"unit_count"`
	WeightKg        decimal.Decimal `json:"weight_kg"`
	WeightQuintales decimal.Decimal `json:"weight_quintales"`
	// WeightLinked false keeps weight_quintales as sent.
	WeightLinked *bool           `json:"weight_linked,omitempty"`
	PackageType  string          `json:"package_type,omitempty"`
	PackageKind  string          `json:"package_kind,omitempty"`
	Packaging    []PackagingDTO  `json:"packaging,omitempty"`
	CutoffDate   string          `json:"cutoff_date,omitempty"`
	ETD          string          `json:"etd,omitempty"`
	MarksStatus  string          `json:"marks_status,omitempty"`
	FixingPrice  decimal.Decimal `json:"fixing_price"`
	FinalPrice   decimal.Decimal `json:"final_price"`
	ISFRequired  bool            `json:"isf_required"`
	ISFSent      bool            `json:"isf_sent"`
}

// ContractDTO carries harvest_year as stored: blank means the year is derived
// from the sale date on every read. resolved_harvest_year is output only and
// is never bound back into a contract.
type ContractDTO struct {
	ID                  uuid.UUID         `json:"id"`
	Company             string            `json:"company"`
	Number              string            `json:"number"`
	BuyerRef            string            `json:"buyer_ref,omitempty"`
	SaleDate            string            `json:"sale_date,omitempty"`
	HarvestYear         string            `json:"harvest_year,omitempty"`
	ResolvedHarvestYear string            `json:"resolved_harvest_year,omitempty"`
	Certifications      CertificationsDTO `json:"certifications"`
	Terminated          bool              `json:"terminated"`
	LicenseRental       bool              `json:"license_rental"`
	CoffeeType          string            `json:"coffee_type,omitempty"`
	Differential        decimal.Decimal   `json:"differential"`
	Partidas            []PartidaDTO      `json:"partidas"`
	CreatedAt           *time.Time        `json:"created_at,omitempty"`
	UpdatedAt           *time.Time        `json:"updated_at,omitempty"`
}

type LineItemDTO struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

type TotalsDTO struct {
	Quantity decimal.Decimal `json:"quantity"`
	Amount   decimal.Decimal `json:"amount"`
}

type DocumentDTO struct {
	ID             uuid.UUID     `json:"id"`
	Kind           string        `json:"kind"`
	Company        string        `json:"company"`
	InvoiceSubtype string        `json:"invoice_subtype,omitempty"`
	IssueDate      string        `json:"issue_date,omitempty"`
	Number         string        `json:"number,omitempty"`
	ContractID     *uuid.UUID    `json:"contract_id,omitempty"`
	ShipmentID     *uuid.UUID    `json:"shipment_id,omitempty"`
	Items          []LineItemDTO `json:"items,omitempty"`
	Totals         *TotalsDTO    `json:"totals,omitempty"`
	CreatedAt      *time.Time    `json:"created_at,omitempty"`
}

type TaskDTO struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
}

type ShipmentDTO struct {
	ID          uuid.UUID   `json:"id"`
	ContractID  uuid.UUID   `json:"contract_id"`
	Company     string      `json:"company"`
	PartidaIDs  []uuid.UUID `json:"partida_ids"`
	DocumentIDs []uuid.UUID `json:"document_ids"`
	Tasks       []TaskDTO   `json:"tasks"`
	Done        int         `json:"done"`
	Total       int         `json:"total"`
}

type PermissionDTO struct {
	Resource string   `json:"resource"`
	Actions  []string `json:"actions"`
}

type RoleDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Permissions []PermissionDTO `json:"permissions"`
}

type UserDTO struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	RoleID uuid.UUID `json:"role_id" binding:"required"`
}

type AlertDTO struct {
	ContractID     uuid.UUID `json:"contract_id"`
	ContractNumber string    `json:"contract_number"`
	LotID          uuid.UUID `json:"lot_id"`
	LotNumber      string    `json:"lot_number"`
	Kind           string    `json:"kind"`
	DaysRemaining  int       `json:"days_remaining"`
	Message        string    `json:"message"`
}

type ReconciliationLineDTO struct {
	Material  string `json:"material"`
	Required  int    `json:"required"`
	Purchased int    `json:"purchased"`
	Missing   int    `json:"missing"`
}

type LotPackagingDTO struct {
	LotID  uuid.UUID               `json:"lot_id"`
	Source string                  `json:"source"`
	Lines  []ReconciliationLineDTO `json:"lines"`
}

type PackagingSummaryDTO struct {
	ContractID     uuid.UUID               `json:"contract_id"`
	ContractNumber string                  `json:"contract_number"`
	Materials      []ReconciliationLineDTO `json:"materials"`
	Lots           []LotPackagingDTO       `json:"lots"`
	Shortfall      bool                    `json:"shortfall"`
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

func parseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// dtoToContract converts a request body. It returns the IDs of lots whose
// quintal weight is unlinked from kilograms.
func dtoToContract(company models.Company, dto *ContractDTO) (*models.Contract, map[uuid.UUID]bool, error) {
	c := &models.Contract{
		ID:          dto.ID,
		Company:     company,
		Number:      dto.Number,
		BuyerRef:    dto.BuyerRef,
		HarvestYear: dto.HarvestYear,
		Certifications: models.Certifications{
			Organic:            dto.Certifications.Organic,
			FairTrade:          dto.Certifications.FairTrade,
			RainforestAlliance: dto.Certifications.RainforestAlliance,
			CafePractices:      dto.Certifications.CafePractices,
		},
		Terminated:    dto.Terminated,
		LicenseRental: dto.LicenseRental,
		CoffeeType:    dto.CoffeeType,
		Differential:  dto.Differential,
	}
	if dto.SaleDate != "" {
		sale, err := parseDate(dto.SaleDate)
		if err != nil {
			return nil, nil, err
		}
		c.SaleDate = sale
	}

	unlinked := make(map[uuid.UUID]bool)
	for _, pd := range dto.Partidas {
		p := models.Partida{
			ID:              pd.ID,
			LotNumber:       pd.LotNumber,
			UnitCount:       pd.UnitCount,
			WeightKg:        pd.WeightKg,
			WeightQuintales: pd.WeightQuintales,
			PackageType:     pd.PackageType,
			PackageKind:     models.PackageKind(pd.PackageKind),
			MarksStatus:     models.MarksStatus(pd.MarksStatus),
			FixingPrice:     pd.FixingPrice,
			ISFRequired:     pd.ISFRequired,
			ISFSent:         pd.ISFSent,
		}
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		var err error
		if p.CutoffDate, err = parseOptionalDate(pd.CutoffDate); err != nil {
			return nil, nil, err
		}
		if p.ETD, err = parseOptionalDate(pd.ETD); err != nil {
			return nil, nil, err
		}
		for _, pk := range pd.Packaging {
			p.Packaging = append(p.Packaging, models.PackagingRequirement{
				MaterialName:   pk.Material,
				RequiredCount:  pk.Required,
				PurchasedCount: pk.Purchased,
			})
		}
		if pd.WeightLinked != nil && !*pd.WeightLinked {
			unlinked[p.ID] = true
		}
		c.Partidas = append(c.Partidas, p)
	}
	return c, unlinked, nil
}

func contractToDTO(c *models.Contract) ContractDTO {
	dto := ContractDTO{
		ID:          c.ID,
		Company:     string(c.Company),
		Number:      c.Number,
		BuyerRef:    c.BuyerRef,
		SaleDate:    formatDate(c.SaleDate),
		HarvestYear: c.HarvestYear,
		Certifications: CertificationsDTO{
			Organic:            c.Certifications.Organic,
			FairTrade:          c.Certifications.FairTrade,
			RainforestAlliance: c.Certifications.RainforestAlliance,
			CafePractices:      c.Certifications.CafePractices,
		},
		Terminated:    c.Terminated,
		LicenseRental: c.LicenseRental,
		CoffeeType:    c.CoffeeType,
		Differential:  c.Differential,
		Partidas:      make([]PartidaDTO, 0, len(c.Partidas)),
		CreatedAt:     timePtr(c.CreatedAt),
		UpdatedAt:     timePtr(c.UpdatedAt),
	}
	if hy, err := engine.ContractHarvestYear(c); err == nil {
		dto.ResolvedHarvestYear = hy
	}
	for i := range c.Partidas {
		p := &c.Partidas[i]
		pd := PartidaDTO{
			ID:              p.ID,
			LotNumber:       p.LotNumber,
			DisplayNumber:   engine.LotDisplayNumber(c.Company, p.LotNumber),
			UnitCount:       p.UnitCount,
			WeightKg:        p.WeightKg,
			WeightQuintales: p.WeightQuintales,
			PackageType:     p.PackageType,
			PackageKind:     string(p.PackageKind),
			CutoffDate:      formatOptionalDate(p.CutoffDate),
			ETD:             formatOptionalDate(p.ETD),
			MarksStatus:     string(p.MarksStatus),
			FixingPrice:     p.FixingPrice,
			FinalPrice:      p.FinalPrice,
			ISFRequired:     p.ISFRequired,
			ISFSent:         p.ISFSent,
		}
		if p.LotNumber == "" {
			pd.DisplayNumber = ""
		}
		for _, req := range p.Packaging {
			pd.Packaging = append(pd.Packaging, PackagingDTO{
				Material:  req.MaterialName,
				Required:  req.RequiredCount,
				Purchased: req.PurchasedCount,
			})
		}
		dto.Partidas = append(dto.Partidas, pd)
	}
	return dto
}

func dtoToDocument(company models.Company, dto *DocumentDTO) (*models.Document, error) {
	d := &models.Document{
		ID:             dto.ID,
		Kind:           models.DocumentKind(dto.Kind),
		Company:        company,
		InvoiceSubtype: models.InvoiceSubtype(dto.InvoiceSubtype),
		Number:         dto.Number,
		ContractID:     dto.ContractID,
		ShipmentID:     dto.ShipmentID,
	}
	if dto.IssueDate != "" {
		issued, err := parseDate(dto.IssueDate)
		if err != nil {
			return nil, err
		}
		d.IssueDate = issued
	}
	for _, it := range dto.Items {
		d.Items = append(d.Items, models.LineItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	return d, nil
}

func documentToDTO(d *models.Document) DocumentDTO {
	dto := DocumentDTO{
		ID:             d.ID,
		Kind:           string(d.Kind),
		Company:        string(d.Company),
		InvoiceSubtype: string(d.InvoiceSubtype),
		IssueDate:      formatDate(d.IssueDate),
		Number:         d.Number,
		ContractID:     d.ContractID,
		ShipmentID:     d.ShipmentID,
		CreatedAt:      timePtr(d.CreatedAt),
	}
	for _, it := range d.Items {
		dto.Items = append(dto.Items, LineItemDTO{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      it.Amount,
		})
	}
	if d.Totals != nil {
		dto.Totals = &TotalsDTO{Quantity: d.Totals.Quantity, Amount: d.Totals.Amount}
	}
	return dto
}

func documentsToDTO(docs []models.Document) []DocumentDTO {
	out := make([]DocumentDTO, 0, len(docs))
	for i := range docs {
		out = append(out, documentToDTO(&docs[i]))
	}
	return out
}

func shipmentToDTO(s *models.Shipment) ShipmentDTO {
	done, total := engine.Progress(s.Tasks)
	dto := ShipmentDTO{
		ID:          s.ID,
		ContractID:  s.ContractID,
		Company:     string(s.Company),
		PartidaIDs:  s.PartidaIDs,
		DocumentIDs: s.DocumentIDs,
		Tasks:       make([]TaskDTO, 0, len(s.Tasks)),
		Done:        done,
		Total:       total,
	}
	for _, t := range s.Tasks {
		dto.Tasks = append(dto.Tasks, TaskDTO{
			Key:      t.Key,
			Name:     t.Name,
			Status:   string(t.Status),
			Priority: string(t.Priority),
		})
	}
	return dto
}

func dtoToRole(dto *RoleDTO) *models.Role {
	role := &models.Role{ID: dto.ID, Name: dto.Name}
	for _, p := range dto.Permissions {
		perm := models.Permission{Resource: models.Resource(p.Resource)}
		for _, a := range p.Actions {
			perm.Actions = append(perm.Actions, models.Action(a))
		}
		role.Permissions = append(role.Permissions, perm)
	}
	return role
}

func roleToDTO(r *models.Role) RoleDTO {
	dto := RoleDTO{ID: r.ID, Name: r.Name, Permissions: make([]PermissionDTO, 0, len(r.Permissions))}
	for _, p := range r.Permissions {
		perm := PermissionDTO{Resource: string(p.Resource), Actions: make([]string, 0, len(p.Actions))}
		for _, a := range p.Actions {
			perm.Actions = append(perm.Actions, string(a))
		}
		dto.Permissions = append(dto.Permissions, perm)
	}
	return dto
}

func alertsToDTO(alerts []engine.Alert) []AlertDTO {
	out := make([]AlertDTO, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, AlertDTO{
			ContractID:     a.ContractID,
			ContractNumber: a.ContractNumber,
			LotID:          a.LotID,
			LotNumber:      a.LotNumber,
			Kind:           string(a.Kind),
			DaysRemaining:  a.DaysRemaining,
			Message:        a.Message,
		})
	}
	return out
}

func summaryToDTO(s engine.PackagingSummary) PackagingSummaryDTO {
	dto := PackagingSummaryDTO{
		ContractID:     s.ContractID,
		ContractNumber: s.ContractNumber,
		Materials:      make([]ReconciliationLineDTO, 0, len(s.Materials)),
		Lots:           make([]LotPackagingDTO, 0, len(s.Lots)),
		Shortfall:      s.Shortfall,
	}
	for _, m := range s.Materials {
		dto.Materials = append(dto.Materials, ReconciliationLineDTO{
			Material:  m.Material,
			Required:  m.Required,
			Purchased: m.Purchased,
			Missing:   m.Missing,
		})
	}
	for _, rec := range s.Lots {
		lot := LotPackagingDTO{LotID: rec.LotID, Source: string(rec.Source), Lines: make([]ReconciliationLineDTO, 0, len(rec.Lines))}
		for _, l := range rec.Lines {
			lot.Lines = append(lot.Lines, ReconciliationLineDTO{
				Material:  l.Material,
				Required:  l.Required,
				Purchased: l.Purchased,
				Missing:   l.Missing,
			})
		}
		dto.Lots = append(dto.Lots, lot)
	}
	return dto
}
