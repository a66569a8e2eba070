package db

import (
	"strings"

	"github.com/gartstein/cafexport/internal/export/db/models"
	"github.com/gartstein/cafexport/internal/export/engine"
	domain "github.com/gartstein/cafexport/internal/export/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func contractToRow(c *domain.Contract) *models.Contract {
	hy, _ := engine.ContractHarvestYear(c)
	row := &models.Contract{
		ID:                 c.ID,
		Company:            string(c.Company),
		Number:             c.Number,
		BuyerRef:           c.BuyerRef,
		SaleDate:           c.SaleDate,
		HarvestYear:        strings.TrimSpace(c.HarvestYear),
		Organic:            c.Certifications.Organic,
		FairTrade:          c.Certifications.FairTrade,
		RainforestAlliance: c.Certifications.RainforestAlliance,
		CafePractices:      c.Certifications.CafePractices,
		Terminated:         c.Terminated,
		LicenseRental:      c.LicenseRental,
		CoffeeType:         c.CoffeeType,
		Differential:       c.Differential,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
	for i := range c.Partidas {
		row.Partidas = append(row.Partidas, partidaToRow(&c.Partidas[i], c, hy, i))
	}
	return row
}

func partidaToRow(p *domain.Partida, c *domain.Contract, harvestYear string, position int) models.Partida {
	row := models.Partida{
		ID:              p.ID,
		ContractID:      c.ID,
		Position:        position,
		Company:         string(c.Company),
		HarvestYear:     harvestYear,
		LotNumber:       p.LotNumber,
		UnitCount:       p.UnitCount,
		WeightKg:        p.WeightKg,
		WeightQuintales: p.WeightQuintales,
		PackageType:     p.PackageType,
		PackageKind:     string(p.PackageKind),
		CutoffDate:      p.CutoffDate,
		ETD:             p.ETD,
		MarksStatus:     string(p.MarksStatus),
		FixingPrice:     p.FixingPrice,
		FinalPrice:      p.FinalPrice,
		ISFRequired:     p.ISFRequired,
		ISFSent:         p.ISFSent,
	}
	if key := strings.TrimSpace(p.LotNumber); key != "" {
		row.LotKey = &key
	}
	for _, req := range p.Packaging {
		row.Packaging = append(row.Packaging, models.PackagingRequirement{
			MaterialName:   req.MaterialName,
			RequiredCount:  req.RequiredCount,
			PurchasedCount: req.PurchasedCount,
		})
	}
	return row
}

func contractFromRow(row *models.Contract) domain.Contract {
	c := domain.Contract{
		ID:          row.ID,
		Company:     domain.Company(row.Company),
		Number:      row.Number,
		BuyerRef:    row.BuyerRef,
		SaleDate:    row.SaleDate,
		HarvestYear: row.HarvestYear,
		Certifications: domain.Certifications{
			Organic:            row.Organic,
			FairTrade:          row.FairTrade,
			RainforestAlliance: row.RainforestAlliance,
			CafePractices:      row.CafePractices,
		},
		Terminated:    row.Terminated,
		LicenseRental: row.LicenseRental,
		CoffeeType:    row.CoffeeType,
		Differential:  row.Differential,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	for i := range row.Partidas {
		c.Partidas = append(c.Partidas, partidaFromRow(&row.Partidas[i]))
	}
	return c
}

func partidaFromRow(row *models.Partida) domain.Partida {
	p := domain.Partida{
		ID:              row.ID,
		ContractID:      row.ContractID,
		LotNumber:       row.LotNumber,
		UnitCount:       row.UnitCount,
		WeightKg:        row.WeightKg,
		WeightQuintales: row.WeightQuintales,
		PackageType:     row.PackageType,
		PackageKind:     domain.PackageKind(row.PackageKind),
		CutoffDate:      row.CutoffDate,
		ETD:             row.ETD,
		MarksStatus:     domain.MarksStatus(row.MarksStatus),
		FixingPrice:     row.FixingPrice,
		FinalPrice:      row.FinalPrice,
		ISFRequired:     row.ISFRequired,
		ISFSent:         row.ISFSent,
	}
	for _, req := range row.Packaging {
		p.Packaging = append(p.Packaging, domain.PackagingRequirement{
			MaterialName:   req.MaterialName,
			RequiredCount:  req.RequiredCount,
			PurchasedCount: req.PurchasedCount,
		})
	}
	return p
}

func documentToRow(d *domain.Document) *models.Document {
	row := &models.Document{
		ID:             d.ID,
		Kind:           string(d.Kind),
		Company:        string(d.Company),
		Number:         d.Number,
		InvoiceSubtype: string(d.InvoiceSubtype),
		IssueDate:      d.IssueDate,
		ContractID:     d.ContractID,
		ShipmentID:     d.ShipmentID,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	for _, it := range d.Items {
		row.Items = append(row.Items, models.LineItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      it.Amount,
		})
	}
	if d.Totals != nil {
		row.TotalQuantity = decimal.NewNullDecimal(d.Totals.Quantity)
		row.TotalAmount = decimal.NewNullDecimal(d.Totals.Amount)
	}
	return row
}

func documentFromRow(row *models.Document) domain.Document {
	d := domain.Document{
		ID:             row.ID,
		Kind:           domain.DocumentKind(row.Kind),
		Company:        domain.Company(row.Company),
		Number:         row.Number,
		InvoiceSubtype: domain.InvoiceSubtype(row.InvoiceSubtype),
		IssueDate:      row.IssueDate,
		ContractID:     row.ContractID,
		ShipmentID:     row.ShipmentID,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
	for _, it := range row.Items {
		d.Items = append(d.Items, domain.LineItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      it.Amount,
		})
	}
	if row.TotalAmount.Valid {
		d.Totals = &domain.InvoiceTotals{
			Quantity: row.TotalQuantity.Decimal,
			Amount:   row.TotalAmount.Decimal,
		}
	}
	return d
}

func shipmentToRow(s *domain.Shipment) *models.Shipment {
	row := &models.Shipment{
		ID:          s.ID,
		ContractID:  s.ContractID,
		Company:     string(s.Company),
		PartidaIDs:  s.PartidaIDs,
		DocumentIDs: s.DocumentIDs,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	row.Tasks = tasksToRows(s.ID, s.Tasks)
	return row
}

func tasksToRows(shipmentID uuid.UUID, tasks []domain.Task) []models.ShipmentTask {
	rows := make([]models.ShipmentTask, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, models.ShipmentTask{
			ShipmentID: shipmentID,
			Key:        t.Key,
			Name:       t.Name,
			Position:   t.Position,
			Status:     string(t.Status),
			Priority:   string(t.Priority),
		})
	}
	return rows
}

func shipmentFromRow(row *models.Shipment) domain.Shipment {
	s := domain.Shipment{
		ID:          row.ID,
		ContractID:  row.ContractID,
		Company:     domain.Company(row.Company),
		PartidaIDs:  row.PartidaIDs,
		DocumentIDs: row.DocumentIDs,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	for _, t := range row.Tasks {
		s.Tasks = append(s.Tasks, domain.Task{
			Key:      t.Key,
			Name:     t.Name,
			Position: t.Position,
			Status:   domain.TaskStatus(t.Status),
			Priority: domain.TaskPriority(t.Priority),
		})
	}
	return s
}

func roleToRow(r *domain.Role) *models.Role {
	row := &models.Role{ID: r.ID, Name: r.Name}
	for _, p := range r.Permissions {
		perm := models.Permission{Resource: string(p.Resource)}
		for _, a := range p.Actions {
			perm.Actions = append(perm.Actions, string(a))
		}
		row.Permissions = append(row.Permissions, perm)
	}
	return row
}

func roleFromRow(row *models.Role) domain.Role {
	r := domain.Role{ID: row.ID, Name: row.Name}
	for _, p := range row.Permissions {
		perm := domain.Permission{Resource: domain.Resource(p.Resource)}
		for _, a := range p.Actions {
			perm.Actions = append(perm.Actions, domain.Action(a))
		}
		r.Permissions = append(r.Permissions, perm)
	}
	return r
}
