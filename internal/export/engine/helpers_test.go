package engine

import (
	"time"

	"github.com/gartstein/cafexport/internal/export/models"
	"github.com/google/uuid"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func contractWithLots(company models.Company, number string, sale time.Time, lots ...string) models.Contract {
	c := models.Contract{
		ID:       uuid.New(),
		Company:  company,
		Number:   number,
		SaleDate: sale,
	}
	for _, l := range lots {
		c.Partidas = append(c.Partidas, models.Partida{ID: uuid.New(), ContractID: c.ID, LotNumber: l})
	}
	return c
}
