package checkout

import (
	"github.com/mercearia/pdv/internal/domain/catalog"
	"github.com/mercearia/pdv/internal/domain/partner"
	"github.com/mercearia/pdv/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

func brl(v float64) valueobject.Money {
	return valueobject.NewMoneyBRLFromFloat(v)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func unitProduct(id, name string, price float64, stock int64) catalog.ProductSnapshot {
	return catalog.ProductSnapshot{
		ID:             id,
		Name:           name,
		UnitPrice:      brl(price),
		Unit:           catalog.UnitDiscrete,
		AvailableStock: decimal.NewFromInt(stock),
	}
}

func bulkProduct(id, name string, price float64, stock string) catalog.ProductSnapshot {
	return catalog.ProductSnapshot{
		ID:             id,
		Name:           name,
		UnitPrice:      brl(price),
		Unit:           catalog.UnitContinuous,
		AvailableStock: dec(stock),
	}
}

func customer(id, name string, balance, limit float64) partner.CustomerSnapshot {
	return partner.CustomerSnapshot{
		ID:          id,
		Name:        name,
		Balance:     brl(balance),
		CreditLimit: brl(limit),
	}
}
