package backend

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mercearia/pdv/internal/domain/catalog"
	"github.com/mercearia/pdv/internal/domain/partner"
	"github.com/mercearia/pdv/internal/domain/shared/valueobject"
	"github.com/mercearia/pdv/internal/domain/trade"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names, they are what the backend sees
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// flexDecimal decodes a JSON number, a numeric string ("12.50", "12,50") or null
type flexDecimal struct {
	decimal.Decimal
}

// UnmarshalJSON implements json.Unmarshaler
func (f *flexDecimal) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		f.Decimal = decimal.Zero
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			f.Decimal = decimal.Zero
			return nil
		}
	}
	d, err := valueobject.ParseLocalizedDecimal(s)
	if err != nil {
		return err
	}
	f.Decimal = d
	return nil
}

// wireID is an identifier that the backend may send as a number or a string.
// Numeric identifiers are sent back as JSON numbers.
type wireID string

// UnmarshalJSON implements json.Unmarshaler
func (w *wireID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case string(data) == "null":
		*w = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*w = wireID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*w = wireID(n.String())
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (w wireID) MarshalJSON() ([]byte, error) {
	if isDigits(string(w)) {
		return []byte(w), nil
	}
	return json.Marshal(string(w))
}

func isDigits(s string) bool {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// productDTO is a product as returned by the global product search
type productDTO struct {
	ID           wireID      `json:"id" validate:"required"`
	Name         string      `json:"nome" validate:"required"`
	Price        flexDecimal `json:"preco_venda"`
	Unit         string      `json:"unidade_medida"`
	Stock        flexDecimal `json:"estoque_atual"`
	CategoryName string      `json:"nome_categoria"`
}

func (d productDTO) toSnapshot() catalog.ProductSnapshot {
	return catalog.ProductSnapshot{
		ID:             string(d.ID),
		Name:           strings.TrimSpace(d.Name),
		CategoryName:   d.CategoryName,
		UnitPrice:      valueobject.NewMoneyBRL(d.Price.Decimal),
		Unit:           catalog.ParseUnitKind(d.Unit),
		AvailableStock: d.Stock.Decimal,
	}
}

// customerDTO is a customer as returned by search and registration
type customerDTO struct {
	ID          wireID      `json:"id" validate:"required"`
	Name        string      `json:"nome" validate:"required"`
	Phone       *string     `json:"telefone"`
	Balance     flexDecimal `json:"saldo_devedor"`
	CreditLimit flexDecimal `json:"limite_credito"`
}

func (d customerDTO) toSnapshot() partner.CustomerSnapshot {
	phone := ""
	if d.Phone != nil {
		phone = *d.Phone
	}
	return partner.CustomerSnapshot{
		ID:          string(d.ID),
		Name:        strings.TrimSpace(d.Name),
		Phone:       phone,
		Balance:     valueobject.NewMoneyBRL(d.Balance.Decimal),
		CreditLimit: valueobject.NewMoneyBRL(d.CreditLimit.Decimal),
	}
}

// saleLineRequest is one cart line of the finalize request
type saleLineRequest struct {
	ID        wireID  `json:"id" validate:"required"`
	Quantity  float64 `json:"quantidade" validate:"gt=0"`
	UnitPrice float64 `json:"preco_venda" validate:"gte=0"`
}

// finalizeSaleRequest is the body of POST /api/vendas/finalizar
type finalizeSaleRequest struct {
	StoreID       wireID            `json:"merceariaId" validate:"required"`
	Total         float64           `json:"valor_total" validate:"gte=0"`
	PaymentMethod string            `json:"meio_pagamento" validate:"required,oneof=Dinheiro Pix Debito Credito Fiado"`
	Cart          []saleLineRequest `json:"carrinho" validate:"required,min=1,dive"`
	CustomerID    *wireID           `json:"clienteId" validate:"required_if=PaymentMethod Fiado"`
}

func newFinalizeSaleRequest(intent *trade.SaleIntent) finalizeSaleRequest {
	lines := make([]saleLineRequest, 0, len(intent.Lines))
	for _, l := range intent.Lines {
		lines = append(lines, saleLineRequest{
			ID:        wireID(l.ProductID),
			Quantity:  l.Quantity.InexactFloat64(),
			UnitPrice: l.UnitPrice.Float64(),
		})
	}

	req := finalizeSaleRequest{
		StoreID:       wireID(intent.StoreID),
		Total:         intent.Total.RoundCents().Float64(),
		PaymentMethod: intent.Method().String(),
		Cart:          lines,
	}
	if intent.CustomerID != "" {
		id := wireID(intent.CustomerID)
		req.CustomerID = &id
	}
	return req
}

// createCustomerRequest is the body of POST /api/clientes/criar
type createCustomerRequest struct {
	StoreID     wireID  `json:"merceariaId" validate:"required"`
	Name        string  `json:"nome" validate:"required,max=200"`
	Phone       *string `json:"telefone"`
	CreditLimit string  `json:"limiteCredito" validate:"omitempty,numeric"`
}

func newCreateCustomerRequest(storeID string, draft partner.CustomerDraft) createCustomerRequest {
	req := createCustomerRequest{
		StoreID:     wireID(storeID),
		Name:        draft.Name,
		CreditLimit: draft.CreditLimit.StringFixed(2),
	}
	if draft.Phone != "" {
		phone := draft.Phone
		req.Phone = &phone
	}
	return req
}
