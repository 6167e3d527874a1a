package checkout

import (
	"github.com/mercearia/pdv/internal/domain/catalog"
	"github.com/mercearia/pdv/internal/domain/shared/valueobject"
	"github.com/mercearia/pdv/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// PromptMode tells whether the prompt adds a product or edits a cart line
type PromptMode int

const (
	PromptAdding PromptMode = iota
	PromptEditing
)

// String returns the string representation of PromptMode
func (m PromptMode) String() string {
	if m == PromptEditing {
		return "editing"
	}
	return "adding"
}

// QuantityPrompt is the modal that turns one product and a typed quantity
// into a cart mutation.
type QuantityPrompt struct {
	mode      PromptMode
	product   catalog.ProductSnapshot
	lineIndex int
	input     string
}

// NewAddPrompt opens the prompt for adding product to the cart. The input is
// pre-filled with 1 for discrete units and continuousDefault otherwise.
func NewAddPrompt(product catalog.ProductSnapshot, continuousDefault decimal.Decimal) *QuantityPrompt {
	initial := decimal.NewFromInt(1)
	if product.Unit.IsContinuous() {
		initial = continuousDefault
		if !initial.IsPositive() {
			initial = catalog.MinimumQuantityFor(product.Unit)
		}
	}
	return &QuantityPrompt{
		mode:      PromptAdding,
		product:   product,
		lineIndex: -1,
		input:     catalog.FormatQuantity(product.Unit, initial),
	}
}

// NewEditPrompt opens the prompt on an existing cart line, pre-filled with its quantity
func NewEditPrompt(index int, line trade.CartLine) *QuantityPrompt {
	return &QuantityPrompt{
		mode:      PromptEditing,
		product:   line.Product,
		lineIndex: index,
		input:     catalog.FormatQuantity(line.Product.Unit, line.Quantity),
	}
}

func (*QuantityPrompt) isOverlay() {}

// Mode returns the prompt mode
func (p *QuantityPrompt) Mode() PromptMode {
	return p.mode
}

// Product returns the product the prompt is scoped to
func (p *QuantityPrompt) Product() catalog.ProductSnapshot {
	return p.product
}

// Input returns the typed text
func (p *QuantityPrompt) Input() string {
	return p.input
}

// SetInput replaces the typed text
func (p *QuantityPrompt) SetInput(input string) {
	p.input = input
}

// Quantity parses the typed text; unparseable input yields zero
func (p *QuantityPrompt) Quantity() decimal.Decimal {
	return catalog.ParseQuantity(p.product.Unit, p.input)
}

// Subtotal previews quantity * unit price
func (p *QuantityPrompt) Subtotal() valueobject.Money {
	return p.product.UnitPrice.Multiply(p.Quantity())
}

// Submit applies the typed quantity to cart. It returns the index of the
// affected line. The cart is unchanged when an error is returned.
func (p *QuantityPrompt) Submit(cart *trade.Cart) (int, error) {
	quantity := p.Quantity()
	if p.mode == PromptEditing {
		if err := cart.EditLine(p.lineIndex, quantity); err != nil {
			return p.lineIndex, err
		}
		return p.lineIndex, nil
	}
	return cart.Add(p.product, quantity)
}
