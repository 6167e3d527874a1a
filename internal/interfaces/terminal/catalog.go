package terminal

import (
	"github.com/mercearia/pdv/internal/application/checkout"
	"github.com/mercearia/pdv/internal/domain/shared"
	"github.com/mercearia/pdv/internal/domain/trade"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Screen labels. Like the checkout messages, the key is the English text.
const (
	labelTitle          = "Checkout - store %s"
	labelSearch         = "Product"
	labelSearching      = "Searching..."
	labelNoMatches      = "No products found"
	labelSearchFailed   = "Search failed"
	labelStock          = "stock %s"
	labelCart           = "Cart"
	labelCartEmpty      = "No items yet"
	labelTotal          = "Total: %s"
	labelFinalize       = "[ Finalize sale ]"
	labelQuantityAdd    = "Quantity of %s (%s)"
	labelQuantityEdit   = "New quantity of %s (%s)"
	labelSubtotal       = "Subtotal: %s"
	labelPayment        = "Payment - total %s"
	labelReceived       = "Received amount"
	labelChange         = "Change: %s"
	labelCustomer       = "Customer"
	labelNoCustomers    = "No customers found"
	labelBalance        = "balance %s, limit %s"
	labelNoLimit        = "no limit"
	labelProjected      = "Balance after the sale: %s"
	labelOverride       = "Exceed the credit limit anyway? (y/n)"
	labelNewCustomer    = "New customer"
	labelName           = "Name"
	labelPhone          = "Phone"
	labelCreditLimit    = "Credit limit"
	labelRegistering    = "Registering customer..."
	labelReady          = "%s selected. Press Enter to finalize"
	labelCommitting     = "Finalizing sale..."
	helpSearch          = "type to search  up/down choose  enter add  F2 finalize  pgup/pgdn line  ctrl+e edit  del remove"
	helpFinalize        = "enter finalize  esc back to search"
	helpQuantity        = "enter confirm  esc cancel"
	helpPaymentMethods  = "up/down or 1-5 choose  enter confirm  esc close"
	helpCashInput       = "type the received amount  enter confirm  esc back"
	helpCustomerSearch  = "type to search  up/down choose  enter select  ctrl+n new customer  esc back"
	helpCustomerForm    = "tab next field  enter save  esc cancel"
	helpCreditOverride  = "y accept  n decline"
	helpConfirmCustomer = "enter confirm customer  ctrl+r change customer  esc back"
	helpConfirm         = "enter finalize  esc back"
)

var paymentLabels = map[trade.PaymentMethod]string{
	trade.PaymentMethodCash:      "Cash",
	trade.PaymentMethodPix:       "Pix",
	trade.PaymentMethodDebit:     "Debit card",
	trade.PaymentMethodCredit:    "Credit card",
	trade.PaymentMethodOnAccount: "On account",
}

// ptBR holds the Brazilian Portuguese text of every key shown on screen
var ptBR = map[string]string{
	checkout.MsgSaleCompleted:        "Venda finalizada: %s",
	checkout.MsgSaleRejected:         "Venda não finalizada: %s",
	checkout.MsgSaleStockConstraint:  "Erro de estoque: verifique as quantidades do carrinho",
	checkout.MsgSaleUnknownError:     "Erro desconhecido do servidor",
	checkout.MsgBackendUnavailable:   "Servidor indisponível, tente novamente",
	checkout.MsgOutOfStock:           "%s sem estoque",
	checkout.MsgStockCeilingReached:  "Estoque máximo de %s atingido no carrinho",
	checkout.MsgStockExceeded:        "Só é possível adicionar mais %s de %s",
	checkout.MsgInvalidQuantity:      "Quantidade inválida",
	checkout.MsgEmptyCart:            "O carrinho está vazio",
	checkout.MsgInsufficientCash:     "Valor recebido menor que o total",
	checkout.MsgNoCustomerSelected:   "Selecione um cliente válido",
	checkout.MsgCreditLimitExceeded:  "%s vai ultrapassar o limite de crédito (%s de %s)",
	checkout.MsgCustomerRegistered:   "Cliente %s cadastrado",
	checkout.MsgCustomerRegisterFail: "Não foi possível cadastrar o cliente: %s",
	checkout.MsgCommitInFlight:       "A venda já está sendo finalizada",

	shared.ErrInvalidCustomerName.Message:     "Nome do cliente é obrigatório",
	shared.ErrInvalidCreditLimitInput.Message: "Limite de crédito não pode ser negativo",
	shared.ErrPaymentNotReady.Message:         "Pagamento incompleto",

	"Customer name cannot exceed 200 characters": "Nome do cliente não pode passar de 200 caracteres",
	"Credit limit must be a number":              "Limite de crédito deve ser um número",

	labelTitle:          "PDV - mercearia %s",
	labelSearch:         "Produto",
	labelSearching:      "Buscando...",
	labelNoMatches:      "Nenhum produto encontrado",
	labelSearchFailed:   "Falha na busca",
	labelStock:          "estoque %s",
	labelCart:           "Carrinho",
	labelCartEmpty:      "Nenhum item",
	labelTotal:          "Total: %s",
	labelFinalize:       "[ Finalizar venda ]",
	labelQuantityAdd:    "Quantidade de %s (%s)",
	labelQuantityEdit:   "Nova quantidade de %s (%s)",
	labelSubtotal:       "Subtotal: %s",
	labelPayment:        "Pagamento - total %s",
	labelReceived:       "Valor recebido",
	labelChange:         "Troco: %s",
	labelCustomer:       "Cliente",
	labelNoCustomers:    "Nenhum cliente encontrado",
	labelBalance:        "saldo devedor %s, limite %s",
	labelNoLimit:        "sem limite",
	labelProjected:      "Saldo após a venda: %s",
	labelOverride:       "Ultrapassar o limite de crédito mesmo assim? (s/n)",
	labelNewCustomer:    "Novo cliente",
	labelName:           "Nome",
	labelPhone:          "Telefone",
	labelCreditLimit:    "Limite de crédito",
	labelRegistering:    "Cadastrando cliente...",
	labelReady:          "%s selecionado. Enter para finalizar",
	labelCommitting:     "Finalizando venda...",
	helpSearch:          "digite para buscar  cima/baixo escolher  enter adicionar  F2 finalizar  pgup/pgdn linha  ctrl+e editar  del remover",
	helpFinalize:        "enter finalizar  esc voltar à busca",
	helpQuantity:        "enter confirmar  esc cancelar",
	helpPaymentMethods:  "cima/baixo ou 1-5 escolher  enter confirmar  esc fechar",
	helpCashInput:       "digite o valor recebido  enter confirmar  esc voltar",
	helpCustomerSearch:  "digite para buscar  cima/baixo escolher  enter selecionar  ctrl+n novo cliente  esc voltar",
	helpCustomerForm:    "tab próximo campo  enter salvar  esc cancelar",
	helpCreditOverride:  "s aceitar  n recusar",
	helpConfirmCustomer: "enter confirmar cliente  ctrl+r trocar cliente  esc voltar",
	helpConfirm:         "enter finalizar  esc voltar",

	"Cash":        "Dinheiro",
	"Pix":         "Pix",
	"Debit card":  "Cartão de débito",
	"Credit card": "Cartão de crédito",
	"On account":  "Fiado",
}

// NewPrinter returns a printer for the operator language. Keys without a
// translation for the language print as their English text.
func NewPrinter(lang string) *message.Printer {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, text := range ptBR {
		// SetString only fails on malformed tags
		_ = b.SetString(language.BrazilianPortuguese, key, text)
	}

	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	return message.NewPrinter(tag, message.Catalog(b))
}
