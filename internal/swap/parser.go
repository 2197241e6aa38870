package swap

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/haoxiang14/solana-wallet-tracker/internal/logger"
	"github.com/haoxiang14/solana-wallet-tracker/pkg/models"
)

// ErrUnparseableDescription marks an event no strategy could extract a swap
// from. Callers skip the event and keep processing the batch.
var ErrUnparseableDescription = errors.New("unparseable swap description")

// narrativePattern matches the provider's human-readable swap summary:
// "<trader> swapped <amount> <TOKEN> for <amount> <TOKEN>". Amounts may carry
// thousands separators.
var narrativePattern = regexp.MustCompile(
	`^([1-9A-HJ-NP-Za-km-z]{32,44}) swapped ([0-9.,]+) (\S+) for ([0-9.,]+) (\S+)`)

// leadingAddress matches a base58 address at the start of a description.
var leadingAddress = regexp.MustCompile(`^([1-9A-HJ-NP-Za-km-z]{32,44})`)

type strategy func(evt *models.TransactionEvent) (models.Swap, bool)

// Parser extracts a structured swap from a transaction event by trying a
// fixed sequence of strategies. The narrative description is preferred since
// it carries token symbols; the transfer list is the fallback when the
// description deviates from the known shape.
type Parser struct {
	strategies []strategy
	log        logger.Logger
}

func NewParser(log logger.Logger) *Parser {
	if log == nil {
		log = logger.Global()
	}
	return &Parser{
		strategies: []strategy{parseNarrative, parseTransfers},
		log:        log.With(logger.F("component", "parser")),
	}
}

// Parse runs the strategies in order and returns the first hit. Returns
// ErrUnparseableDescription when no strategy matched.
func (p *Parser) Parse(evt *models.TransactionEvent) (models.Swap, error) {
	for _, s := range p.strategies {
		if swap, ok := s(evt); ok {
			swap.Signature = evt.Signature
			swap.Timestamp = evt.Timestamp
			return swap, nil
		}
	}

	p.log.Debug("no strategy matched event",
		logger.F("signature", evt.Signature),
		logger.F("description", evt.Description))
	return models.Swap{}, ErrUnparseableDescription
}

// parseNarrative extracts a swap from the provider's description text.
func parseNarrative(evt *models.TransactionEvent) (models.Swap, bool) {
	m := narrativePattern.FindStringSubmatch(evt.Description)
	if m == nil {
		return models.Swap{}, false
	}

	return models.Swap{
		Trader:     m[1],
		FromAmount: parseAmount(m[2]),
		FromToken:  m[3],
		ToAmount:   parseAmount(m[4]),
		ToToken:    m[5],
	}, true
}

// parseTransfers reconstructs the swap from the first two token transfers
// when the description at least identifies the trader. Tokens come out as
// mint addresses here, not symbols.
func parseTransfers(evt *models.TransactionEvent) (models.Swap, bool) {
	if len(evt.TokenTransfers) < 2 {
		return models.Swap{}, false
	}

	m := leadingAddress.FindStringSubmatch(evt.Description)
	if m == nil {
		return models.Swap{}, false
	}

	out := evt.TokenTransfers[0]
	in := evt.TokenTransfers[1]

	return models.Swap{
		Trader:     m[1],
		FromToken:  out.Mint,
		FromAmount: out.TokenAmount,
		ToToken:    in.Mint,
		ToAmount:   in.TokenAmount,
	}, true
}

// parseAmount converts a formatted amount to a float. Thousands separators
// are stripped; anything still malformed yields zero rather than failing the
// whole event.
func parseAmount(s string) float64 {
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
