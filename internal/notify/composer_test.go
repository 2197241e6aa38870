package notify

import (
	"strings"
	"testing"

	"github.com/haoxiang14/solana-wallet-tracker/internal/market"
	"github.com/haoxiang14/solana-wallet-tracker/pkg/models"
)

const trader = "8p6SYRCZ1kVv1tSXMsTGRhs5Lyvkb1DczeCSivrBSHTa"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		swap models.Swap
		want Side
	}{
		{"spend native is buy", models.Swap{FromToken: "SOL", ToToken: "FOO"}, SideBuy},
		{"spend native mint is buy", models.Swap{FromToken: models.NativeMint, ToToken: "FOO"}, SideBuy},
		{"receive native is sell", models.Swap{FromToken: "FOO", ToToken: "SOL"}, SideSell},
		{"token to token is swap", models.Swap{FromToken: "FOO", ToToken: "BAR"}, SideSwap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(&tt.swap); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComposeBuyWithStats(t *testing.T) {
	c := NewComposer()

	swap := &models.Swap{
		Trader:     trader,
		FromToken:  "SOL",
		FromAmount: 2.5,
		ToToken:    "FOO",
		ToAmount:   1500000,
		Signature:  "sig123",
	}
	stats := &market.TokenStats{
		Symbol:    "FOO",
		PriceUSD:  0.0042,
		MarketCap: 2500000,
		Volume24h: 125000,
	}

	msg := c.Compose(swap, stats)

	for _, want := range []string{
		"*BUY*",
		"2.50 SOL",
		"1.50M FOO",
		"$0.0042",
		"$2.50M",
		"$125.00K",
		"solscan.io/tx/sig123",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestComposeSellWithoutStats(t *testing.T) {
	c := NewComposer()

	swap := &models.Swap{
		Trader:     trader,
		FromToken:  "FOO",
		FromAmount: 1000,
		ToToken:    "SOL",
		ToAmount:   0.5,
		Signature:  "sig456",
	}

	msg := c.Compose(swap, nil)

	if !strings.Contains(msg, "*SELL*") {
		t.Errorf("expected sell message:\n%s", msg)
	}
	if !strings.Contains(msg, "1.00K FOO") {
		t.Errorf("expected abbreviated amount:\n%s", msg)
	}
	if strings.Contains(msg, "Market Cap") {
		t.Errorf("message should omit market section without stats:\n%s", msg)
	}
}

func TestComposeTruncatesMintAddresses(t *testing.T) {
	c := NewComposer()

	swap := &models.Swap{
		Trader:     trader,
		FromToken:  models.NativeMint,
		FromAmount: 1,
		ToToken:    "Foo1111111111111111111111111111111111111111",
		ToAmount:   10,
	}

	msg := c.Compose(swap, nil)
	if strings.Contains(msg, "Foo1111111111111111111111111111111111111111") {
		t.Errorf("full mint address should be truncated:\n%s", msg)
	}
	if !strings.Contains(msg, "Foo111...1111") {
		t.Errorf("expected truncated mint:\n%s", msg)
	}
}

func TestFormatLargeNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{2500000000000, "2.50T"},
		{1500000000, "1.50B"},
		{2500000, "2.50M"},
		{1000, "1.00K"},
		{999.994, "999.99"},
		{0.5, "0.50"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatLargeNumber(tt.in); got != tt.want {
				t.Errorf("formatLargeNumber(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatPriceCompact(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{152.3, "152.30"},
		{0.0425, "0.0425"},
		{0.0000042, "0.00000420"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatPriceCompact(tt.in); got != tt.want {
				t.Errorf("formatPriceCompact(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncateAddress(t *testing.T) {
	if got := truncateAddress(trader); got != "8p6SYR...SHTa" {
		t.Errorf("truncateAddress = %q", got)
	}
	if got := truncateAddress("short"); got != "short" {
		t.Errorf("short address should pass through, got %q", got)
	}
}
