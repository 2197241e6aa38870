package notify

import (
	"fmt"
	"strings"

	"github.com/haoxiang14/solana-wallet-tracker/internal/market"
	"github.com/haoxiang14/solana-wallet-tracker/pkg/models"
)

// Side classifies a swap relative to the native asset.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
	SideSwap Side = "SWAP"
)

// Classify determines the trade direction. Spending the native asset is a
// buy of the other token; receiving it is a sell. Token-to-token swaps stay
// generic.
func Classify(s *models.Swap) Side {
	switch {
	case models.IsNativeToken(s.FromToken):
		return SideBuy
	case models.IsNativeToken(s.ToToken):
		return SideSell
	default:
		return SideSwap
	}
}

// Composer renders swap notifications as Telegram Markdown messages.
type Composer struct{}

func NewComposer() *Composer {
	return &Composer{}
}

// Compose builds the notification text for a swap. stats carries market data
// for the non-native side and may be nil; the message then omits the market
// section rather than failing.
func (c *Composer) Compose(s *models.Swap, stats *market.TokenStats) string {
	var b strings.Builder

	side := Classify(s)
	switch side {
	case SideBuy:
		fmt.Fprintf(&b, "🟢 *BUY* `%s`\n\n", truncateAddress(s.Trader))
		fmt.Fprintf(&b, "💸 Spent: *%s %s*\n", formatLargeNumber(s.FromAmount), displayToken(s.FromToken))
		fmt.Fprintf(&b, "📥 Received: *%s %s*\n", formatLargeNumber(s.ToAmount), displayToken(s.ToToken))
	case SideSell:
		fmt.Fprintf(&b, "🔴 *SELL* `%s`\n\n", truncateAddress(s.Trader))
		fmt.Fprintf(&b, "📤 Sold: *%s %s*\n", formatLargeNumber(s.FromAmount), displayToken(s.FromToken))
		fmt.Fprintf(&b, "💰 Received: *%s %s*\n", formatLargeNumber(s.ToAmount), displayToken(s.ToToken))
	default:
		fmt.Fprintf(&b, "🔄 *SWAP* `%s`\n\n", truncateAddress(s.Trader))
		fmt.Fprintf(&b, "📤 From: *%s %s*\n", formatLargeNumber(s.FromAmount), displayToken(s.FromToken))
		fmt.Fprintf(&b, "📥 To: *%s %s*\n", formatLargeNumber(s.ToAmount), displayToken(s.ToToken))
	}

	if stats != nil {
		b.WriteString("\n")
		if stats.Symbol != "" {
			fmt.Fprintf(&b, "🪙 Token: *%s*\n", stats.Symbol)
		}
		if stats.PriceUSD > 0 {
			fmt.Fprintf(&b, "💵 Price: *$%s*\n", formatPriceCompact(stats.PriceUSD))
		}
		if stats.MarketCap > 0 {
			fmt.Fprintf(&b, "📊 Market Cap: *$%s*\n", formatLargeNumber(stats.MarketCap))
		}
		if stats.Volume24h > 0 {
			fmt.Fprintf(&b, "📈 24h Volume: *$%s*\n", formatLargeNumber(stats.Volume24h))
		}
	}

	if s.Signature != "" {
		fmt.Fprintf(&b, "\n🔗 [View Transaction](https://solscan.io/tx/%s)", s.Signature)
	}

	return b.String()
}

// displayToken shortens mint addresses so messages stay readable; symbols
// pass through untouched.
func displayToken(token string) string {
	if len(token) > 12 {
		return truncateAddress(token)
	}
	return token
}

// formatLargeNumber renders a value with a magnitude suffix.
func formatLargeNumber(v float64) string {
	switch {
	case v >= 1e12:
		return fmt.Sprintf("%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.2fK", v/1e3)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// formatPriceCompact keeps enough precision for sub-cent token prices.
func formatPriceCompact(v float64) string {
	switch {
	case v >= 1:
		return fmt.Sprintf("%.2f", v)
	case v >= 0.01:
		return fmt.Sprintf("%.4f", v)
	default:
		return fmt.Sprintf("%.8f", v)
	}
}

// truncateAddress shortens an address to its ends for display.
func truncateAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
