// Package presenters renders scan output as aligned terminal text.
package presenters

import (
	"fmt"
	"io"
	"spx-premium-scanner/interfaces"
	"spx-premium-scanner/services"
	"text/tabwriter"
	"time"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
}

func expirationLine(choice *interfaces.ExpirationChoice) string {
	if choice == nil {
		return "none"
	}
	line := choice.Expiration.Date.Format("Mon Jan 2, 2006")
	if !choice.IsExactMatch {
		line += fmt.Sprintf(" (closest listed after %s)", choice.TargetDate.Format("Mon Jan 2"))
	}
	return line
}

// RenderScanReport prints the header, context band and recommendation
func RenderScanReport(w io.Writer, report *services.ScanReport) {
	fmt.Fprintf(w, "%s PUT SCAN  %s\n", services.DisplaySymbol(report.Symbol), report.Label)
	fmt.Fprintf(w, "Time:       %s\n", report.GeneratedAt.Format("01/02/2006 03:04:05 PM MST"))
	fmt.Fprintf(w, "Expiration: %s\n", expirationLine(report.Expiration))

	if report.Result != nil {
		r := report.Result
		fmt.Fprintf(w, "Spot:       %.2f\n", r.Spot)
		fmt.Fprintf(w, "Criteria:   %s\n", r.Criteria)
		fmt.Fprintf(w, "Candidates: %d\n\n", len(r.Candidates))
		renderContext(w, r)
	}

	fmt.Fprintln(w)
	if report.Recommendation != services.RecommendTrade {
		fmt.Fprintf(w, "RECOMMENDATION: NO TRADE (%s)\n", report.Reason)
		return
	}

	best := report.Result.Best
	fmt.Fprintf(w, "RECOMMENDATION: SELL %.0fP @ %.2f  (%.0f pts OTM", best.Strike, best.Bid, best.DistanceFromSpot)
	if report.Safety != nil {
		fmt.Fprintf(w, ", %s", report.Safety.Level)
	}
	fmt.Fprintln(w, ")")
	if r := report.Result; r.TargetBid != nil && !r.ExactMatch {
		fmt.Fprintf(w, "No strike bids exactly %.2f; nearest bid shown.\n", *r.TargetBid)
	}
	if ticket, err := services.TicketFromReport(report); err == nil {
		fmt.Fprintf(w, "Order: %s\n", ticket.Preview())
	}
}

func renderContext(w io.Writer, r *services.ScanResult) {
	if len(r.ContextWindow) == 0 {
		fmt.Fprintln(w, "No strikes listed.")
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "STRIKE\tDIST\tBID\tASK\tLAST\tVOL\tOI\tIV%\tSTATUS\t")
	for _, e := range r.ContextWindow {
		status := string(e.Status)
		if e.Selected {
			status += " <= BEST"
		}
		fmt.Fprintf(tw, "%.0f\t%.0f\t%.2f\t%.2f\t%.2f\t%d\t%d\t%.1f\t%s\t\n",
			e.Strike, e.DistanceFromSpot, e.Bid, e.Ask, e.LastPrice, e.Volume, e.OpenInterest, e.ImpliedVolatility, status)
	}
	tw.Flush()
}

// RenderBidLevels prints the count and furthest strike for each bid level
func RenderBidLevels(w io.Writer, snapshot *services.ChainSnapshot, levels []services.BidLevelSummary) {
	renderSnapshotHeader(w, "BID LEVEL SUMMARY", snapshot)
	if snapshot.Expiration == nil {
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "BID\tSTRIKES\tFURTHEST\tDIST\t")
	for _, l := range levels {
		if l.Furthest == nil {
			fmt.Fprintf(tw, "%.2f\t%d\t-\t-\t\n", l.Bid, l.Count)
			continue
		}
		fmt.Fprintf(tw, "%.2f\t%d\t%.0f\t%.0f\t\n", l.Bid, l.Count, l.Furthest.Strike, l.Furthest.DistanceFromSpot)
	}
	tw.Flush()
}

// RenderKeyLevels prints the bids at fixed distances below spot
func RenderKeyLevels(w io.Writer, snapshot *services.ChainSnapshot, levels []services.KeyLevel) {
	renderSnapshotHeader(w, "KEY LEVELS", snapshot)
	if snapshot.Expiration == nil {
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "DIST\tSTRIKE\tBID\tSAME BID FROM\t")
	for _, l := range levels {
		switch {
		case !l.Found:
			fmt.Fprintf(tw, "%.0f\t%.0f\tno data\t\t\n", l.Distance, l.Strike)
		case l.LowestStrike < l.Strike:
			fmt.Fprintf(tw, "%.0f\t%.0f\t%.2f\t%.0f-%.0f\t\n", l.Distance, l.Strike, l.Bid, l.LowestStrike, l.Strike)
		default:
			fmt.Fprintf(tw, "%.0f\t%.0f\t%.2f\t\t\n", l.Distance, l.Strike, l.Bid)
		}
	}
	tw.Flush()
}

func renderSnapshotHeader(w io.Writer, title string, snapshot *services.ChainSnapshot) {
	fmt.Fprintf(w, "%s %s\n", services.DisplaySymbol(snapshot.Symbol), title)
	fmt.Fprintf(w, "Time:       %s\n", snapshot.FetchedAt.Format("01/02/2006 03:04:05 PM MST"))
	fmt.Fprintf(w, "Expiration: %s\n", expirationLine(snapshot.Expiration))
	if snapshot.Expiration == nil {
		fmt.Fprintln(w, "\nNo expiration available.")
		return
	}
	fmt.Fprintf(w, "Spot:       %.2f\n\n", snapshot.Spot)
}

// RenderOrders prints the order log and its counts
func RenderOrders(w io.Writer, orders []*interfaces.Order, summary interfaces.OrderSummary, filter interfaces.OrderFilter) {
	if len(orders) == 0 {
		if filter == interfaces.OrderFilterAll {
			fmt.Fprintln(w, "No orders found.")
		} else {
			fmt.Fprintf(w, "No %s orders found.\n", filter)
		}
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tID\tSYMBOL\tTYPE\tSTRIKE\tEXP\tQTY\tPRICE\tSTATUS\tENTERED")
		for i, o := range orders {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.0f\t%s\t%d\t$%.2f\t%s\t%s\n",
				i+1, shortID(o.ID), o.Symbol, o.Type, o.Strike, o.Expiration.Format("2006-01-02"),
				o.Quantity, o.LimitPrice, o.Status, o.SubmittedAt.Local().Format("01/02 03:04 PM"))
		}
		tw.Flush()
	}

	if summary.Total > 0 {
		fmt.Fprintf(w, "\nOpen: %d  Filled: %d  Cancelled: %d  Total: %d\n",
			summary.Open, summary.Filled, summary.Cancelled, summary.Total)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// RenderOrder prints a single recorded order
func RenderOrder(w io.Writer, order *interfaces.Order) {
	fmt.Fprintf(w, "Order %s  %s %d %s %.0fP exp %s LIMIT %.2f  [%s]\n",
		order.ID, order.Side, order.Quantity, order.Symbol, order.Strike,
		order.Expiration.Format("2006-01-02"), order.LimitPrice, order.Status)
}

// RenderQuote prints a symbol quote
func RenderQuote(w io.Writer, q *interfaces.SymbolQuote, elapsed time.Duration) {
	name := q.Name
	if name == "" {
		name = q.Symbol
	}
	sign := ""
	if q.Change >= 0 {
		sign = "+"
	}
	fmt.Fprintf(w, "%s\n", name)
	fmt.Fprintf(w, "  Symbol:    %s\n", q.Symbol)
	fmt.Fprintf(w, "  Price:     $%.2f\n", q.Price)
	fmt.Fprintf(w, "  Change:    %s%.2f (%s%.2f%%)\n", sign, q.Change, sign, q.ChangePercent)
	fmt.Fprintf(w, "  Day Range: $%.2f - $%.2f\n", q.DayLow, q.DayHigh)
	fmt.Fprintf(w, "  Volume:    %d\n", q.Volume)
	fmt.Fprintf(w, "  Query time: %dms\n", elapsed.Milliseconds())
}
