package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"pharmapos/m/domain"
)

var paymentLabels = map[domain.PaymentMethod]string{
	domain.PaymentCash:     "Cash",
	domain.PaymentDebit:    "Debit card",
	domain.PaymentCredit:   "Credit card",
	domain.PaymentTransfer: "Bank transfer",
}

// WriteReceipt renders a receipt as plain text for a receipt printer.
func WriteReceipt(w io.Writer, r domain.Receipt) error {
	rule := strings.Repeat("-", 40)
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', tabwriter.AlignRight)

	fmt.Fprintf(tw, "%s\n", r.TransactionNumber)
	fmt.Fprintf(tw, "Date:\t%s\n", r.TransactionDate.Format("2006-01-02 15:04"))
	fmt.Fprintf(tw, "Cashier:\t%s\n", r.CashierName)
	if r.CustomerName != "" {
		fmt.Fprintf(tw, "Customer:\t%s\n", r.CustomerName)
	}
	fmt.Fprintln(tw, rule)
	for _, it := range r.Items {
		fmt.Fprintf(tw, "%s\n", it.DrugName)
		fmt.Fprintf(tw, "  %d %s x %s\t%s\n", it.Quantity, it.Unit, it.UnitPrice.StringFixed(2), it.Subtotal.StringFixed(2))
	}
	fmt.Fprintln(tw, rule)
	fmt.Fprintf(tw, "Items:\t%d\n", r.ItemCount())
	fmt.Fprintf(tw, "Total:\t%s\n", r.TotalAmount.StringFixed(2))

	method := paymentLabels[r.PaymentMethod]
	if method == "" {
		method = string(r.PaymentMethod)
	}
	fmt.Fprintf(tw, "Payment:\t%s\n", method)
	return tw.Flush()
}
