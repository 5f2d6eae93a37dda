package repl

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"mbs-manager/internal/core"
	"mbs-manager/internal/session"
	"mbs-manager/internal/views"
)

var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	okStyle     = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2) + " €"
}

// stockStyle colours a stock status: out red, low amber, normal green.
func stockStyle(s core.StockStatus) lipgloss.Style {
	switch s {
	case core.StockOut:
		return errorStyle
	case core.StockLow:
		return warnStyle
	default:
		return okStyle
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render(title))
}

func printDashboard(w io.Writer, st views.DashboardStats, recent []core.Order) {
	section(w, "TABLEAU DE BORD")
	fmt.Fprintf(w, "  Chiffre d'affaires : %s\n", money(st.TotalRevenue))
	fmt.Fprintf(w, "  Commandes          : %d\n", st.TotalOrders)
	fmt.Fprintf(w, "  Clients actifs     : %d\n", st.TotalCustomers)
	low := strconv.Itoa(st.LowStockItems)
	if st.LowStockItems > 0 {
		low = warnStyle.Render(low)
	}
	fmt.Fprintf(w, "  Stock faible       : %s\n", low)
	if len(recent) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  Aucune commande récente."))
		return
	}
	t := newTable("N°", "CLIENT", "DATE", "STATUT", "TOTAL")
	for _, o := range recent {
		t.Row(o.OrderNumber, core.Deref(o.CustomerName), o.OrderDate.Format("02/01/2006"), string(o.Status), money(o.TotalAmount))
	}
	fmt.Fprintln(w, t.Render())
}

func printInventory(w io.Writer, rows []core.InventoryItem, st views.InventoryStats) {
	section(w, "INVENTAIRE")
	fmt.Fprintf(w, "  %d produits, %d en stock faible, valeur %s\n", st.Products, st.LowStock, money(st.StockValue))
	if len(rows) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  Aucun produit trouvé."))
		return
	}
	t := newTable("SKU", "PRODUIT", "QTÉ", "RÉSERVÉ", "DISPO", "MIN", "STATUT")
	for _, r := range rows {
		status := r.Status()
		t.Row(r.ProductSKU, r.ProductName,
			strconv.Itoa(r.Quantity), strconv.Itoa(r.ReservedQuantity), strconv.Itoa(r.Available()),
			strconv.Itoa(r.MinStockLevel), stockStyle(status).Render(status.Label()))
	}
	fmt.Fprintln(w, t.Render())
}

func printCustomers(w io.Writer, rows []core.Customer, byType map[core.CustomerType]int) {
	section(w, "CLIENTS")
	counts := make([]string, 0, len(core.CustomerTypes))
	for _, ct := range core.CustomerTypes {
		counts = append(counts, fmt.Sprintf("%s %d", ct, byType[ct]))
	}
	fmt.Fprintln(w, "  "+strings.Join(counts, " · "))
	if len(rows) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  Aucun client trouvé."))
		return
	}
	t := newTable("SOCIÉTÉ", "CONTACT", "TYPE", "VILLE", "TÉLÉPHONE", "CRÉDIT")
	for _, c := range rows {
		t.Row(c.CompanyName, c.ContactName, string(c.CustomerType), core.Deref(c.City), core.Deref(c.Phone), money(c.CreditLimit))
	}
	fmt.Fprintln(w, t.Render())
}

func printSuppliers(w io.Writer, rows []core.Supplier) {
	section(w, "FOURNISSEURS")
	if len(rows) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  Aucun fournisseur trouvé."))
		return
	}
	t := newTable("NOM", "CONTACT", "EMAIL", "PAYS", "CONDITIONS")
	for _, s := range rows {
		t.Row(s.Name, core.Deref(s.ContactPerson), core.Deref(s.Email), s.Country, core.Deref(s.PaymentTerms))
	}
	fmt.Fprintln(w, t.Render())
}

func printOrders(w io.Writer, rows []core.Order, st views.OrderStats) {
	section(w, "COMMANDES")
	fmt.Fprintf(w, "  %d commandes, %d en cours, %d livrées, CA %s\n", st.Total, st.InProgress, st.Delivered, money(st.Revenue))
	if len(rows) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  Aucune commande trouvée."))
		return
	}
	t := newTable("ID", "N°", "CLIENT", "DATE", "STATUT", "PAIEMENT", "TOTAL")
	for _, o := range rows {
		t.Row(o.ID, o.OrderNumber, core.Deref(o.CustomerName), o.OrderDate.Format("02/01/2006"),
			string(o.Status), string(o.PaymentStatus), money(o.TotalAmount))
	}
	fmt.Fprintln(w, t.Render())
}

func printOrder(w io.Writer, o core.Order, items []core.OrderItem) {
	section(w, "COMMANDE "+o.OrderNumber)
	fmt.Fprintf(w, "  Client   : %s\n", core.Deref(o.CustomerName))
	fmt.Fprintf(w, "  Date     : %s\n", o.OrderDate.Format("02/01/2006"))
	if o.DeliveryDate != nil {
		fmt.Fprintf(w, "  Livraison: %s\n", o.DeliveryDate.Format("02/01/2006"))
	}
	fmt.Fprintf(w, "  Statut   : %s / %s\n", o.Status, o.PaymentStatus)
	if n := core.Deref(o.Notes); n != "" {
		fmt.Fprintf(w, "  Notes    : %s\n", n)
	}
	t := newTable("PRODUIT", "QTÉ", "PRIX", "SOUS-TOTAL")
	for _, it := range items {
		t.Row(it.ProductID, strconv.Itoa(it.Quantity), money(it.UnitPrice), money(it.Subtotal))
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "  Total    : %s\n", money(o.TotalAmount))
}

func printAnalytics(w io.Writer, st views.AnalyticsStats) {
	section(w, "ANALYSES")
	fmt.Fprintf(w, "  CA du mois         : %s\n", money(st.MonthRevenue))
	fmt.Fprintf(w, "  Unités vendues     : %d\n", st.UnitsSold)
	fmt.Fprintf(w, "  Panier moyen       : %s\n", money(st.AverageOrderValue))
	fmt.Fprintf(w, "  Clients actifs     : %d\n", st.ActiveCustomers)
	t := newTable("STATUT", "CA")
	for _, s := range core.OrderStatuses {
		t.Row(string(s), money(st.RevenueByStatus[s]))
	}
	fmt.Fprintln(w, t.Render())
}

func printNotifications(w io.Writer, items []core.Notification, unread int) {
	section(w, fmt.Sprintf("NOTIFICATIONS (%d non lues)", unread))
	if len(items) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  Aucune notification."))
		return
	}
	for _, n := range items {
		mark := mutedStyle.Render("○")
		if !n.Read {
			mark = warnStyle.Render("●")
		}
		fmt.Fprintf(w, "  %s %s  %s\n", mark, n.Title, mutedStyle.Render(n.CreatedAt.Format("02/01 15:04")))
		if n.Message != "" {
			fmt.Fprintf(w, "      %s\n", n.Message)
		}
		fmt.Fprintf(w, "      %s\n", mutedStyle.Render("id "+n.ID))
	}
}

func printProfile(w io.Writer, st session.State) {
	section(w, "PROFIL")
	if st.CurrentUser == nil {
		fmt.Fprintln(w, "  Not signed in.")
		return
	}
	fmt.Fprintf(w, "  Email   : %s\n", st.CurrentUser.Email)
	if p := st.Profile; p != nil {
		fmt.Fprintf(w, "  Nom     : %s\n", p.FullName)
		fmt.Fprintf(w, "  Rôle    : %s\n", p.Role)
		if v := core.Deref(p.Phone); v != "" {
			fmt.Fprintf(w, "  Tél.    : %s\n", v)
		}
		if v := core.Deref(p.CompanyName); v != "" {
			fmt.Fprintf(w, "  Société : %s\n", v)
		}
	}
}

func printHelp(w io.Writer) {
	section(w, "COMMANDS")
	groups := []struct {
		title string
		lines [][2]string
	}{
		{"Session", [][2]string{
			{"/login <email> <password>", "Sign in"},
			{"/signup <email> <password> <role> <name>", "Create an account"},
			{"/logout", "Sign out"},
			{"/whoami", "Show the signed-in profile"},
			{"/edit-profile", "Edit name, phone and company"},
			{"/password", "Change password"},
		}},
		{"Pages", [][2]string{
			{"/dashboard", "Revenue, orders, customers and low stock"},
			{"/inventory [search]", "Stock levels"},
			{"/customers [search]", "Customer list"},
			{"/suppliers [search]", "Supplier list"},
			{"/orders [status] [search]", "Orders, optionally filtered"},
			{"/order <id>", "Order detail"},
			{"/analytics", "Sales figures"},
		}},
		{"Forms", [][2]string{
			{"/new-product", "Add a product with its stock row"},
			{"/new-customer", "Add a customer"},
			{"/new-supplier", "Add a supplier"},
			{"/new-order", "Create an order"},
			{"/edit-order <id>", "Edit an order"},
			{"/delete-order <id>", "Delete an order"},
		}},
		{"Notifications", [][2]string{
			{"/notifications", "Recent notifications"},
			{"/read <id>", "Mark one as read"},
			{"/read-all", "Mark all as read"},
			{"/dismiss <id>", "Delete one"},
		}},
		{"", [][2]string{{"/help", "This list"}, {"/exit", "Quit"}}},
	}
	for _, g := range groups {
		if g.title != "" {
			fmt.Fprintln(w, mutedStyle.Render("  "+g.title))
		}
		for _, l := range g.lines {
			fmt.Fprintf(w, "    %-44s %s\n", l[0], l[1])
		}
	}
}
