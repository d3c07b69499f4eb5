package commands

import (
	"strconv"

	"github.com/leapstack-labs/xenocrm/internal/cli/output"
	"github.com/leapstack-labs/xenocrm/internal/crm"
	"github.com/leapstack-labs/xenocrm/internal/customers"
	"github.com/spf13/cobra"
)

// NewCustomersCommand creates the customers command.
func NewCustomersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "customers",
		Short: "List all customers",
		Long: `List every customer with total spend and visit count.

Output adapts to environment:
  - Terminal: table
  - Piped/Scripted: Markdown table

Use --output to override: auto, text, markdown, json`,
		Example: `  xenocrm customers
  xenocrm customers -o json | jq '.customers[].email'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCustomers(cmd)
		},
	}
}

func runCustomers(cmd *cobra.Command) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	list := customers.NewList(cmdCtx.Client, cmdCtx.Logger)
	if err := list.Load(cmd.Context()); err != nil {
		r.Error(list.Error())
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(struct {
			Customers []crm.Customer `json:"customers"`
		}{Customers: list.Customers()})
	}

	r.Header(1, customers.Title)
	if list.Empty() {
		r.Muted(customers.EmptyMessage)
		return nil
	}

	rows := make([][]string, 0, len(list.Customers()))
	for _, c := range list.Customers() {
		rows = append(rows, []string{
			c.Name,
			c.Email,
			customers.FormatSpend(c.Metadata.TotalSpend),
			customers.FormatCount(c.Metadata.VisitCount),
		})
	}
	r.Table([]string{"Name", "Email", "Total Spend ($)", "Visit Count"}, rows, 3, 4)
	if r.EffectiveMode() == output.ModeText {
		r.Muted(strconv.Itoa(len(rows)) + " customers")
	}
	return nil
}
