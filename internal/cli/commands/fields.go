package commands

import (
	"strings"

	"github.com/leapstack-labs/xenocrm/internal/cli/output"
	"github.com/leapstack-labs/xenocrm/pkg/rules"
	"github.com/spf13/cobra"
)

// NewFieldsCommand creates the fields command.
func NewFieldsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "Show the fields and operators rules can use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFields(cmd)
		},
	}
}

func fieldInfos() []output.FieldInfo {
	catalog := rules.Catalog()
	infos := make([]output.FieldInfo, 0, len(catalog))
	for _, f := range catalog {
		ops := rules.OperatorsFor(f.Type)
		names := make([]string, len(ops))
		for i, op := range ops {
			names[i] = op.Name
		}
		infos = append(infos, output.FieldInfo{
			Name:      f.Name,
			Label:     f.Label,
			Type:      string(f.Type),
			Operators: names,
		})
	}
	return infos
}

func runFields(cmd *cobra.Command) error {
	r := NewCommandContextWithoutClient(cmd).Renderer
	infos := fieldInfos()

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(infos)
	}

	rows := make([][]string, len(infos))
	for i, f := range infos {
		rows[i] = []string{f.Name, f.Label, f.Type, strings.Join(f.Operators, ", ")}
	}
	r.Header(1, "Fields")
	r.Table([]string{"Field", "Label", "Type", "Operators"}, rows)
	return nil
}
