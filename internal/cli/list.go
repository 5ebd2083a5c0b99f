package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/njchilds90/quasiscf/internal/config"
	"github.com/njchilds90/quasiscf/pairs"
)

type pairInfo struct {
	Name     string             `json:"name" yaml:"name"`
	Dim      int                `json:"m" yaml:"m"`
	LS       []int              `json:"ls" yaml:"ls"`
	Var      string             `json:"var" yaml:"var"`
	Params   map[string]float64 `json:"params" yaml:"params"`
	Citation string             `json:"citation" yaml:"citation"`
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the built-in example pairs",
		Example: `  # Table of pairs
  quasiscf list

  # As JSON
  quasiscf list -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd.Context())
			infos := listPairs(cfg)
			w := cmd.OutOrStdout()
			if ok, err := renderStructured(w, cfg.Output, infos); ok {
				return err
			}
			rows := make([]table.Row, len(infos))
			for i, p := range infos {
				rows[i] = table.Row{p.Name, p.Dim, fmt.Sprint(p.LS), p.Var, formatParams(p.Params), p.Citation}
			}
			renderTable(w, table.Row{"Name", "m", "ls", "Var", "Params", "Citation"}, rows)
			return nil
		},
	}
}

func listPairs(cfg *config.Config) []pairInfo {
	all := pairs.All()
	out := make([]pairInfo, len(all))
	for i, p := range all {
		out[i] = pairInfo{
			Name:     p.Name,
			Dim:      p.Dim(),
			LS:       p.LS,
			Var:      p.Var,
			Params:   cfg.ParamsFor(p.Name, p.Params),
			Citation: p.Citation,
		}
	}
	return out
}

func formatParams(params map[string]float64) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, params[k])
	}
	return strings.Join(parts, " ")
}
