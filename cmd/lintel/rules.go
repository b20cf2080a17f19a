package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/lintel/internal/astcheck"
	"github.com/chris-regnier/lintel/internal/config"
	"github.com/chris-regnier/lintel/internal/lint"
)

func newRulesCmd() *cobra.Command {
	var (
		configPath string
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List available rules and their configured severity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadTiered(config.MachineConfigPath(), configPath)
			if err != nil {
				return &exitCodeError{code: exitError, err: fmt.Errorf("loading config: %w", err)}
			}
			return listRules(cmd, astcheck.DefaultRegistry(), cfg, asJSON)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", config.ProjectConfigPath, "Project configuration file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print rules as JSON")
	return cmd
}

type ruleInfo struct {
	ID          string       `json:"id"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	Fixable     bool         `json:"fixable"`
	Severity    string       `json:"severity"`
	Options     lint.Options `json:"options,omitempty"`
}

func listRules(cmd *cobra.Command, reg *astcheck.Registry, cfg *config.Config, asJSON bool) error {
	var infos []ruleInfo
	for _, m := range reg.Metas() {
		info := ruleInfo{
			ID:          m.ID,
			Description: m.Description,
			Category:    m.Category,
			Fixable:     m.Fixable,
			Severity:    lint.SeverityOff.String(),
		}
		if s, ok := cfg.Rules[m.ID]; ok {
			info.Severity = s.Severity.String()
			info.Options = s.Options
		}
		infos = append(infos, info)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RULE\tSEVERITY\tFIXABLE\tDESCRIPTION")
	for _, info := range infos {
		fixable := ""
		if info.Fixable {
			fixable = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.ID, info.Severity, fixable, info.Description)
	}
	return tw.Flush()
}
