package main

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/quailyquaily/justdoit/internal/clifmt"
	"github.com/quailyquaily/justdoit/internal/logutil"
	"github.com/quailyquaily/justdoit/tools"
)

type toolJSON struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the bot commands backed by tools",
		RunE:  runToolsCmd,
	}
	cmd.Flags().Bool("json", false, "Print tools with their parameter JSON schema.")
	return cmd
}

func runToolsCmd(cmd *cobra.Command, _ []string) error {
	logger, err := logutil.LoggerFromViper()
	if err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	pack, err := contentFromViper()
	if err != nil {
		return err
	}
	r := registryFromViper(logger, collaboratorsFromViper(logger), pack)

	out := cmd.OutOrStdout()
	if asJSON {
		items := make([]toolJSON, 0, r.Len())
		for _, info := range r.Infos() {
			items = append(items, toolJSON{
				Name:        info.Name,
				Description: info.Description,
				Parameters:  tools.ParameterSchema(info.Parameters),
			})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	rows := make([]clifmt.Row, 0, r.Len())
	for _, info := range r.Infos() {
		row := clifmt.Row{Name: "/" + info.Name, Detail: info.Description}
		for _, p := range info.Parameters {
			marker := "optional"
			if p.Required {
				marker = "required"
			}
			row.Notes = append(row.Notes, fmt.Sprintf("%s (%s, %s): %s", p.Name, orString(p.Type), marker, p.Description))
		}
		rows = append(rows, row)
	}
	clifmt.PrintTable(out, clifmt.TableOptions{
		Title:        "Commands",
		Rows:         rows,
		EmptyText:    "No tools are registered.",
		NameHeader:   "COMMAND",
		DetailHeader: "DESCRIPTION",
	})
	return nil
}

func orString(typ string) string {
	if typ == "" {
		return "string"
	}
	return typ
}
