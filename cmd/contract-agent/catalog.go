package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"contract-agent/internal/state"

	"github.com/spf13/cobra"
)

func newCatalogCmd(root *rootArgs) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Fetch the tool catalog and show the tools the model will see",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCatalog(cmd.Context(), root, asJSON, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the tool definitions as JSON")
	return cmd
}

func runCatalog(ctx context.Context, root *rootArgs, asJSON bool, out io.Writer) error {
	c, err := root.container(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	entries, err := c.Catalog().Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch catalog: %w", err)
	}
	// 只用于展示，生成器不会被调用。
	sess, err := state.NewStore(nil).Open(ctx, "catalog")
	if err != nil {
		return err
	}
	registry := c.ToolBuilder().Build(entries, sess.BeginTurn(ctx, nil))

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(registry.Specs())
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tCARD\tPARAMS")
	for _, name := range registry.Names() {
		d, _ := registry.Lookup(name)
		params := make([]string, 0, d.Schema.Len())
		for _, p := range d.Schema.Names() {
			rule, _ := d.Schema.Rule(p)
			params = append(params, p+":"+string(rule.Kind))
		}
		sort.Strings(params)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Name, d.Kind, c.Cards().VariantOrDefault(d.Name), strings.Join(params, " "))
	}
	return tw.Flush()
}
