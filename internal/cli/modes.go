package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orrery/pkg/viewmode"
)

// modesCommand lists the view modes.
func (c *CLI) modesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List the view modes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, len(viewmode.Modes))
			for i, m := range viewmode.Modes {
				name := string(m)
				if m == viewmode.DefaultMode {
					name += " (default)"
				}
				rows[i] = []string{name, m.Description()}
			}
			fmt.Println(simpleTable([]string{"Mode", "Description"}, rows))
			return nil
		},
	}
}

// catalogsCommand lists the available catalogs.
func (c *CLI) catalogsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "catalogs",
		Short: "List the available catalogs",
		Long: `List the built-in catalogs and those found in the --catalogs directory.
A catalog in the directory shadows a built-in of the same name.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := c.catalogStore().List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list catalogs: %w", err)
			}
			if len(infos) == 0 {
				printInfo("No catalogs found")
				return nil
			}
			rows := make([][]string, len(infos))
			for i, info := range infos {
				rows[i] = []string{info.Name, strconv.Itoa(info.Objects), info.Description}
			}
			fmt.Println(simpleTable([]string{"Catalog", "Objects", "Description"}, rows))
			printNewline()
			printNextStep("Lay one out", "orrery layout "+infos[0].Name)
			return nil
		},
	}
}

// simpleTable renders rows with the standard border and header styles.
func simpleTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if col == 0 {
				return StyleValue
			}
			return StyleDim
		}).
		Render()
}
