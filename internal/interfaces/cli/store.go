package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/molgraph/internal/application/structure"
	"github.com/turtacn/molgraph/internal/infrastructure/database/sqlite"
	"github.com/turtacn/molgraph/pkg/errors"
	"github.com/turtacn/molgraph/pkg/types/common"
	stypes "github.com/turtacn/molgraph/pkg/types/structure"
)

func newStoreCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Keep models in a local SQLite file",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite file (default: database.sqlite.path)")

	// withStore opens the database for the duration of one subcommand.
	withStore := func(run func(cmd *cobra.Command, svc structure.Service, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			path := dbPath
			if path == "" {
				path = cc.Config.Database.SQLite.Path
			}
			store, err := sqlite.Open(cmd.Context(), path, cc.Logger)
			if err != nil {
				return err
			}
			defer store.Close()
			return run(cmd, newLocalService(cc, structure.Deps{Repository: store}), args)
		}
	}

	save := &cobra.Command{
		Use:   "save <file>",
		Short: "Check a model file and save it",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, svc structure.Service, args []string) error {
			dto, err := readModelFile(args[0])
			if err != nil {
				return err
			}
			sum, err := svc.Ingest(cmd.Context(), dto)
			if err != nil {
				return err
			}
			if cc, _ := GetCLIContext(cmd); cc != nil && cc.OutputFormat != "text" {
				return PrintResult(cmd, summaryView(*sum))
			}
			PrintSuccess(cmd, fmt.Sprintf("saved %s (%d atoms)", sum.ID, sum.AtomCount))
			return nil
		}),
	}

	var summaryOnly bool
	load := &cobra.Command{
		Use:   "load <id>",
		Short: "Print a stored model document",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, svc structure.Service, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if summaryOnly {
				sum, err := svc.Summary(cmd.Context(), id)
				if err != nil {
					return err
				}
				return PrintResult(cmd, summaryView(*sum))
			}
			dto, err := svc.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dto)
		}),
	}
	load.Flags().BoolVar(&summaryOnly, "summary", false, "print the summary instead of the document")

	var page common.Pagination
	list := &cobra.Command{
		Use:   "list",
		Short: "List stored models, newest first",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, svc structure.Service, args []string) error {
			res, err := svc.List(cmd.Context(), page.Normalize())
			if err != nil {
				return err
			}
			return PrintResult(cmd, headersView(*res))
		}),
	}
	list.Flags().IntVar(&page.Page, "page", 1, "page number")
	list.Flags().IntVar(&page.PageSize, "page-size", 20, "models per page")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored model",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, svc structure.Service, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := svc.Delete(cmd.Context(), id); err != nil {
				return err
			}
			PrintSuccess(cmd, "deleted "+string(id))
			return nil
		}),
	}

	cmd.AddCommand(save, load, list, del)
	return cmd
}

func parseID(s string) (common.ID, error) {
	id := common.ID(strings.TrimSpace(s))
	if err := id.Validate(); err != nil {
		return "", errors.InvalidParam("invalid model id").WithDetail(s)
	}
	return id, nil
}

type headersView common.PageResponse[*stypes.ModelHeader]

func (h headersView) String() string {
	if len(h.Items) == 0 {
		return "no models stored"
	}
	var b strings.Builder
	for _, m := range h.Items {
		fmt.Fprintf(&b, "%s  %7d atoms  v%-3d %s  %s\n", m.ID, m.AtomCount, m.Version, m.UpdatedAt.String(), m.Title)
	}
	fmt.Fprintf(&b, "page %d/%d, %d models", h.Page, h.TotalPages, h.Total)
	return b.String()
}

func (h headersView) TableHeaders() []string {
	return []string{"ID", "Title", "Atoms", "Version", "Updated"}
}

func (h headersView) TableRows() [][]string {
	rows := make([][]string, 0, len(h.Items))
	for _, m := range h.Items {
		rows = append(rows, []string{string(m.ID), m.Title, strconv.Itoa(m.AtomCount), strconv.Itoa(m.Version), m.UpdatedAt.String()})
	}
	return rows
}

//Personal.AI order the ending
