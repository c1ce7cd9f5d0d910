package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/molgraph/internal/application/structure"
	"github.com/turtacn/molgraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgraph/internal/infrastructure/storage/snapshot"
	"github.com/turtacn/molgraph/pkg/errors"
	"github.com/turtacn/molgraph/pkg/types/common"
	stypes "github.com/turtacn/molgraph/pkg/types/structure"
)

// loadLocal reads path into a fresh in-memory service.
func loadLocal(cmd *cobra.Command, path string) (structure.Service, *CLIContext, common.ID, error) {
	cc, err := GetCLIContext(cmd)
	if err != nil {
		return nil, nil, "", err
	}
	dto, err := readModelFile(path)
	if err != nil {
		return nil, nil, "", err
	}
	svc := newLocalService(cc, structure.Deps{})
	sum, err := svc.Ingest(cmd.Context(), dto)
	if err != nil {
		return nil, nil, "", err
	}
	cc.Logger.Debug("model loaded", logging.String("file", path), logging.String(logging.FieldModelID, string(sum.ID)))
	return svc, cc, sum.ID, nil
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Check a model's integrity and print its summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, id, err := loadLocal(cmd, args[0])
			if err != nil {
				return err
			}
			sum, err := svc.Summary(cmd.Context(), id)
			if err != nil {
				return err
			}
			return PrintResult(cmd, summaryView(*sum))
		},
	}
}

func newSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <file> <expression...>",
		Short: "Print the atoms matching a selection expression",
		Long: "Selection expressions combine field tests with and/or/not, e.g.\n" +
			"  chain A and resname GLY ALA\n" +
			"  element FE or within 3.5 of hetero",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, id, err := loadLocal(cmd, args[0])
			if err != nil {
				return err
			}
			atoms, err := svc.Select(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return PrintResult(cmd, atomsView(atoms))
		},
	}
}

func newExportCmd() *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the checked model document, with inferred bonds when enabled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cc, id, err := loadLocal(cmd, args[0])
			if err != nil {
				return err
			}
			return runExport(cmd.Context(), svc, cc, id, format, out, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "document format: json or xz")
	cmd.Flags().StringVarP(&out, "file", "f", "", "write to this file instead of stdout")
	return cmd
}

func runExport(ctx context.Context, svc structure.Service, cc *CLIContext, id common.ID, format, out string, stdout io.Writer) error {
	res, err := svc.Export(ctx, id)
	if err != nil {
		return err
	}
	raw, err := snapshot.Marshal(res.Model)
	if err != nil {
		return err
	}
	switch format {
	case "json":
		raw = append(raw, '\n')
	case "xz":
		if raw, err = snapshot.Compress(raw); err != nil {
			return err
		}
	default:
		return errors.InvalidParam(fmt.Sprintf("unknown export format %q; expected json or xz", format))
	}

	w := stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return errors.Wrap(err, errors.CodeInvalidParam, "cannot create output file").WithDetail(out)
		}
		defer f.Close()
		w = f
	}
	if _, err := w.Write(raw); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "writing export")
	}
	cc.Logger.Info("model exported", logging.String("digest", res.Digest), logging.String("format", format))
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Views
// ─────────────────────────────────────────────────────────────────────────────

type summaryView stypes.ModelSummary

func (s summaryView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Model %s", s.ID)
	if s.Title != "" {
		fmt.Fprintf(&b, " (%s)", s.Title)
	}
	fmt.Fprintf(&b, "\n  chains:          %d %v\n", s.ChainCount, s.ChainIDs)
	fmt.Fprintf(&b, "  residues:        %d\n", s.ResidueCount)
	fmt.Fprintf(&b, "  small molecules: %d\n", s.SmallMoleculeCount)
	fmt.Fprintf(&b, "  atoms:           %d\n", s.AtomCount)
	fmt.Fprintf(&b, "  bonds:           %d\n", s.BondCount)
	fmt.Fprintf(&b, "  strands/helices: %d/%d\n", s.BetaStrandCount, s.HelixCount)
	fmt.Fprintf(&b, "  mass:            %.3f Da\n", s.Mass)
	fmt.Fprintf(&b, "  formula:         %s", formulaString(s.Formula))
	for _, id := range sortedKeys(s.Sequences) {
		fmt.Fprintf(&b, "\n  sequence %-6s %s", id+":", s.Sequences[id])
	}
	return b.String()
}

func (s summaryView) TableHeaders() []string {
	return []string{"Chain", "Length", "Sequence"}
}

func (s summaryView) TableRows() [][]string {
	rows := make([][]string, 0, len(s.Sequences))
	for _, id := range sortedKeys(s.Sequences) {
		rows = append(rows, []string{id, strconv.Itoa(len(s.Sequences[id])), s.Sequences[id]})
	}
	return rows
}

// formulaString writes C and H first, then the other elements alphabetically.
func formulaString(formula map[string]int) string {
	var b strings.Builder
	write := func(el string) {
		b.WriteString(el)
		if n := formula[el]; n > 1 {
			b.WriteString(strconv.Itoa(n))
		}
	}
	for _, el := range []string{"C", "H"} {
		if formula[el] > 0 {
			write(el)
		}
	}
	for _, el := range sortedKeys(formula) {
		if el != "C" && el != "H" {
			write(el)
		}
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type atomsView []stypes.AtomView

func (a atomsView) String() string {
	var b strings.Builder
	for i, v := range a {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%6d %-4s %-2s %-10s %8.3f %8.3f %8.3f", v.ID, v.Name, v.Element, atomOwner(v), v.X, v.Y, v.Z)
	}
	if len(a) == 0 {
		b.WriteString("no atoms selected")
	}
	return b.String()
}

func (a atomsView) TableHeaders() []string {
	return []string{"ID", "Name", "Element", "Owner", "X", "Y", "Z"}
}

func (a atomsView) TableRows() [][]string {
	rows := make([][]string, 0, len(a))
	for _, v := range a {
		rows = append(rows, []string{
			strconv.Itoa(v.ID), v.Name, v.Element, atomOwner(v),
			strconv.FormatFloat(v.X, 'f', 3, 64),
			strconv.FormatFloat(v.Y, 'f', 3, 64),
			strconv.FormatFloat(v.Z, 'f', 3, 64),
		})
	}
	return rows
}

func atomOwner(v stypes.AtomView) string {
	if v.SmallMoleculeID != "" {
		return v.SmallMoleculeID
	}
	if v.ChainID == "" {
		return v.ResidueID
	}
	return v.ChainID + "/" + v.ResidueID
}

//Personal.AI order the ending
