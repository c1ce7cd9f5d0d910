package cli

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/fogleman/gg"
	"github.com/spf13/cobra"

	"github.com/turtacn/molgraph/internal/domain/structure"
	"github.com/turtacn/molgraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgraph/pkg/errors"
	stypes "github.com/turtacn/molgraph/pkg/types/structure"
)

// renderOptions control the orthographic projection.
type renderOptions struct {
	Size int
	// Axis is the viewing direction: the coordinate dropped by the projection.
	Axis string
	// Scale is ångström-to-pixel; zero fits the model to Size.
	Scale float64
}

// CPK-style colours; unknown elements are drawn pink.
var elementColors = map[string]string{
	"H": "#FFFFFF", "C": "#909090", "N": "#3050F8", "O": "#FF0D0D",
	"S": "#FFFF30", "P": "#FF8000", "Fe": "#E06633", "Zn": "#7D80B0",
	"Mg": "#8AFF00", "Ca": "#3DFF00", "Cl": "#1FF01F", "Na": "#AB5CF2",
	"Cu": "#C88033", "Mn": "#9C7AC7", "Se": "#FFA100",
}

const (
	defaultColor = "#FF1493"
	background   = "#101418"
	bondColor    = "#B0B0B0"
	margin       = 24.0
)

func newRenderCmd() *cobra.Command {
	var (
		out       string
		highlight string
		opts      renderOptions
	)
	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Draw an orthographic projection of the model as PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cc, id, err := loadLocal(cmd, args[0])
			if err != nil {
				return err
			}
			dto, err := svc.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			marked := map[int]bool{}
			if highlight != "" {
				atoms, err := svc.Select(cmd.Context(), id, highlight)
				if err != nil {
					return err
				}
				for _, a := range atoms {
					marked[a.ID] = true
				}
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return errors.Wrap(err, errors.CodeInvalidParam, "cannot create output file").WithDetail(out)
				}
				defer f.Close()
				w = f
			}
			if err := renderPNG(w, dto, marked, opts); err != nil {
				return err
			}
			cc.Logger.Info("model rendered",
				logging.String("file", out),
				logging.Int("highlighted", len(marked)),
			)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "O", "model.png", "PNG file to write (- for stdout)")
	cmd.Flags().StringVar(&highlight, "highlight", "", "selection expression whose atoms are drawn enlarged")
	cmd.Flags().IntVar(&opts.Size, "size", 800, "image width and height in pixels")
	cmd.Flags().StringVar(&opts.Axis, "axis", "z", "viewing axis: x, y or z")
	cmd.Flags().Float64Var(&opts.Scale, "scale", 0, "pixels per ångström (0 fits the model)")
	return cmd
}

type projected struct {
	atom  stypes.AtomDTO
	u, v  float64
	depth float64
}

// project drops the viewing axis and keeps it as depth.
func project(a stypes.AtomDTO, axis string) (u, v, depth float64, err error) {
	switch axis {
	case "z", "":
		return a.X, a.Y, a.Z, nil
	case "y":
		return a.X, a.Z, a.Y, nil
	case "x":
		return a.Y, a.Z, a.X, nil
	default:
		return 0, 0, 0, errors.InvalidParam(fmt.Sprintf("unknown axis %q; expected x, y or z", axis))
	}
}

// modelAtoms lists every atom of the document: residue atoms, then small
// molecule atoms.
func modelAtoms(dto *stypes.ModelDTO) []stypes.AtomDTO {
	var atoms []stypes.AtomDTO
	for _, c := range dto.Chains {
		for _, r := range c.Residues {
			atoms = append(atoms, r.Atoms...)
		}
	}
	for _, sm := range dto.SmallMolecules {
		atoms = append(atoms, sm.Atoms...)
	}
	return atoms
}

// renderPNG draws bonds first, then atoms back to front.
func renderPNG(w io.Writer, dto *stypes.ModelDTO, highlight map[int]bool, opts renderOptions) error {
	if opts.Size < 64 {
		return errors.ValueRange(fmt.Sprintf("image size must be at least 64 pixels, not %d", opts.Size))
	}
	atoms := modelAtoms(dto)
	if len(atoms) == 0 {
		return errors.InvalidParam("model has no atoms to render")
	}

	pts := make([]projected, 0, len(atoms))
	minU, minV := math.Inf(1), math.Inf(1)
	maxU, maxV := math.Inf(-1), math.Inf(-1)
	for _, a := range atoms {
		u, v, d, err := project(a, opts.Axis)
		if err != nil {
			return err
		}
		pts = append(pts, projected{atom: a, u: u, v: v, depth: d})
		minU, maxU = math.Min(minU, u), math.Max(maxU, u)
		minV, maxV = math.Min(minV, v), math.Max(maxV, v)
	}

	size := float64(opts.Size)
	scale := opts.Scale
	if scale <= 0 {
		span := math.Max(maxU-minU, maxV-minV)
		scale = 10
		if span > 0 {
			scale = (size - 2*margin) / span
		}
	}
	midU, midV := (minU+maxU)/2, (minV+maxV)/2
	toScreen := func(u, v float64) (float64, float64) {
		// Image y grows downwards.
		return size/2 + (u-midU)*scale, size/2 - (v-midV)*scale
	}

	dc := gg.NewContext(opts.Size, opts.Size)
	dc.SetHexColor(background)
	dc.Clear()

	byID := make(map[int]projected, len(pts))
	for _, p := range pts {
		byID[p.atom.ID] = p
	}
	dc.SetHexColor(bondColor)
	dc.SetLineWidth(math.Max(1, scale*0.15))
	for _, b := range dto.Bonds {
		p, ok1 := byID[b[0]]
		q, ok2 := byID[b[1]]
		if !ok1 || !ok2 {
			continue
		}
		x1, y1 := toScreen(p.u, p.v)
		x2, y2 := toScreen(q.u, q.v)
		dc.DrawLine(x1, y1, x2, y2)
		dc.Stroke()
	}

	sort.SliceStable(pts, func(i, j int) bool { return pts[i].depth < pts[j].depth })
	for _, p := range pts {
		x, y := toScreen(p.u, p.v)
		r := atomRadius(p.atom.Element) * scale * 0.5
		if highlight[p.atom.ID] {
			r *= 1.8
		}
		r = math.Max(r, 1.5)
		dc.DrawCircle(x, y, r)
		dc.SetHexColor(colorOf(p.atom.Element))
		dc.FillPreserve()
		dc.SetRGBA(0, 0, 0, 0.6)
		dc.SetLineWidth(1)
		dc.Stroke()
	}

	if err := dc.EncodePNG(w); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "encoding png")
	}
	return nil
}

func atomRadius(element string) float64 {
	if r, ok := structure.CovalentRadius(element); ok {
		return r
	}
	return 0.75
}

func colorOf(element string) string {
	if c, ok := elementColors[structure.NormalizeElement(element)]; ok {
		return c
	}
	return defaultColor
}

//Personal.AI order the ending
