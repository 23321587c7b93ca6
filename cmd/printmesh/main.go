// Command printmesh converts calibrated 2D images into per-material 3D
// printable meshes.
//
// Usage:
//
//	printmesh convert --lut calibration.npy image.png
//	printmesh merge --out merged/ a.npy b.npy
//	printmesh board --mode 4c --recipe rybw --out boards/
//	printmesh info calibration.npy image.png
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/chromastack/printmesh/internal/board"
	"github.com/chromastack/printmesh/internal/classify"
	"github.com/chromastack/printmesh/internal/convert"
	"github.com/chromastack/printmesh/internal/diag"
	"github.com/chromastack/printmesh/internal/lut"
	"github.com/chromastack/printmesh/internal/mesh"
	"github.com/chromastack/printmesh/internal/naming"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "convert":
		err = runConvert(ctx, os.Args[2:])
	case "merge":
		err = runMerge(os.Args[2:])
	case "board":
		err = runBoard(ctx, os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("printmesh %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "printmesh: unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("printmesh: %v", err)
	}
}

func usage() {
	fmt.Println("printmesh - convert calibrated images into per-material printable meshes")
	fmt.Println()
	fmt.Println("Usage: printmesh <command> [options] [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  convert    Convert an image into per-material STL files")
	fmt.Println("  merge      Merge calibration LUTs into one archive")
	fmt.Println("  board      Generate calibration-board STL files for a mode")
	fmt.Println("  info       Describe calibration, archive, and image files")
	fmt.Println("  version    Print version information")
	fmt.Println()
	fmt.Println("Run 'printmesh <command> --help' for command options.")
}

// activeTable loads the named calibration files and, when there is more
// than one, merges them into the active table for this run.
func activeTable(paths []string) (lut.Table, []diag.Warning, error) {
	reg := lut.NewRegistry()
	var warnings []diag.Warning
	for _, p := range paths {
		_, w, err := reg.Load(p)
		warnings = append(warnings, w...)
		if err != nil {
			return nil, warnings, err
		}
	}
	luts := reg.LUTs()
	if len(luts) == 1 {
		return luts[0], warnings, nil
	}
	if err := lut.CheckCompatibility(lutModes(luts)); err != nil {
		return nil, warnings, err
	}
	merged, w, err := lut.Merge(luts, lut.MergeOptions{})
	warnings = append(warnings, w...)
	if err != nil {
		return nil, warnings, err
	}
	return merged, warnings, nil
}

func lutModes(luts []*lut.CalibrationLUT) []lut.Mode {
	modes := make([]lut.Mode, len(luts))
	for i, l := range luts {
		modes[i] = l.Mode
	}
	return modes
}

func logWarnings(warnings []diag.Warning) {
	for _, w := range warnings {
		log.Printf("warning: %s", w)
	}
}

func runConvert(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	lutPaths := fs.StringArray("lut", nil, "calibration LUT file (repeatable; multiple LUTs are merged)")
	outDir := fs.String("out", ".", "output directory for the STL files")
	widthMM := fs.Float64("width", 0, "printed model width in mm (0 keeps pixel dimensions)")
	pixelSize := fs.Float64("pixel-size", 0.4, "voxel edge length in mm")
	layerHeight := fs.Float64("layer-height", 0.08, "print layer height in mm")
	metricName := fs.String("metric", "lab", "color distance metric: lab, rgb, or ciede2000")
	maxDistance := fs.Float64("max-distance", 0, "classification failure threshold (0 disables)")
	fallback := fs.String("fallback", "White", "material for positions exceeding the threshold")
	smooth := fs.Float64("smooth", 0, "Gaussian blur radius applied before classification (0 disables)")
	median := fs.Float64("median", 0, "median filter radius applied before classification (0 disables)")
	separateBacking := fs.Bool("separate-backing", false, "emit the backing plate as its own object")
	backingLayers := fs.Int("backing-layers", 0, "backing plate thickness in layers (0 uses the default)")
	noCleanup := fs.Bool("no-cleanup", false, "skip isolated-pixel cleanup")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(*lutPaths) == 0 {
		return fmt.Errorf("convert: at least one --lut is required")
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("convert: exactly one image argument is required")
	}

	metric, err := parseMetric(*metricName)
	if err != nil {
		return err
	}
	fallbackID, ok := lut.MaterialByName(*fallback)
	if !ok {
		return fmt.Errorf("convert: unknown fallback material %q", *fallback)
	}

	table, warnings, err := activeTable(*lutPaths)
	logWarnings(warnings)
	if err != nil {
		return err
	}

	imgPath := fs.Arg(0)
	img, err := convert.LoadImage(imgPath)
	if err != nil {
		return err
	}

	opts := convert.Options{
		TargetWidthMM: *widthMM,
		PixelSize:     *pixelSize,
		LayerHeight:   *layerHeight,
		SmoothRadius:  *smooth,
		MedianRadius:  *median,
		Classify: classify.Options{
			Metric:      metric,
			MaxDistance: *maxDistance,
			FallbackID:  fallbackID,
		},
		SeparateBacking: *separateBacking,
		BackingLayers:   *backingLayers,
		CleanupIsolated: !*noCleanup,
	}

	start := time.Now()
	res, err := convert.Convert(ctx, img, table, opts)
	if err != nil {
		return err
	}
	logWarnings(res.Warnings)
	for _, f := range res.Failures {
		log.Printf("material %s failed: %s", f.Material.Name(), f.Err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}
	base := strings.TrimSuffix(filepath.Base(imgPath), filepath.Ext(imgPath))
	now := time.Now()
	for _, m := range res.Meshes {
		name := naming.ModelFilename(base, m.Name, now)
		if err := writeSTLFile(filepath.Join(*outDir, name), m); err != nil {
			return err
		}
		log.Printf("wrote %s (%d faces)", name, len(m.Faces))
	}
	log.Printf("converted %dx%d in %s: %d meshes, %d classification failures",
		res.Stats.Width, res.Stats.Height, time.Since(start).Round(time.Millisecond),
		len(res.Meshes), res.Stats.ClassificationFailures)
	return nil
}

func writeSTLFile(path string, m *mesh.Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := mesh.WriteSTL(m, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runMerge(args []string) error {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	outDir := fs.String("out", ".", "output directory for the merged archive")
	dedup := fs.Float64("dedup", 0, "CIEDE2000 near-duplicate threshold (0 keeps every color)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("merge: at least two LUT files are required")
	}

	reg := lut.NewRegistry()
	for _, p := range fs.Args() {
		_, warnings, err := reg.Load(p)
		logWarnings(warnings)
		if err != nil {
			return err
		}
	}

	luts := reg.LUTs()
	if err := lut.CheckCompatibility(lutModes(luts)); err != nil {
		return err
	}

	merged, warnings, err := lut.Merge(luts, lut.MergeOptions{DedupThreshold: *dedup})
	logWarnings(warnings)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}
	name := naming.MergedFilename(merged.Label(), merged.Created)
	f, err := os.Create(filepath.Join(*outDir, name))
	if err != nil {
		return err
	}
	if err := lut.WriteArchive(merged, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Printf("wrote %s: %d samples (%d exact dupes collapsed, %d similar removed)",
		name, merged.Stats.TotalAfter, merged.Stats.ExactDupes, merged.Stats.SimilarRemoved)
	return nil
}

func runBoard(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("board", flag.ExitOnError)
	modeName := fs.String("mode", "", "board mode: bw, 4c, 6c, or 8c")
	recipeName := fs.String("recipe", "", "color recipe: rybw or cmyw (default per mode)")
	outDir := fs.String("out", ".", "output directory for the STL files")
	block := fs.Float64("block", board.DefaultBlockSizeMM, "patch edge length in mm")
	gap := fs.Float64("gap", board.DefaultGapMM, "gap between patches in mm")
	nozzle := fs.Float64("nozzle", board.DefaultNozzleWidth, "voxel pitch in mm")
	layerHeight := fs.Float64("layer-height", 0.08, "print layer height in mm")
	page := fs.Int("page", 0, "board page for modes spanning several boards")
	backingLayers := fs.Int("backing-layers", 0, "backing plate thickness in layers (0 uses the default)")
	background := fs.String("background", "White", "material filling gaps and the backing plate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	mode, err := parseMode(*modeName)
	if err != nil {
		return err
	}
	recipe, err := parseRecipe(*recipeName)
	if err != nil {
		return err
	}
	backgroundID, ok := lut.MaterialByName(*background)
	if !ok {
		return fmt.Errorf("board: unknown background material %q", *background)
	}

	grid, lay, err := board.Build(mode, recipe, board.Options{
		BlockSizeMM:   *block,
		GapMM:         *gap,
		NozzleWidth:   *nozzle,
		BackingLayers: *backingLayers,
		Background:    backgroundID,
		Page:          *page,
	})
	if err != nil {
		return err
	}
	log.Printf("board %s: %dx%d patches, %d samples, %.1fmm wide",
		mode, lay.TotalDim, lay.TotalDim, lay.Samples, lay.WidthMM)

	meshes, warnings, failures := mesh.Assemble(ctx, grid, mesh.Options{
		PixelSize:   *nozzle,
		LayerHeight: *layerHeight,
	})
	logWarnings(warnings)
	for _, f := range failures {
		log.Printf("material %s failed: %s", f.Material.Name(), f.Err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}
	base := fmt.Sprintf("calibration_%s", mode)
	if lay.Pages > 1 {
		base = fmt.Sprintf("%s_page%d", base, *page+1)
	}
	now := time.Now()
	for _, m := range meshes {
		name := naming.ModelFilename(base, m.Name, now)
		if err := writeSTLFile(filepath.Join(*outDir, name), m); err != nil {
			return err
		}
		log.Printf("wrote %s (%d faces)", name, len(m.Faces))
	}
	return nil
}

func parseMode(name string) (lut.Mode, error) {
	switch strings.ToLower(name) {
	case "bw", "2c":
		return lut.ModeBW, nil
	case "4c", "4color", "4-color":
		return lut.Mode4Color, nil
	case "6c", "6color", "6-color":
		return lut.Mode6Color, nil
	case "8c", "8color", "8-color":
		return lut.Mode8Color, nil
	}
	return 0, fmt.Errorf("unknown mode %q (want bw, 4c, 6c, or 8c)", name)
}

func parseRecipe(name string) (lut.Recipe, error) {
	switch strings.ToLower(name) {
	case "", "default":
		return lut.RecipeDefault, nil
	case "rybw", "rybwgk":
		return lut.RecipeRYBW, nil
	case "cmyw", "cmywgk":
		return lut.RecipeCMYW, nil
	}
	return 0, fmt.Errorf("unknown recipe %q (want rybw or cmyw)", name)
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("info: at least one file argument is required")
	}
	for _, path := range fs.Args() {
		if err := printInfo(path); err != nil {
			return err
		}
	}
	return nil
}

func printInfo(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		info, err := convert.LoadImageInfo(path)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %dx%d %s %s alpha=%v (%d bytes)\n",
			path, info.Width, info.Height, info.Format, info.ColorDepth,
			info.HasAlpha, info.FileSizeBytes)
		return nil
	case ".lutz":
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		merged, err := lut.ReadArchive(f)
		if err != nil {
			return err
		}
		fmt.Printf("%s: merged %s, %d samples, created %s\n",
			path, merged.Label(), len(merged.Samples()),
			merged.Created.Format(time.RFC3339))
		for i, s := range merged.Slots {
			if !s.Populated {
				continue
			}
			fmt.Printf("  %-8s from %s (%s)\n", lut.MaterialID(i).Name(), s.Source, s.Mode)
		}
		if un := merged.Unpopulated(); len(un) > 0 {
			names := make([]string, len(un))
			for i, id := range un {
				names[i] = id.Name()
			}
			fmt.Printf("  unpopulated: %s\n", strings.Join(names, ", "))
		}
		return nil
	default:
		reg := lut.NewRegistry()
		l, warnings, err := reg.Load(path)
		logWarnings(warnings)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s recipe=%s, %d samples\n", path, l.Mode, l.Recipe, l.Len())
		return nil
	}
}

func parseMetric(name string) (classify.Metric, error) {
	switch strings.ToLower(name) {
	case "lab", "":
		return classify.MetricLab, nil
	case "rgb":
		return classify.MetricRGB, nil
	case "ciede2000", "de2000":
		return classify.MetricCIEDE2000, nil
	}
	return 0, fmt.Errorf("unknown metric %q (want lab, rgb, or ciede2000)", name)
}
