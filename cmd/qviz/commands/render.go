package commands

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-getter"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/teranos/QVIZ/am"
	"github.com/teranos/QVIZ/errors"
	"github.com/teranos/QVIZ/graph"
	"github.com/teranos/QVIZ/layout"
	"github.com/teranos/QVIZ/render"
)

// RenderCmd renders a spec file to SVG or PNG without starting a server
var RenderCmd = &cobra.Command{
	Use:   "render <spec>",
	Short: "Render a graph spec to SVG or PNG",
	Long: `Render a one-shot visualization from a spec file.

The spec source can be a local file (JSON or YAML), "-" for stdin, or a
remote URL (fetched with go-getter, so https://, git::, and s3:: sources
all work).

Examples:
  qviz render schema.json -o schema.svg
  qviz render schema.yaml -o schema.png --scale 3
  qviz render https://example.com/specs/schema.json -o out.svg
  cat schema.json | qviz render - -o out.svg
  qviz render schema.json -o out.svg --watch`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

var (
	renderOutput  string
	renderFormat  string
	renderWidth   float64
	renderHeight  float64
	renderSeed    int64
	renderScale   int
	renderCompact bool
	renderWatch   bool
)

const renderSettleSteps = 1000

func init() {
	RenderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output file (required; extension picks the format unless --format is set)")
	RenderCmd.Flags().StringVar(&renderFormat, "format", "", "Output format: svg or png (default from output extension)")
	RenderCmd.Flags().Float64Var(&renderWidth, "width", 1440, "Viewport width in scene units")
	RenderCmd.Flags().Float64Var(&renderHeight, "height", 900, "Viewport height in scene units")
	RenderCmd.Flags().Int64Var(&renderSeed, "seed", 0, "Layout seed (overrides config; 0 uses config)")
	RenderCmd.Flags().IntVar(&renderScale, "scale", 0, "PNG pixel scale (overrides config; 0 uses config)")
	RenderCmd.Flags().BoolVar(&renderCompact, "compact", false, "Use the compact layout profile (inline preview physics)")
	RenderCmd.Flags().BoolVar(&renderWatch, "watch", false, "Re-render whenever the spec file changes (local files only)")
	RenderCmd.MarkFlagRequired("output")
}

func runRender(cmd *cobra.Command, args []string) error {
	source := args[0]

	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	format := renderFormat
	if format == "" {
		switch strings.ToLower(filepath.Ext(renderOutput)) {
		case ".png":
			format = "png"
		default:
			format = "svg"
		}
	}
	if format != "svg" && format != "png" {
		return errors.Newf("unsupported format %q (want svg or png)", format)
	}

	seed := renderSeed
	if seed == 0 {
		seed = cfg.Layout.Seed
	}
	scale := renderScale
	if scale <= 0 {
		scale = cfg.Export.Scale
	}

	localPath, cleanup, err := resolveSpecSource(source)
	if err != nil {
		return err
	}
	defer cleanup()

	renderOnce := func() error {
		data, err := readSpecSource(localPath)
		if err != nil {
			return err
		}
		spec, err := graph.DecodeSpec(data)
		if err != nil {
			return errors.Wrapf(err, "failed to parse spec %s", source)
		}
		n, err := renderSpecToFile(spec, format, seed, scale)
		if err != nil {
			return err
		}
		pterm.Success.Printf("Rendered %s to %s (%d bytes)\n", spec.Summary(), renderOutput, n)
		return nil
	}

	if err := renderOnce(); err != nil {
		return err
	}

	if !renderWatch {
		return nil
	}
	if localPath == "-" {
		return errors.New("--watch cannot be used with stdin")
	}

	return watchAndRerender(localPath, renderOnce)
}

// resolveSpecSource turns the spec argument into a readable local path.
// Remote sources are fetched to a temp file; the cleanup removes it.
func resolveSpecSource(source string) (string, func(), error) {
	noop := func() {}

	if source == "-" {
		return "-", noop, nil
	}
	if _, err := os.Stat(source); err == nil {
		return source, noop, nil
	}

	pwd, err := os.Getwd()
	if err != nil {
		pwd = "."
	}
	detected, err := getter.Detect(source, pwd, getter.Detectors)
	if err != nil {
		return "", noop, errors.Wrapf(err, "spec source %s not found", source)
	}
	parsed, err := url.Parse(detected)
	if err != nil || parsed.Scheme == "" || parsed.Scheme == "file" {
		return "", noop, errors.Newf("spec source %s not found", source)
	}

	tempDir, err := os.MkdirTemp("", "qviz-render-*")
	if err != nil {
		return "", noop, errors.Wrap(err, "failed to create temp directory")
	}
	cleanup := func() { os.RemoveAll(tempDir) }

	dst := filepath.Join(tempDir, "spec")
	client := &getter.Client{
		Ctx:     context.Background(),
		Src:     detected,
		Dst:     dst,
		Mode:    getter.ClientModeFile,
		Getters: getter.Getters,
	}
	if err := client.Get(); err != nil {
		cleanup()
		return "", noop, errors.Wrapf(err, "failed to fetch spec from %s", source)
	}

	pterm.Info.Printf("Fetched %s\n", source)
	return dst, cleanup, nil
}

func readSpecSource(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read spec from stdin")
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read spec file %s", path)
	}
	return data, nil
}

// renderSpecToFile settles a fresh simulation and writes the scene to the
// output file. Returns the number of bytes written.
func renderSpecToFile(spec *graph.Spec, format string, seed int64, scale int) (int, error) {
	profile := layout.FullProfile()
	if renderCompact {
		profile = layout.CompactProfile()
	}

	sim := layout.NewSimulation(spec, profile, renderWidth, renderHeight, seed)
	frame := sim.Settle(renderSettleSteps)
	size := render.Size{Width: renderWidth, Height: renderHeight}
	scene := render.BuildScene(spec, frame, render.View{}, render.VariantFullscreen, size)

	var data []byte
	switch format {
	case "svg":
		var buf bytes.Buffer
		if err := render.WriteSVG(&buf, scene); err != nil {
			return 0, errors.Wrap(err, "failed to render SVG")
		}
		data = buf.Bytes()
	case "png":
		png, err := render.ExportPNG(scene, scale)
		if err != nil {
			return 0, errors.Wrap(err, "failed to render PNG")
		}
		data = png
	}

	if dir := filepath.Dir(renderOutput); dir != "." {
		if err := os.MkdirAll(dir, am.DefaultDirPermissions); err != nil {
			return 0, errors.Wrap(err, "failed to create output directory")
		}
	}
	if err := os.WriteFile(renderOutput, data, am.DefaultFilePermissions); err != nil {
		return 0, errors.Wrapf(err, "failed to write %s", renderOutput)
	}
	return len(data), nil
}

// watchAndRerender re-renders on every write to the spec file until Ctrl+C.
func watchAndRerender(path string, renderOnce func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()
	if err := watcher.Add(path); err != nil {
		return errors.Wrapf(err, "failed to watch %s", path)
	}

	pterm.Info.Printf("Watching %s for changes (Ctrl+C to stop)\n", path)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := renderOnce(); err != nil {
				pterm.Error.Printf("Render failed: %v\n", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			pterm.Warning.Printf("Watch error: %v\n", err)
		case <-sigChan:
			pterm.Info.Println("\nStopped watching")
			return nil
		}
	}
}
