package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/BurntSushi/toml"
	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"banner-creator/internal/app"
	"banner-creator/internal/banner"
	"banner-creator/internal/config"
	"banner-creator/internal/export"
	"banner-creator/internal/layout"
	"banner-creator/internal/logger"
	"banner-creator/internal/preview"
)

type cli struct {
	loadConfig func() (config.Config, error)
	logLevel   string
}

func newRootCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	c := &cli{loadConfig: loadConfig}

	root := &cobra.Command{
		Use:          "bannerctl",
		Short:        "Lay out and render 1200x628 banners from config files",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override LOG_LEVEL")

	root.AddCommand(
		c.renderCmd(),
		c.sceneCmd(),
		c.validateCmd(),
		c.defaultCmd(),
		c.productsCmd(),
	)
	return root
}

// open builds the app with local file references resolved next to the
// banner file. Logs go to stderr so stdout stays clean for output.
func (c *cli) open(cmd *cobra.Command, bannerPath string) (*app.App, *slog.Logger, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	log, _ := logger.New(logger.Options{Level: cfg.LogLevel, Stdout: cmd.ErrOrStderr()})

	baseDir := ""
	if bannerPath != "" {
		baseDir = filepath.Dir(bannerPath)
	}
	a, err := app.New(cfg, log, app.Options{AllowFiles: true, BaseDir: baseDir})
	if err != nil {
		return nil, nil, err
	}
	return a, log, nil
}

func (c *cli) renderCmd() *cobra.Command {
	var (
		output    string
		maxWidth  float64
		maxHeight float64
	)
	cmd := &cobra.Command{
		Use:   "render <banner.toml|banner.json>",
		Short: "Render a banner config to PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, log, err := c.open(cmd, args[0])
			if err != nil {
				return err
			}
			scene, err := loadScene(a, args[0])
			if err != nil {
				return err
			}

			w, closeOut, err := openOutput(cmd, output)
			if err != nil {
				return err
			}
			defer closeOut()

			if maxWidth > 0 || maxHeight > 0 {
				return renderPreview(cmd.Context(), a, scene, maxWidth, maxHeight, w)
			}

			art, err := export.New(a.Renderer, log).Export(cmd.Context(), scene)
			if err != nil {
				return err
			}
			if _, err := w.Write(art.Data); err != nil {
				return err
			}
			log.Info("banner rendered", "output", output, "bytes", len(art.Data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "banner.png", `output file, "-" for stdout`)
	cmd.Flags().Float64Var(&maxWidth, "max-width", 0, "fit into this width instead of exporting at full size")
	cmd.Flags().Float64Var(&maxHeight, "max-height", 0, "fit into this height instead of exporting at full size")
	return cmd
}

func renderPreview(ctx context.Context, a *app.App, scene layout.Scene, maxWidth, maxHeight float64, w io.Writer) error {
	if maxWidth <= 0 {
		maxWidth = banner.Width
	}
	if maxHeight <= 0 {
		maxHeight = banner.Height
	}
	// The viewport reserves padding around the preview; the CLI has none.
	v := preview.NewViewport(maxWidth+preview.Padding, maxHeight+preview.Padding)
	img, err := preview.NewRenderer(a.Renderer).Render(ctx, scene, v)
	if err != nil {
		return err
	}
	return imaging.Encode(w, img, imaging.PNG)
}

func (c *cli) sceneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scene <banner.toml|banner.json>",
		Short: "Print the computed layout as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := c.open(cmd, args[0])
			if err != nil {
				return err
			}
			scene, err := loadScene(a, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(scene)
		},
	}
}

func (c *cli) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <banner.toml|banner.json>...",
		Short: "Check banner configs against the limits and the product catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := c.open(cmd, "")
			if err != nil {
				return err
			}
			failed := 0
			for _, path := range args {
				cfg, err := readBanner(path)
				if err == nil {
					err = banner.Validate(cfg, a.Catalog)
				}
				if err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d configs invalid", failed, len(args))
			}
			return nil
		},
	}
}

func (c *cli) defaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "default",
		Short: "Print the default banner config as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(banner.Default())
		},
	}
}

func (c *cli) productsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List catalog products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := c.open(cmd, "")
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tLABEL")
			for _, p := range a.Catalog.Get().Products() {
				fmt.Fprintf(tw, "%s\t%s\n", p.Key, p.Label)
			}
			return tw.Flush()
		},
	}
}

// readBanner decodes a banner config over the defaults, so a file only
// needs the fields it changes. Files ending in .json are JSON, anything
// else is TOML.
func readBanner(path string) (banner.Config, error) {
	cfg := banner.Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &cfg)
	} else {
		_, err = toml.Decode(string(data), &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg, nil
}

func loadScene(a *app.App, path string) (layout.Scene, error) {
	cfg, err := readBanner(path)
	if err != nil {
		return layout.Scene{}, err
	}
	cat := a.Catalog.Get()
	if err := banner.Validate(cfg, cat); err != nil {
		return layout.Scene{}, err
	}
	return layout.Compute(cfg, layout.Env{Logos: cat, Measure: a.Fonts})
}

func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "-" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}
