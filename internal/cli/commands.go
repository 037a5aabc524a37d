// Package cli provides the Cobra-based CLI for variantctl, which resolves a
// product JSON document the same way the storefront does.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"catalog-service/internal/variants"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// productFile is a raw product document plus the flat quantity some
// records carry for products without sizes.
type productFile struct {
	variants.RawProduct
	Quantity *int `json:"quantity,omitempty"`
}

type app struct {
	v      *viper.Viper
	stdin  io.Reader
	logger *logrus.Logger
}

// NewRootCommand builds the variantctl command tree. Flags may also be set
// through VARIANTCTL_* environment variables.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		v:      viper.New(),
		stdin:  stdin,
		logger: logrus.New(),
	}
	a.logger.SetOutput(stderr)

	rootCmd := &cobra.Command{
		Use:           "variantctl",
		Short:         "Resolve product size/colour availability from a product JSON file",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logrus.ParseLevel(a.v.GetString("log-level"))
			if err != nil {
				return fmt.Errorf("invalid --log-level: %w", err)
			}
			a.logger.SetLevel(lvl)

			switch a.output() {
			case "json", "text":
				return nil
			default:
				return fmt.Errorf("invalid --output %q: want json or text", a.output())
			}
		},
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().String("file", "-", "product JSON file, - for stdin")
	rootCmd.PersistentFlags().String("output", "text", "output format: json|text")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level")

	a.v.BindPFlag("file", rootCmd.PersistentFlags().Lookup("file"))
	a.v.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	a.v.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	a.v.SetEnvPrefix("VARIANTCTL")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	rootCmd.AddCommand(
		a.inspectCommand(),
		a.sizesCommand(),
		a.colorsCommand(),
		a.stockCommand(),
		a.totalCommand(),
		a.validateCommand(),
	)
	return rootCmd
}

// Execute runs variantctl against the process's standard streams
func Execute() error {
	return NewRootCommand(os.Stdin, os.Stdout, os.Stderr).Execute()
}

func (a *app) output() string {
	return strings.ToLower(a.v.GetString("output"))
}

// load reads and resolves the product document
func (a *app) load() (*variants.Model, *productFile, error) {
	path := a.v.GetString("file")

	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(a.stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read product: %w", err)
	}

	var doc productFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("product is not a JSON object: %w", err)
	}

	model := variants.Parse(doc.RawProduct)
	a.logger.WithFields(logrus.Fields{
		"file":     path,
		"source":   model.Source,
		"variants": len(model.Variants),
	}).Debug("product resolved")
	return model, &doc, nil
}

// print writes v as indented JSON, or the text form when --output=text
func (a *app) print(cmd *cobra.Command, v interface{}, text func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	if a.output() == "text" {
		text(out)
		return nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(b))
	return nil
}

func (a *app) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Show the resolved variant model",
		RunE: func(cmd *cobra.Command, args []string) error {
			model, _, err := a.load()
			if err != nil {
				return err
			}
			return a.print(cmd, model, func(w io.Writer) {
				fmt.Fprintf(w, "source: %s\n", model.Source)
				for _, v := range model.Variants {
					for _, cs := range v.ColorStocks {
						fmt.Fprintf(w, "%s\t%s\t%d\n", v.Size, cs.Color, cs.Stock)
					}
				}
				if len(model.FlatColors) > 0 {
					fmt.Fprintf(w, "colors: %s\n", strings.Join(model.FlatColors, ", "))
				}
				if model.PrecomputedTotal != nil {
					fmt.Fprintf(w, "precomputed total: %d\n", *model.PrecomputedTotal)
				}
			})
		},
	}
}

func (a *app) sizesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sizes",
		Short: "List sizes with stock",
		RunE: func(cmd *cobra.Command, args []string) error {
			model, _, err := a.load()
			if err != nil {
				return err
			}
			sizes := model.AvailableSizes()
			return a.print(cmd, sizes, func(w io.Writer) {
				for _, s := range sizes {
					fmt.Fprintf(w, "%s\t%d\n", s.Size, s.Stock)
				}
			})
		},
	}
}

func (a *app) colorsCommand() *cobra.Command {
	var size string
	cmd := &cobra.Command{
		Use:   "colors",
		Short: "List colours with stock, for one size or all",
		RunE: func(cmd *cobra.Command, args []string) error {
			model, _, err := a.load()
			if err != nil {
				return err
			}
			colors := model.AvailableColors(size)
			return a.print(cmd, colors, func(w io.Writer) {
				for _, c := range colors {
					fmt.Fprintln(w, c)
				}
			})
		},
	}
	cmd.Flags().StringVar(&size, "size", "", "size")
	return cmd
}

func (a *app) stockCommand() *cobra.Command {
	var size, color string
	cmd := &cobra.Command{
		Use:   "stock --size <size>",
		Short: "Show the stock of a size, optionally one colour",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(size) == "" {
				return errors.New("--size required")
			}
			model, _, err := a.load()
			if err != nil {
				return err
			}
			stock := model.StockFor(size, color)
			return a.print(cmd, map[string]interface{}{"size": size, "color": color, "stock": stock}, func(w io.Writer) {
				fmt.Fprintln(w, stock)
			})
		},
	}
	cmd.Flags().StringVar(&size, "size", "", "size")
	cmd.Flags().StringVar(&color, "color", "", "colour")
	return cmd
}

// flatQuantity prefers the flag over the document's own quantity field
func flatQuantity(cmd *cobra.Command, flag int, doc *productFile) *int {
	if cmd.Flags().Changed("flat-quantity") {
		return &flag
	}
	return doc.Quantity
}

func (a *app) totalCommand() *cobra.Command {
	var quantity int
	cmd := &cobra.Command{
		Use:   "total",
		Short: "Show the whole-product stock",
		RunE: func(cmd *cobra.Command, args []string) error {
			model, doc, err := a.load()
			if err != nil {
				return err
			}
			total := model.TotalStock(model.PrecomputedTotal, flatQuantity(cmd, quantity, doc))
			return a.print(cmd, map[string]interface{}{"totalStock": total, "inStock": total > 0}, func(w io.Writer) {
				fmt.Fprintln(w, total)
			})
		},
	}
	cmd.Flags().IntVar(&quantity, "flat-quantity", 0, "stock of a product without sizes")
	return cmd
}

func (a *app) validateCommand() *cobra.Command {
	var size, color string
	var quantity, flat int
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check an add-to-cart selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			model, doc, err := a.load()
			if err != nil {
				return err
			}
			purchase, err := model.Validate(variants.Purchase{
				Size:     size,
				Color:    color,
				Quantity: quantity,
			}, flatQuantity(cmd, flat, doc))
			if err != nil {
				a.logger.WithError(err).Debug("selection rejected")
				return err
			}
			return a.print(cmd, purchase, func(w io.Writer) {
				fmt.Fprintf(w, "ok: size=%q color=%q quantity=%d\n", purchase.Size, purchase.Color, purchase.Quantity)
			})
		},
	}
	cmd.Flags().StringVar(&size, "size", "", "size")
	cmd.Flags().StringVar(&color, "color", "", "colour")
	cmd.Flags().IntVar(&quantity, "quantity", 1, "quantity")
	cmd.Flags().IntVar(&flat, "flat-quantity", 0, "stock of a product without sizes")
	return cmd
}
