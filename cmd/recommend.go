package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/supplier-cli/internal/model"
	"github.com/sells-group/supplier-cli/internal/recommend"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Rank suppliers for a product",
	Long: `Scores every supplier in the reference dataset for the requested product
and prints the top candidates with an explanation.

Examples:
  supplier-cli recommend --category GPS --product "fleet tracker" --location "Dallas, United States"
  supplier-cli recommend --category Medical --product stent --format json
  supplier-cli recommend --category GPS --product tracker --csv top.csv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		category, _ := cmd.Flags().GetString("category")
		product, _ := cmd.Flags().GetString("product")
		location, _ := cmd.Flags().GetString("location")
		format, _ := cmd.Flags().GetString("format")
		csvPath, _ := cmd.Flags().GetString("csv")
		if dir, _ := cmd.Flags().GetString("dataset"); dir != "" {
			cfg.Dataset.Dir = dir
		}

		req := recommend.Request{Category: category, ProductName: product, SourceLocation: location}
		if err := req.Validate(); err != nil {
			return err
		}

		env, err := initEngine(ctx, false)
		if err != nil {
			return err
		}
		defer env.Close()

		rec, err := env.Engine.Recommend(ctx, env.Dataset, req)
		if err != nil {
			return eris.Wrap(err, "recommend")
		}

		if csvPath != "" {
			if err := writeRecommendationCSVFile(csvPath, rec); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Wrote %d suppliers to %s\n", len(rec.TopSuppliers), csvPath)
		}

		switch format {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		case "table":
			formatRecommendation(os.Stdout, rec)
			return nil
		default:
			return eris.Errorf("recommend: unknown format %q (want table or json)", format)
		}
	},
}

func init() {
	recommendCmd.Flags().String("category", "", "product category (GPS, Medical, Government, ...)")
	recommendCmd.Flags().String("product", "", "product name")
	recommendCmd.Flags().String("location", "", "source location as \"City, Country\" (detected from IP when empty and enabled)")
	recommendCmd.Flags().String("dataset", "", "reference dataset directory (default from config)")
	recommendCmd.Flags().String("format", "table", "output format: table or json")
	recommendCmd.Flags().String("csv", "", "also export the ranked suppliers to this CSV file")
	rootCmd.AddCommand(recommendCmd)
}

// formatRecommendation writes the ranked suppliers and explanation to out.
func formatRecommendation(out io.Writer, rec *model.Recommendation) {
	_, _ = fmt.Fprintf(out, "Product: %s (%s)  HS code: %s [%s]\n",
		rec.Product.Name, rec.Product.Category, rec.Product.ClassificationCode, rec.Product.ClassificationFrom)
	if rec.Product.SourceLocation != "" {
		_, _ = fmt.Fprintf(out, "Source:  %s\n", rec.Product.SourceLocation)
	}
	_, _ = fmt.Fprintf(out, "Scored:  %d suppliers\n\n", rec.SuppliersTotal)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RANK\tSUPPLIER\tDOMAIN\tLOCATION\tSCORE\tCOMPLAINT\tWEATHER\tTARIFF\tMATCH\tEXPIRY\tDISTANCE")
	for i, s := range rec.TopSuppliers {
		loc := s.Location
		if loc == "" {
			loc = "-"
		}
		f := s.Factors
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\n",
			i+1, s.Supplier.Name, s.Supplier.Domain, loc, s.CompositeScore,
			f.Complaint, f.Weather, f.Tariff, f.ProductMatch, f.Expiration, f.Distance)
	}
	_ = w.Flush()

	if rec.Explanation != "" {
		_, _ = fmt.Fprintf(out, "\n%s\n", rec.Explanation)
	}
}

var recommendationCSVHeader = []string{
	"rank", "supplier_id", "supplier_name", "domain", "location", "composite_score", "subtotal",
	"complaint", "weather", "tariff", "product_match", "expiration", "distance", "complaint_count",
}

// writeRecommendationCSV writes one row per ranked supplier.
func writeRecommendationCSV(out io.Writer, rec *model.Recommendation) error {
	w := csv.NewWriter(out)
	if err := w.Write(recommendationCSVHeader); err != nil {
		return eris.Wrap(err, "csv: write header")
	}
	num := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
	for i, s := range rec.TopSuppliers {
		f := s.Factors
		row := []string{
			strconv.Itoa(i + 1), s.Supplier.ID, s.Supplier.Name, string(s.Supplier.Domain), s.Location,
			num(s.CompositeScore), num(s.Subtotal),
			num(f.Complaint), num(f.Weather), num(f.Tariff), num(f.ProductMatch), num(f.Expiration), num(f.Distance),
			strconv.Itoa(s.ComplaintCount),
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "csv: write row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "csv: flush")
}

func writeRecommendationCSVFile(path string, rec *model.Recommendation) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "csv: create %s", path)
	}
	if err := writeRecommendationCSV(f, rec); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "csv: close %s", path)
}
