package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/ladder/market"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Inspect and convert bar files",
}

var dataConvertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Convert bars between CSV and Parquet",
	Long: `Convert reads a bar file and writes it in the format of the output
extension (.csv or .parquet). Bars are validated on the way through.

Example:
  ladder data convert btcusdt-1h.csv btcusdt-1h.parquet`,
	Args: cobra.ExactArgs(2),
	RunE: runDataConvert,
}

var dataInfoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Print the range and size of a bar file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDataInfo,
}

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataConvertCmd)
	dataCmd.AddCommand(dataInfoCmd)
}

func runDataConvert(cmd *cobra.Command, args []string) error {
	bs, err := market.Load(args[0], "", "")
	if err != nil {
		return err
	}

	out := args[1]
	switch strings.ToLower(filepath.Ext(out)) {
	case ".parquet", ".pq":
		err = market.WriteParquet(out, bs)
	case ".csv":
		var fh *os.File
		if fh, err = os.Create(out); err != nil {
			return err
		}
		if err = market.WriteCSV(fh, bs); err != nil {
			fh.Close()
			return err
		}
		err = fh.Close()
	default:
		return fmt.Errorf("unsupported output %q, want .csv or .parquet", out)
	}
	if err != nil {
		return err
	}

	fmt.Printf("✓ Wrote %d bars to %s\n", bs.Len(), out)
	return nil
}

func runDataInfo(cmd *cobra.Command, args []string) error {
	bs, err := market.Load(args[0], "", "")
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", args[0])
	fmt.Printf("  Bars:  %d\n", bs.Len())
	fmt.Printf("  Start: %s\n", bs.Start().Format("2006-01-02 15:04:05"))
	fmt.Printf("  End:   %s\n", bs.End().Format("2006-01-02 15:04:05"))
	return nil
}
