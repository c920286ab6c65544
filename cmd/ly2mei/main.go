// Package main is the entry point for the ly2mei CLI
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/james-see/ly2mei/pkg/api"
	"github.com/james-see/ly2mei/pkg/converter"
	"github.com/james-see/ly2mei/pkg/tui"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	outputFile   string
	eventsFormat string
	idPrefix     string
	labelNS      string
	serverPort   int
	jobs         int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ly2mei",
	Short: "Convert LilyPond music to MEI",
	Long: `ly2mei converts LilyPond source into MEI, keeping everything MEI has
no native slot for in round-trip labels.

It can also dump the flat event stream as JSON or YAML and render a
Standard MIDI File for quick listening.

Examples:
  ly2mei convert score.ly -o score.mei
  ly2mei events score.ly --format yaml
  ly2mei midi score.ly -o score.mid
  ly2mei tui
  ly2mei serve --port 8080
  ly2mei mcp`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

var convertCmd = &cobra.Command{
	Use:   "convert <input.ly>...",
	Short: "Convert LilyPond to MEI (or any output named by -o)",
	Long: `Converts LilyPond files. The output format follows the extension of -o
(.mei, .mid, .json, .yaml); without -o an .mei file is written next to each
input. Several inputs are converted in parallel (see --jobs) and cannot be
combined with -o. Use - as input to read from stdin and write MEI to stdout.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

var eventsCmd = &cobra.Command{
	Use:   "events <input.ly>",
	Short: "Print the flat event stream",
	Args:  cobra.ExactArgs(1),
	RunE:  runEvents,
}

var midiCmd = &cobra.Command{
	Use:   "midi <input.ly>",
	Short: "Render LilyPond to a MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE:  runMIDI,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the conversion tools over MCP on stdio",
	RunE:  runMCP,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&idPrefix, "id-prefix", converter.DefaultIDPrefix, "Prefix of generated xml:ids")
	rootCmd.PersistentFlags().StringVar(&labelNS, "label-ns", converter.DefaultLabelNamespace, "Namespace of round-trip labels")

	convertCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path")
	convertCmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "Parallel conversions (default one per CPU)")

	eventsCmd.Flags().StringVarP(&eventsFormat, "format", "f", "json", "Output format (json, yaml)")
	eventsCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (default stdout)")

	midiCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .mid file path")

	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(midiCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
}

func newConverter() *converter.Converter {
	return converter.New(converter.WithIDPrefix(idPrefix), converter.WithLabelNamespace(labelNS))
}

func getOutputPath(input, defaultExt string) string {
	if outputFile != "" {
		return outputFile
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + defaultExt
}

func readInput(input string) ([]byte, error) {
	if input == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(input)
}

func writeOutput(input, output string, data []byte) error {
	if err := os.WriteFile(output, data, 0644); err != nil {
		return err
	}
	fmt.Printf("Converted %s -> %s (%s)\n", input, output, humanize.Bytes(uint64(len(data))))
	return nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	conv := newConverter()
	if len(args) > 1 {
		return convertMany(conv, args)
	}

	input := args[0]
	if input == "-" {
		return conv.ConvertStream(os.Stdin, os.Stdout, converter.FormatMEI)
	}

	output := getOutputPath(input, ".mei")
	if err := conv.ConvertFile(input, output); err != nil {
		return err
	}
	info, err := os.Stat(output)
	if err != nil {
		return err
	}
	fmt.Printf("Converted %s -> %s (%s)\n", input, output, humanize.Bytes(uint64(info.Size())))
	return nil
}

func convertMany(conv *converter.Converter, inputs []string) error {
	if outputFile != "" {
		return errors.New("-o cannot be used with several inputs")
	}

	var errs []error
	for _, res := range conv.ConvertFiles(inputs, ".mei", jobs) {
		if res.Error != nil {
			errs = append(errs, res.Error)
			fmt.Fprintf(os.Stderr, "Failed %s: %v\n", res.Filename, res.Error)
			continue
		}
		info, err := os.Stat(res.Filename)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fmt.Printf("Wrote %s (%s)\n", res.Filename, humanize.Bytes(uint64(info.Size())))
	}
	return errors.Join(errs...)
}

func runEvents(cmd *cobra.Command, args []string) error {
	input := args[0]
	data, err := readInput(input)
	if err != nil {
		return err
	}

	result, err := newConverter().ConvertToEvents(data, converter.Format(strings.ToLower(eventsFormat)))
	if err != nil {
		return err
	}

	if outputFile == "" {
		_, err = os.Stdout.Write(result)
		return err
	}
	return writeOutput(input, outputFile, result)
}

func runMIDI(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := getOutputPath(input, ".mid")

	data, err := readInput(input)
	if err != nil {
		return err
	}

	result, err := newConverter().ConvertToMIDI(data)
	if err != nil {
		return err
	}
	if err := writeOutput(input, output, result); err != nil {
		return err
	}
	if length, err := converter.NewMIDIConverter().Length(result); err == nil {
		fmt.Printf("Length: %s\n", durafmt.Parse(length).LimitFirstN(2))
	}
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	return tui.Run(newConverter())
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Printf("Starting API server on port %d...\n", serverPort)
	return api.StartServer(serverPort)
}

func runMCP(cmd *cobra.Command, args []string) error {
	return server.ServeStdio(api.NewMCPServer(version))
}
