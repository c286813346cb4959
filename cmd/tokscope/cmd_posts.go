package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tokscope/internal/adapter/tiktok"
	"tokscope/internal/domain/post"
	"tokscope/internal/service/analysis"
	"tokscope/internal/service/virality"
)

var (
	language     string
	detailsFile  string
	subtitleFile string
	jsonOutput   bool
	searchCount  int
	searchCursor int
)

// analyzeCmd scores the virality of a post
var analyzeCmd = &cobra.Command{
	Use:   "analyze [post_url]",
	Short: "Analyze the virality of a post",
	Long: `Analyze the virality of a post.

With a post URL or video ID the details and subtitle are fetched from the backend.
With --details-file the labelled details text (and optional --subtitle-file
transcript) are analyzed offline without any backend.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

// detailsCmd prints the labelled details of a post
var detailsCmd = &cobra.Command{
	Use:   "details <post_url>",
	Short: "Fetch the details of a post",
	Args:  cobra.ExactArgs(1),
	RunE:  runDetails,
}

// subtitleCmd prints the transcript of a post
var subtitleCmd = &cobra.Command{
	Use:   "subtitle <post_url>",
	Short: "Fetch the subtitle transcript of a post",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubtitle,
}

// searchCmd runs a keyword search
var searchCmd = &cobra.Command{
	Use:   "search <keywords...>",
	Short: "Search posts by keywords",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	analyzeCmd.Flags().StringVarP(&language, "language", "l", "", "Subtitle language code")
	analyzeCmd.Flags().StringVar(&detailsFile, "details-file", "", "Analyze a labelled details text file offline (- for stdin)")
	analyzeCmd.Flags().StringVar(&subtitleFile, "subtitle-file", "", "Transcript file used with --details-file")
	analyzeCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the structured result as JSON")

	subtitleCmd.Flags().StringVarP(&language, "language", "l", "", "Subtitle language code")

	searchCmd.Flags().IntVarP(&searchCount, "count", "n", 10, "Number of posts to return (max 50)")
	searchCmd.Flags().IntVar(&searchCursor, "cursor", 0, "Paging cursor from a previous search")
	searchCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if detailsFile != "" {
		if len(args) > 0 {
			return errors.New("pass either a post URL or --details-file, not both")
		}
		return analyzeOffline(cmd, out)
	}
	if len(args) == 0 {
		return errors.New("a post URL or --details-file is required")
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.Analysis.Analyze(ctx, analysis.Request{PostRef: args[0], Language: language})
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(out, result)
	}
	fmt.Fprintln(out, result.Text)
	for _, w := range result.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
	return nil
}

func analyzeOffline(cmd *cobra.Command, out io.Writer) error {
	detailsText, err := readInput(cmd, detailsFile)
	if err != nil {
		return err
	}
	subtitleText := ""
	if subtitleFile != "" {
		if subtitleText, err = readInput(cmd, subtitleFile); err != nil {
			return err
		}
	}

	if jsonOutput {
		return writeJSON(out, virality.Analyze(virality.ParseDetailsText(detailsText), subtitleText))
	}
	fmt.Fprintln(out, virality.Compose(detailsText, subtitleText))
	return nil
}

func runDetails(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	d, err := a.Analysis.Details(ctx, args[0])
	if errors.Is(err, post.ErrNotFound) {
		fmt.Fprintln(cmd.OutOrStdout(), post.NoDetailsText)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), tiktok.FormatDetails(*d))
	return nil
}

func runSubtitle(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sub, err := a.Analysis.Subtitle(ctx, args[0], language)
	if errors.Is(err, post.ErrNotFound) {
		fmt.Fprintln(cmd.OutOrStdout(), post.NoSubtitleText)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), sub.Text)
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.Analysis.Search(ctx, post.SearchQuery{
		Keywords: strings.Join(args, " "),
		Count:    searchCount,
		Cursor:   searchCursor,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	fmt.Fprintln(cmd.OutOrStdout(), tiktok.FormatSearch(*result))
	return nil
}

func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
