package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/avoronin/cvmatch/internal/jobboard"
	"github.com/avoronin/cvmatch/internal/logger"
	"github.com/avoronin/cvmatch/internal/matching"
	"github.com/avoronin/cvmatch/internal/title"

	"github.com/joho/godotenv"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptShowMatches = "Show matches"
	PromptDumpToFile  = "Dump matches to file"
	PromptExit        = "Exit"
)

var errExit = errors.New("exit requested")

var matchPrompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptShowMatches, PromptDumpToFile, PromptExit},
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match a local resume file against live job postings",
	Run: func(cmd *cobra.Command, _ []string) {
		match(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("resume-file", "r", "", "path to a plain-text resume file (required)")
	matchCmd.Flags().StringP("location", "l", jobboard.DefaultLocation, "search location")
	matchCmd.Flags().IntP("results", "n", jobboard.DefaultResults, "desired result count per board")
	matchCmd.Flags().Bool("remote", true, "restrict search to remote postings")
	matchCmd.MarkFlagRequired("resume-file")
}

// match runs the pipeline once for a resume file on disk. The resume
// embedding is computed on the fly instead of read from the store.
func match(cmd *cobra.Command) {
	// Optional .env for local development; config and real env win.
	_ = godotenv.Load()

	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config == nil || config.Bridge == nil || config.Bridge.URL == "" {
		logger.Fatal("job board bridge url is required under bridge.url")
	}

	resumePath, _ := cmd.Flags().GetString("resume-file")
	resumeText, err := os.ReadFile(resumePath)
	if err != nil {
		logger.Fatal("reading resume file", zap.String("path", resumePath), zap.Error(err))
	}

	embedder, generator, err := buildAIClients(ctx, config, logger)
	if err != nil {
		logger.Fatal("building ai clients", zap.Error(err))
	}

	resumeVector, err := embedder.Embed(ctx, string(resumeText))
	if err != nil {
		logger.Fatal("embedding resume", zap.Error(err))
	}

	extractor := title.NewExtractor(generator, nil, logger)
	query := extractor.Extract(ctx, "", string(resumeText))

	var boards []string
	if config.Search != nil {
		boards = config.Search.Boards
	}
	searcher := jobboard.New(config.Bridge.URL, boards, logger)

	location, _ := cmd.Flags().GetString("location")
	results, _ := cmd.Flags().GetInt("results")
	remote, _ := cmd.Flags().GetBool("remote")

	postings, err := searcher.Search(ctx, jobboard.SearchParams{
		Query:      query,
		Location:   location,
		Results:    results,
		RemoteOnly: remote,
	})
	if err != nil {
		logger.Fatal("searching job boards", zap.Error(err))
	}

	ranker := matching.NewRanker(embedder, logger)
	result := &matching.Result{
		Query:        query,
		TotalFetched: len(postings),
		Matches:      ranker.Rank(ctx, resumeVector, postings),
	}

	logger.Info("matching completed",
		zap.String("query", result.Query),
		zap.Int("fetched", result.TotalFetched),
		zap.Int("matches", len(result.Matches)),
	)

	for {
		_, action, err := matchPrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleMatchAction(action, result, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleMatchAction(action string, result *matching.Result, logger *zap.Logger) error {
	switch action {
	case PromptShowMatches:
		pretty, _ := json.MarshalIndent(result.Matches, "", "  ")
		fmt.Println(string(pretty))
		return nil
	case PromptDumpToFile:
		filename, err := result.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump matches to file: %w", err)
		}
		logger.Info("dumped matches to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}
