package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/redditdig/config"
	"github.com/mohammad-safakhou/redditdig/internal/agent"
	"github.com/mohammad-safakhou/redditdig/internal/analysis"
	"github.com/mohammad-safakhou/redditdig/internal/reddit"
	srv "github.com/mohammad-safakhou/redditdig/internal/server"
	"github.com/mohammad-safakhou/redditdig/models"
	"github.com/mohammad-safakhou/redditdig/provider"
)

func main() {
	_ = godotenv.Load()

	var root = &cobra.Command{Use: "redditdig"}
	root.AddCommand(serveCMD(), askCMD())
	_ = root.Execute()
}

func serveCMD() *cobra.Command {
	var cfgPath string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			return srv.Run(cfg)
		},
	}
	serve.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config)")
	return serve
}

func askCMD() *cobra.Command {
	var cfgPath string
	var showSteps bool
	var ask = &cobra.Command{
		Use:   "ask [question]",
		Short: "Run one research turn from the command line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)

			llm, err := provider.NewProvider(cfg.LLM)
			if err != nil {
				return fmt.Errorf("llm provider init: %w", err)
			}
			cache, err := reddit.NewCache(cfg.Cache)
			if err != nil {
				return fmt.Errorf("cache init: %w", err)
			}
			fetcher := reddit.NewFetcher(cfg.Reddit, cache, nil)
			engine := analysis.NewEngine(cfg.Analysis, llm, cfg.LLM.Routing.ModelFor("analysis"))
			loop := agent.NewLoop(cfg.Agent, llm, cfg.LLM.Routing.ModelFor("decision"), fetcher, engine, nil)

			question := ""
			for i, a := range args {
				if i > 0 {
					question += " "
				}
				question += a
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.General.MaxProcessingTime)
			defer cancel()

			res := loop.Run(ctx, models.Conversation{{Role: "user", Content: question}})
			if showSteps {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res.Steps); err != nil {
					return err
				}
			}
			fmt.Println(res.Message)
			return nil
		},
	}
	ask.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config)")
	ask.Flags().BoolVar(&showSteps, "steps", false, "print executed tool steps as JSON")
	return ask
}
