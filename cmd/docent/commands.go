package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/docent/internal/config"
	"github.com/kalambet/docent/internal/ingest"
	"github.com/kalambet/docent/internal/provider"
	"github.com/kalambet/docent/internal/store"
)

// --- ingest ---

var ingestCmd = &cobra.Command{
	Use:   "ingest <records.json>",
	Short: "Rebuild the knowledge base from an artist records file",
	Long: `Rebuild the knowledge base from an artist records file.

Reads the exported exhibition records, cleans and embeds every work, and
replaces the stored document set wholesale.

Example:
  docent ingest ./knowledge/artists.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg.Debug)
		if err != nil {
			return err
		}
		defer logger.Sync()

		records, err := ingest.LoadRecords(args[0])
		if err != nil {
			return err
		}
		printStep("Embedding %d records...", len(records))

		st, err := store.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer st.Close()

		client := provider.New(providerConfig(cfg))
		in := ingest.NewIngestor(client, st, logger)

		n, err := in.Run(cmd.Context(), records)
		if err != nil {
			return err
		}

		printSuccess("Ingested %d works into %s", n, cfg.Storage.DataDir)
		return nil
	},
}

// --- ask ---

var askServer string

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question against a running docent server",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")

		body, err := json.Marshal(map[string]string{"message": question})
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(cmd.Context(), "POST", askServer+"/api/answer", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		client := &http.Client{Timeout: 60 * time.Second}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("server not reachable (is docent running?): %w", err)
		}
		defer resp.Body.Close()

		var env struct {
			Success bool   `json:"success"`
			Answer  string `json:"answer"`
			Source  string `json:"source"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		if !env.Success {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, env.Message)
		}

		fmt.Println(env.Answer)
		if env.Source != "" {
			printStep("source: %s", env.Source)
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askServer, "server", "http://127.0.0.1:2123", "base URL of the running docent server")
}
