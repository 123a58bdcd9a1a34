package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/liliang-cn/askpdf/internal/chat"
	"github.com/liliang-cn/askpdf/internal/tui"
)

func createIngestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Split files into chunks and store their embeddings",
		Long:  "Ingest reads PDF, Markdown, text or HTML files and adds their chunks to the vector store.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.openRAG(cmd.Context()); err != nil {
				return err
			}

			svc := a.ingestService()
			for _, path := range args {
				res, err := svc.IngestFile(cmd.Context(), path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: stored %d chunks\n", res.Source, res.ChunkCount)
			}
			return nil
		},
	}
}

func createAskCommand() *cobra.Command {
	var k int

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the stored documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.openRAG(cmd.Context()); err != nil {
				return err
			}

			res, err := a.orchestrator.Answerer().Answer(cmd.Context(), strings.Join(args, " "), k)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.Answer)
			fmt.Fprintln(out)
			for i, src := range res.Sources {
				fmt.Fprintf(out, "[%d] %s #%d (%.3f)\n", i+1, src.Source, src.Index, src.Score)
			}
			fmt.Fprintf(out, "cost: $%.5f\n", res.Cost)
			return nil
		},
	}

	cmd.Flags().IntVarP(&k, "k", "k", 0, "Number of chunks to retrieve (0 = configured default)")
	return cmd
}

func createBrowseCommand() *cobra.Command {
	var ingest bool

	cmd := &cobra.Command{
		Use:   "browse <url>",
		Short: "Summarize a recruiting web page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			if ingest {
				if err := a.openRAG(cmd.Context()); err != nil {
					return err
				}
				res, err := a.ingestService().IngestURL(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: stored %d chunks\n", res.Source, res.ChunkCount)
				return nil
			}

			res, err := a.browseService().Summarize(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, res.Summary)
			fmt.Fprintf(out, "cost: $%.5f\n", res.Cost)
			return nil
		},
	}

	cmd.Flags().BoolVar(&ingest, "ingest", false, "Store the page text in the vector store instead of summarizing it")
	return cmd
}

func createChatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the model in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// logs would draw over the screen
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			session := chat.NewSession(uuid.NewString(), a.cfg.Chat.SystemPrompt)
			model := tui.New(cmd.Context(), session, a.llm, a.cfg.Chat.Temperature)
			_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
			return err
		},
	}
}
