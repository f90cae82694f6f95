package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"piiguard/internal/analysis"
	"piiguard/internal/audit"
)

// readText takes the text from the argument list, or from stdin when no
// argument is given (so `cat letter.txt | piiguard analyze` works).
func readText(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func splitEntityFlag(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// detectedEntity is the CLI's JSON shape for one hit, including the
// matched snippet for inspection.
type detectedEntity struct {
	EntityType string  `json:"entity_type"`
	Text       string  `json:"text"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Score      float64 `json:"score"`
	Source     string  `json:"source"`
}

func toDetected(text string, entities []analysis.Entity) []detectedEntity {
	runes := []rune(text)
	out := make([]detectedEntity, 0, len(entities))
	for _, e := range entities {
		out = append(out, detectedEntity{
			EntityType: e.Type,
			Text:       string(runes[e.Start:e.End]),
			Start:      e.Start,
			End:        e.End,
			Score:      e.Score,
			Source:     e.Source,
		})
	}
	return out
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		entities  string
		threshold float64
	)
	cmd := &cobra.Command{
		Use:   "analyze [text]",
		Short: "Detect PII entities in text",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(args)
			if err != nil {
				return err
			}
			found, err := a.svc.Analyze(cmd.Context(), text, splitEntityFlag(entities), threshold)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"text":     text,
				"entities": toDetected(text, found),
			})
		},
	}
	cmd.Flags().StringVar(&entities, "entities", "", "comma-separated entity types (default: configured set)")
	cmd.Flags().Float64Var(&threshold, "threshold", -1, "minimum confidence score (default 0.5)")
	return cmd
}

func newAnonymizeCmd(a *app) *cobra.Command {
	var (
		entities  string
		threshold float64
		style     string
	)
	cmd := &cobra.Command{
		Use:   "anonymize [text]",
		Short: "Detect PII and rewrite the text",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(args)
			if err != nil {
				return err
			}
			result, err := a.svc.Anonymize(cmd.Context(), text, splitEntityFlag(entities), style, threshold)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"original_text":       text,
				"anonymized_text":     result.Text,
				"anonymization_style": style,
				"entities":            toDetected(text, result.Entities),
			})
		},
	}
	cmd.Flags().StringVar(&entities, "entities", "", "comma-separated entity types (default: configured set)")
	cmd.Flags().Float64Var(&threshold, "threshold", -1, "minimum confidence score (default 0.5)")
	cmd.Flags().StringVar(&style, "style", "replace", "anonymization style: replace|mask|hash|redact")
	return cmd
}

func newEntitiesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List supported entity types",
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos, err := a.svc.SupportedEntities()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), infos)
		},
	}
}

func newAuditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Summarize the anonymization audit log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := audit.ParseFile(a.cfg.AuditLog)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), audit.Summarize(entries))
		},
	}
}

func newBackendsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backends",
		Short: "List registered NER backends",
		RunE: func(cmd *cobra.Command, _ []string) error {
			type backendInfo struct {
				ID          string `json:"id"`
				DisplayName string `json:"display_name"`
				Description string `json:"description"`
				Active      bool   `json:"active"`
			}
			active := a.svc.ActiveBackend()
			out := make([]backendInfo, 0)
			for _, b := range a.svc.Backends() {
				out = append(out, backendInfo{
					ID:          b.ID,
					DisplayName: b.DisplayName,
					Description: b.Description,
					Active:      b.ID == active,
				})
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "switch <id>",
		Short: "Switch the active NER backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.svc.SwitchBackend(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "active backend: %s\n", a.svc.ActiveBackend())
			return nil
		},
	})
	return cmd
}
