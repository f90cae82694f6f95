package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"piiguard/internal/models"
)

func newModelsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage NER model installs",
	}
	cmd.AddCommand(newModelsListCmd(a))
	cmd.AddCommand(newModelsPullCmd(a))
	return cmd
}

func newModelsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known models and their install state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := models.LoadRegistry()
			if err != nil {
				return err
			}
			type modelInfo struct {
				Name        string   `json:"name"`
				DisplayName string   `json:"display_name"`
				Version     string   `json:"version"`
				Language    string   `json:"language"`
				EntityTypes []string `json:"entity_types"`
				SizeBytes   int64    `json:"size_bytes"`
				Recommended bool     `json:"recommended"`
				Installed   bool     `json:"installed"`
			}
			out := make([]modelInfo, 0, len(reg.Models))
			for _, m := range reg.Models {
				out = append(out, modelInfo{
					Name:        m.Name,
					DisplayName: m.DisplayName,
					Version:     m.Version,
					Language:    m.Language,
					EntityTypes: m.EntityTypes,
					SizeBytes:   m.SizeBytes,
					Recommended: m.Recommended,
					Installed:   models.IsInstalled(a.cfg.ModelsRoot, m.Name),
				})
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newModelsPullCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pull <name>",
		Short: "Download and install a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := models.LoadRegistry()
			if err != nil {
				return err
			}
			spec, ok := reg.Find(args[0])
			if !ok {
				return fmt.Errorf("unknown model %q", args[0])
			}
			if models.IsInstalled(a.cfg.ModelsRoot, spec.Name) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already installed\n", spec.Name)
				return nil
			}

			out := cmd.OutOrStdout()
			err = models.NewFetcher().Fetch(cmd.Context(), spec, a.cfg.ModelsRoot, func(p models.Progress) {
				if p.Total > 0 {
					fmt.Fprintf(out, "\rdownloading %s: %d%%", spec.Name, p.Downloaded*100/p.Total)
				} else {
					fmt.Fprintf(out, "\rdownloading %s: %d MB", spec.Name, p.Downloaded/(1024*1024))
				}
			})
			fmt.Fprintln(out)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "installed %s to %s\n", spec.Name, models.InstallPath(a.cfg.ModelsRoot, spec.Name))
			return nil
		},
	}
}
