package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"piiguard/internal/audit"
	"piiguard/internal/config"
	"piiguard/internal/engine"
	"piiguard/internal/logging"
	"piiguard/internal/service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "piiguard:", err)
		os.Exit(1)
	}
}

type app struct {
	cfg config.Config
	log *logrus.Logger
	svc *service.Service
}

func newRootCmd() *cobra.Command {
	var (
		cfgPath string
		backend string
		noNER   bool
		a       app
	)

	root := &cobra.Command{
		Use:           "piiguard",
		Short:         "Detect and anonymize PII in German/Swiss text",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// .env is optional; absence is not an error.
			_ = godotenv.Load()

			if cfgPath == "" {
				p, err := config.ConfigPath()
				if err != nil {
					return err
				}
				cfgPath = p
			}
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if backend != "" {
				cfg.Backend = backend
			}
			if noNER {
				cfg.NEREnabled = false
			}
			a.cfg = cfg
			a.log = logging.Setup(cfg.LogLevel)

			selector, err := engine.NewSelector(
				engine.DefaultBackends(cfg.ModelsRoot),
				cfg.Backend,
				cfg.DefaultEntities,
				cfg.NEREnabled,
				logging.Component(a.log, "engine"),
			)
			if err != nil {
				return err
			}

			var auditLogger audit.Logger = audit.Nop{}
			if cfg.AuditLog != "" {
				auditLogger, err = audit.NewJSONLLogger(cfg.AuditLog)
				if err != nil {
					return err
				}
			}

			a.svc, err = service.New(selector, cfg.DefaultEntities, auditLogger, logging.Component(a.log, "service"))
			return err
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.piiguard/config.yaml)")
	root.PersistentFlags().StringVar(&backend, "backend", "", "NER backend to use (spacy|transformers)")
	root.PersistentFlags().BoolVar(&noNER, "no-ner", false, "disable the model-backed recognizer")

	root.AddCommand(newAnalyzeCmd(&a))
	root.AddCommand(newAnonymizeCmd(&a))
	root.AddCommand(newEntitiesCmd(&a))
	root.AddCommand(newBackendsCmd(&a))
	root.AddCommand(newAuditCmd(&a))
	root.AddCommand(newModelsCmd(&a))
	return root
}
