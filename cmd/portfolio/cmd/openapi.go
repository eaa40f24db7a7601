package cmd

import (
	"fmt"
	"os"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/spf13/cobra"
	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/logger"
	"github.com/xy-planning-network/portfolio/openapi"
	"github.com/xy-planning-network/portfolio/postgres"
	"github.com/xy-planning-network/portfolio/ranger"
)

var (
	schemaFormat  string
	schemaVersion string
	schemaOutput  string
)

// openapiCmd writes the OpenAPI document of the API
var openapiCmd = &cobra.Command{
	Use:   "openapi",
	Short: "Write the OpenAPI document of the API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var render func(doc *openapi3.T) ([]byte, error)
		switch schemaFormat {
		case "json":
			render = openapi.JSON
		case "yaml":
			render = openapi.YAML
		default:
			return fmt.Errorf("%w: unknown format %q", portfolio.ErrNotValid, schemaFormat)
		}

		cfg, err := ranger.NewConfig()
		if err != nil {
			return err
		}

		// NOTE: the document only depends on the routes, never on stored data
		db, err := postgres.Connect(&postgres.CxnConfig{URL: "sqlite://:memory:"}, portfolio.Testing)
		if err != nil {
			return err
		}

		rng, err := ranger.New(
			ranger.WithConfig(cfg),
			ranger.WithDB(db),
			ranger.WithLogger(logger.New(logger.WithLevel(logger.LogLevelError))),
		)
		if err != nil {
			return err
		}

		doc, err := rng.OpenAPI(schemaVersion)
		if err != nil {
			return err
		}

		b, err := render(doc)
		if err != nil {
			return err
		}

		if schemaOutput == "" || schemaOutput == "-" {
			_, err = cmd.OutOrStdout().Write(b)
			return err
		}

		return os.WriteFile(schemaOutput, b, 0o644)
	},
}

func init() {
	openapiCmd.Flags().StringVarP(&schemaFormat, "format", "f", "yaml", "json or yaml")
	openapiCmd.Flags().StringVar(&schemaVersion, "api-version", ranger.DefaultAPIVersion, "API version to document")
	openapiCmd.Flags().StringVarP(&schemaOutput, "output", "o", "-", "file to write, - for stdout")
	rootCmd.AddCommand(openapiCmd)
}
