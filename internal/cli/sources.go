package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/verifica/internal/config"
	"github.com/ppiankov/verifica/internal/render"
	"github.com/ppiankov/verifica/internal/sources"
)

// sourcesCmd represents the sources command
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the trusted sources sent with every verification",
	Long: `Sources prints the trusted-domain allow-list. Verifications only draw
on these sites and their subdomains. Edit sources.domains in the config
file to change it (at most 20 registrable domains).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}

		list, err := sources.NewList(cfg.Sources.Domains)
		if err != nil {
			return err
		}

		return render.New(cmd.OutOrStdout(), nil).Sources(list)
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
