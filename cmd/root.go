package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpcmd "github.com/Alijeyrad/odonto_backend/cmd/http"
	systemcmd "github.com/Alijeyrad/odonto_backend/cmd/system"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "odonto",
	Short: "Odonto clinical management backend for dental schools.",
	Long: `Odonto manages the clinic of a dental school: patients, odontograms,
the treatment catalog, patient procedures and the student assignments that treat them.`,
	SilenceUsage: true,
}

// Execute runs the command tree. An interrupt cancels the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file, or a directory holding config.yaml")

	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(httpcmd.NewHTTPCommand())
}
