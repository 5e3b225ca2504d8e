package system

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	pasetotoken "github.com/Alijeyrad/odonto_backend/pkg/paseto"
)

// NewGenKeysCommand prints fresh token keys in the shape of the
// authentication.paseto config section.
func NewGenKeysCommand() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "gen-keys",
		Short: "Generate PASETO keys for the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			var keys pasetotoken.Keys
			switch pasetotoken.Mode(mode) {
			case pasetotoken.ModeLocal:
				keys = pasetotoken.NewLocalKeys()
			case pasetotoken.ModePublic:
				keys = pasetotoken.NewPublicKeys()
			default:
				return fmt.Errorf("unknown mode %q (use local or public)", mode)
			}

			exp := keys.Export()
			names := make([]string, 0, len(exp))
			for k := range exp {
				names = append(names, k)
			}
			sort.Strings(names)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "authentication:")
			fmt.Fprintln(out, "  paseto:")
			for _, k := range names {
				fmt.Fprintf(out, "    %s: %q\n", k, exp[k])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(pasetotoken.ModeLocal), "Token mode: local or public")
	return cmd
}
