package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/chainsim/internal/chain"
)

// NameResult is the output of the name subcommands.
type NameResult struct {
	Name  string `json:"name"`
	Value uint64 `json:"value"`
	Hex   string `json:"hex"`
}

// NewNameCommand creates the name command with its encode and decode
// subcommands.
func NewNameCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "name",
		Short: "Convert account names to and from their 64-bit form",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "encode <name>",
		Short: "Encode a name as its 64-bit value",
		Example: `  chainsim name encode eosio.token
  chainsim name encode alice --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "" {
				return NewExitError(ExitFailure, "name must not be empty")
			}
			n, err := chain.ParseName(args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "invalid name", err)
			}
			return outputName(rootOpts, cmd, n)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "decode <value>",
		Short: "Decode a 64-bit value (decimal or 0x hex) into a name",
		Example: `  chainsim name decode 6138663577826885632
  chainsim name decode 0x5530ea0000000000`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseUint(args[0], 0, 64)
			if err != nil {
				return WrapExitError(ExitFailure, "invalid name value", err)
			}
			return outputName(rootOpts, cmd, chain.Name(v))
		},
	})

	return cmd
}

func outputName(opts *RootOptions, cmd *cobra.Command, n chain.Name) error {
	result := NameResult{
		Name:  n.String(),
		Value: uint64(n),
		Hex:   fmt.Sprintf("0x%016x", uint64(n)),
	}
	if opts.Format == "json" {
		f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return f.Success(result)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", result.Name, result.Value, result.Hex)
	return nil
}
