package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"geotext/internal/resolver"
)

var unknownCmd = &cobra.Command{
	Use:   "unknown",
	Short: "Inspect and manage names the geocoder could not find",
}

var unknownListCmd = &cobra.Command{
	Use:   "list",
	Short: "List names in the negative cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		names, err := a.resolver.UnknownNames(cmd.Context())
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

var unknownRetryCmd = &cobra.Command{
	Use:   "retry NAME...",
	Short: "Geocode names again, moving any that now resolve to the known locations",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		for _, name := range args {
			res := a.resolver.Retry(cmd.Context(), name)
			switch res.Kind {
			case resolver.Resolved:
				fmt.Printf("%s: %.4f, %.4f (%s/%s)\n", name, res.Record.Lon, res.Record.Lat, res.Record.Class, res.Record.Type)
			case resolver.NotFound:
				if !res.Cached {
					if _, err := a.resolver.MarkUnknown(cmd.Context(), name); err != nil {
						return err
					}
				}
				fmt.Printf("%s: still not found\n", name)
			default:
				return res.Err()
			}
		}
		return nil
	},
}

var unknownForgetCmd = &cobra.Command{
	Use:   "forget NAME...",
	Short: "Remove names from both the known and unknown locations",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		for _, name := range args {
			if err := a.resolver.Forget(cmd.Context(), name); err != nil {
				return err
			}
		}
		fmt.Printf("Forgot %d names.\n", len(args))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(unknownCmd)
	unknownCmd.AddCommand(unknownListCmd, unknownRetryCmd, unknownForgetCmd)
}
