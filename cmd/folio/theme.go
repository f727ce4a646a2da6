package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/folio/pkg/theme"
)

func themeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "theme [light|dark|toggle]",
		Short: "Show or change the theme",
		Long: `Show the current theme, or persist a new one.

Examples:
  folio theme
  folio theme dark
  folio theme toggle`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(theme.Light), string(theme.Dark), "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openLocal(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			switch {
			case len(args) == 0:
				fmt.Println(app.Theme.Current())
				return nil

			case args[0] == "toggle":
				app.Theme.Toggle(ctx)

			default:
				t, err := theme.Parse(args[0])
				if err != nil {
					return err
				}
				if err := app.Theme.SetTheme(ctx, t); err != nil {
					return err
				}
			}

			success("Theme set to %s", app.Theme.Current())
			return nil
		},
	}
}
