package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/menta2k/labelkit/pkg/translate"
)

var translateCmd = &cobra.Command{
	Use:   "translate [text...]",
	Short: "Translate a caption",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, tk, err := newToolkit(cmd)
		if err != nil {
			return err
		}
		defer tk.Close()

		out := cmd.OutOrStdout()
		if list, _ := cmd.Flags().GetBool("list"); list {
			for _, s := range tk.Translator.Services() {
				fmt.Fprintln(out, s)
			}
			return nil
		}
		if len(args) == 0 {
			return fmt.Errorf("nothing to translate")
		}

		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		service, _ := cmd.Flags().GetString("service")
		if service == "" {
			service = tk.Config.Translate.DefaultService
		}

		text, err := tk.Translator.Translate(ctx, strings.Join(args, " "), from, to, service)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, text)
		return nil
	},
}

func init() {
	translateCmd.Flags().String("from", translate.Auto, "source language")
	translateCmd.Flags().String("to", "en", "target language")
	translateCmd.Flags().String("service", "", "translation service (default from config)")
	translateCmd.Flags().Bool("list", false, "list the available services")
	rootCmd.AddCommand(translateCmd)
}
