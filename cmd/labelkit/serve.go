package main

import (
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API under /api: translation, poster rendering, crop and export,
label sessions with a websocket progress stream, and the pair labeler.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, tk, err := newToolkit(cmd)
		if err != nil {
			return err
		}
		defer tk.Close()
		defer tk.Logger.Sync()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			tk.Config.Server.Addr = addr
		}
		if verbose, _ := cmd.Flags().GetBool("verbose"); !verbose {
			gin.SetMode(gin.ReleaseMode)
		}

		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return tk.Server().Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config, :5005)")
	rootCmd.AddCommand(serveCmd)
}
