package cmd

import (
	"github.com/shouni/go-ehon-kit/internal/config"
	"github.com/shouni/go-ehon-kit/internal/server"

	"github.com/spf13/cobra"
)

var port string

// serveCmd は、絵本生成の HTTP API を起動するのだ。
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "絵本生成の HTTP API を起動するのだ。",
	Long: `POST /api/books で 1 冊分、PUT /api/books/pages で 1 ページ分を生成するのだ。
GET /metrics で Prometheus の指標、GET /healthz で死活監視ができるのだよ。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = port
		}
		return server.Run(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&port, "port", "p", config.DefaultPort, "待ち受けるポートなのだ。指定しなければ環境変数 PORT を使うのだ。")
}
