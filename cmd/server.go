package cmd

import (
	"espotifai/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动目录服务",
	Long:  `启动 HTTP 服务器, 提供艺术家/专辑/歌曲的 REST 接口以及 /health 和 /metrics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
