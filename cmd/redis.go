package cmd

import (
	"fmt"
	"log"

	"espotifai/db"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis连接测试",
	Long:  `测试Redis连接是否成功, 并在播放事件频道上完成一次发布/订阅。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Redis.Enabled() {
			return fmt.Errorf("REDIS_HOST is not set")
		}
		fmt.Printf("Redis配置: %s, DB: %d, 频道: %s\n", cfg.Redis.Addr(), cfg.Redis.DB, cfg.Redis.PlayChannel)

		client, err := db.ConnectRedis(cmd.Context(), cfg.Redis)
		if err != nil {
			return fmt.Errorf("无法连接到Redis: %w", err)
		}
		defer func() {
			if err := db.CloseRedis(client); err != nil {
				log.Printf("关闭Redis连接时发生错误: %v", err)
			}
		}()
		fmt.Println("Redis连接成功！")

		if err := db.TestRedis(cmd.Context(), client, cfg.Redis.PlayChannel); err != nil {
			return fmt.Errorf("Redis发布/订阅测试失败: %w", err)
		}
		fmt.Println("Redis发布/订阅测试成功！")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
