package cmd

import (
	"fmt"

	"espotifai/core/catalog"
	"espotifai/db"
	"espotifai/repository"
	"espotifai/storage"

	"github.com/spf13/cobra"
)

var backupList bool

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "导出目录快照到MinIO",
	Long:  `读取全部艺术家、专辑和歌曲, 以 JSON 形式上传到 MinIO 存储桶的 snapshots/ 目录。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		client, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return err
		}
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.Minio.Endpoint, cfg.Minio.Bucket)

		if backupList {
			objects, err := client.ListObjects(ctx, storage.SnapshotPrefix)
			if err != nil {
				return err
			}
			for _, obj := range objects {
				fmt.Printf("%s  %10s  %s\n", obj.LastModified.Format("2006-01-02 15:04:05"), storage.FormatSize(obj.Size), obj.Key)
			}
			fmt.Printf("共 %d 个快照\n", len(objects))
			return nil
		}

		gormDB, err := db.ConnectGormDB(cfg.DB)
		if err != nil {
			return err
		}
		defer db.CloseGormDB(gormDB)

		svc := catalog.NewService(repository.NewGormCatalogRepository(gormDB), cfg.BaseURL, nil)
		snap, err := svc.Snapshot(ctx)
		if err != nil {
			return err
		}

		if err := client.EnsureBucket(ctx); err != nil {
			return err
		}
		key := storage.SnapshotKey(snap.TakenAt)
		size, err := client.PutJSON(ctx, key, snap)
		if err != nil {
			return err
		}

		fmt.Printf("快照已上传: %s (%s, %d 位艺术家, %d 张专辑, %d 首歌曲)\n",
			key, storage.FormatSize(size), len(snap.Artists), len(snap.Albums), len(snap.Tracks))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.Flags().BoolVarP(&backupList, "list", "l", false, "列出已有快照")

	backupCmd.Example = `  # 导出快照
  espotifai backup

  # 列出已有快照
  espotifai backup -l`
}
